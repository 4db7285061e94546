package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oDuPrado/web-busca/utils"
)

const telegramAPI = "https://api.telegram.org"

// Telegram delivers alerts through the Telegram Bot API, fanning out to
// every configured chat.
type Telegram struct {
	token   string
	chatIDs []int64
	client  *http.Client
	logger  *utils.Logger
	baseURL string
}

// NewTelegram creates a Telegram sink. A nil client falls back to a
// 10-second default.
func NewTelegram(token string, chatIDs []int64, client *http.Client, logger *utils.Logger) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Telegram{
		token:   token,
		chatIDs: chatIDs,
		client:  client,
		logger:  logger,
		baseURL: telegramAPI,
	}
}

// PriceDrop sends the formatted drop alert to every chat.
func (t *Telegram) PriceDrop(ctx context.Context, a Alert) error {
	return t.broadcast(ctx, FormatPriceAlert(a))
}

// Failure sends an error report to every chat.
func (t *Telegram) Failure(ctx context.Context, scope string, err error) error {
	return t.broadcast(ctx, FormatFailure(scope, time.Now(), err))
}

func (t *Telegram) broadcast(ctx context.Context, text string) error {
	var firstErr error
	for _, chatID := range t.chatIDs {
		if err := t.send(ctx, chatID, text); err != nil {
			t.logger.Error("[telegram] chat %d: %v", chatID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (t *Telegram) send(ctx context.Context, chatID int64, text string) error {
	form := url.Values{
		"chat_id":                  {strconv.FormatInt(chatID, 10)},
		"text":                     {text},
		"parse_mode":               {"HTML"},
		"disable_web_page_preview": {"true"},
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: sendMessage returned %s", resp.Status)
	}
	return nil
}
