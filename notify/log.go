package notify

import (
	"context"

	"github.com/oDuPrado/web-busca/utils"
)

// LogSink writes alerts to the application log. Used when no Telegram
// token is configured.
type LogSink struct {
	logger *utils.Logger
}

// NewLogSink creates a logger-backed sink.
func NewLogSink(logger *utils.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) PriceDrop(_ context.Context, a Alert) error {
	s.logger.Info("[alert] %s: R$ %s → R$ %s (%d in stock) %s",
		a.Label, FormatBRL(a.LastPrice), FormatBRL(a.NewPrice), a.Quantity, a.URL)
	return nil
}

func (s *LogSink) Failure(_ context.Context, scope string, err error) error {
	s.logger.Error("[alert] %s: %v", scope, err)
	return nil
}
