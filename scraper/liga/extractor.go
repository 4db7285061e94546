package liga

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oDuPrado/web-busca/browser"
	"github.com/oDuPrado/web-busca/models"
	"github.com/oDuPrado/web-busca/utils"
)

// Policy tunes one Extractor.
type Policy struct {
	// ConditionToken filters acceptable sellers, e.g. "NM" or "Lacrado".
	// Matched case-insensitively against the seller block text.
	ConditionToken string
	// FallbackFirstSeller selects the first seller unconditionally when
	// no condition match exists. The product monitor enables it; the
	// card scraper runs strict.
	FallbackFirstSeller bool
	CartAttempts        int
	CartBackoff         time.Duration
}

// extraction states; each attempt walks them strictly forward until DONE
// or an abort.
type state int

const (
	stateNavigated state = iota
	stateSellersListed
	stateSellerChosen
	stateCartOpened
	stateItemLocated
	stateDone
)

// Extractor drives a browser session through the marketplace's page and
// cart flow and returns one priced offer per item.
type Extractor struct {
	baseURL string
	sels    Selectors
	policy  Policy
	logger  *utils.Logger
	retry   *utils.RetryConfig
}

// New creates an Extractor for the marketplace at baseURL.
func New(baseURL string, sels Selectors, policy Policy, logger *utils.Logger) *Extractor {
	if policy.CartAttempts <= 0 {
		policy.CartAttempts = 3
	}
	if policy.CartBackoff <= 0 {
		policy.CartBackoff = 800 * time.Millisecond
	}
	return &Extractor{
		baseURL: baseURL,
		sels:    sels,
		policy:  policy,
		logger:  logger,
		retry: &utils.RetryConfig{
			MaxAttempts: policy.CartAttempts,
			BaseDelay:   policy.CartBackoff,
			Logger:      logger,
		},
	}
}

// CardURL builds the dynamic card page URL for a card item.
func (e *Extractor) CardURL(it models.Item) string {
	name := strings.ReplaceAll(it.Name, " ", "%20")
	return fmt.Sprintf("%s?view=cards/card&card=%s%%20(%s)&ed=%s&num=%s",
		e.baseURL, name, it.Number, it.Collection, it.Number)
}

// Extract runs one full attempt against sess. The session may be freshly
// opened or reused across many items; the attempt cleans its cart entry
// on success so reuse does not accumulate stale state.
func (e *Extractor) Extract(sess browser.Session, item models.Item) (*models.Offer, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}

	target := item.URL
	if target == "" {
		target = e.CardURL(item)
	}

	if err := sess.Navigate(target); err != nil {
		return nil, err
	}
	e.dismissCookieBanner(sess)

	label := item.Label()
	var (
		sellers   []browser.Element
		chosen    browser.Element
		condition string
		language  string
		row       browser.Element
		offer     *models.Offer
		err       error
	)

	for st := stateNavigated; ; {
		switch st {
		case stateNavigated:
			sellers, err = sess.FindAll(e.sels.StoreBlock)
			if err != nil {
				return nil, abort(ReasonNoSellers, label, err)
			}
			if len(sellers) == 0 {
				return nil, abort(ReasonNoSellers, label, nil)
			}
			e.logger.Debug("[liga] %s: %d sellers listed", label, len(sellers))
			st = stateSellersListed

		case stateSellersListed:
			chosen, condition, language = e.chooseSeller(sellers)
			if chosen == nil {
				return nil, abort(ReasonNoQualifyingSeller, label, nil)
			}
			st = stateSellerChosen

		case stateSellerChosen:
			if err = e.addToCart(sess, chosen, label); err != nil {
				return nil, err
			}
			st = stateCartOpened

		case stateCartOpened:
			row, err = e.locateCartItem(sess, item)
			if err != nil {
				return nil, err
			}
			st = stateItemLocated

		case stateItemLocated:
			offer, err = e.readOffer(sess, row, item, target, condition, language)
			if err != nil {
				return nil, err
			}
			st = stateDone

		case stateDone:
			e.clearCart(sess, row)
			e.logger.Info("[liga] %s: R$ %.2f (%d in stock, %s)",
				offer.Item.Label(), offer.UnitPrice, offer.Quantity, offer.Condition)
			return offer, nil
		}
	}
}

// dismissCookieBanner closes the consent banner when present; its absence
// is the normal case after the first page load.
func (e *Extractor) dismissCookieBanner(sess browser.Session) {
	banners, err := sess.FindAll(e.sels.CookieBanner)
	if err != nil || len(banners) == 0 {
		return
	}
	btns, err := banners[0].FindAll(e.sels.CookieBannerButton)
	if err != nil || len(btns) == 0 {
		return
	}
	if err := btns[0].Click(); err != nil {
		e.logger.Warn("[liga] cookie banner dismiss failed: %v", err)
		return
	}
	e.logger.Debug("[liga] cookie banner dismissed")
}

// chooseSeller scans sellers in page order and picks the first whose text
// carries the condition token, falling back to the first seller when the
// policy allows it.
func (e *Extractor) chooseSeller(sellers []browser.Element) (browser.Element, string, string) {
	for _, st := range sellers {
		txt, err := st.Text()
		if err != nil {
			continue
		}
		if !containsFold(txt, e.policy.ConditionToken) {
			continue
		}
		cond, lang := e.sellerDetails(st)
		if cond == "" {
			cond = e.policy.ConditionToken
		}
		return st, cond, lang
	}

	if e.policy.FallbackFirstSeller && len(sellers) > 0 {
		e.logger.Debug("[liga] no %q seller, falling back to first", e.policy.ConditionToken)
		cond, lang := e.sellerDetails(sellers[0])
		return sellers[0], cond, lang
	}
	return nil, "", ""
}

// sellerDetails reads the condition title and language from the seller's
// quality/language block; both are best-effort.
func (e *Extractor) sellerDetails(seller browser.Element) (string, string) {
	var condition, language string

	infos, err := seller.FindAll(e.sels.QualityInfo)
	if err != nil || len(infos) == 0 {
		return "", ""
	}
	info := infos[0]

	if quals, err := info.FindAll(e.sels.Quality); err == nil {
		for _, q := range quals {
			if title, ok := q.Attr("title"); ok && containsFold(title, e.policy.ConditionToken) {
				condition = title
				break
			}
		}
	}
	if imgs, err := info.FindAll(e.sels.LanguageImg); err == nil {
		for _, img := range imgs {
			if title, ok := img.Attr("title"); ok {
				language = title
			}
		}
	}
	return condition, language
}

// addToCart clicks the seller's buy control, accepts any replace-cart
// prompt, then opens the cart view with bounded retries.
func (e *Extractor) addToCart(sess browser.Session, seller browser.Element, label string) error {
	btn, err := seller.Find(e.sels.BuyButton)
	if err != nil {
		return abort(ReasonAddToCartFailed, label, err)
	}
	if err := btn.Click(); err != nil {
		return abort(ReasonAddToCartFailed, label, err)
	}
	if sess.AcceptDialog() {
		e.logger.Debug("[liga] %s: cart confirmation accepted", label)
	}

	err = e.retry.Do("open-cart", func() error {
		icon, err := sess.Find(e.sels.CartIcon)
		if err != nil {
			return err
		}
		if err := icon.Click(); err != nil {
			return err
		}
		view, err := sess.Find(e.sels.ViewCartLink)
		if err != nil {
			return err
		}
		if err := view.Click(); err != nil {
			return err
		}
		_, err = sess.Find(e.sels.CartItems)
		return err
	})
	if err != nil {
		return abort(ReasonCartOpenFailed, label, err)
	}
	return nil
}

// locateCartItem finds the cart row for the item. Card items match on
// name plus parenthesized number; URL items take the first row.
func (e *Extractor) locateCartItem(sess browser.Session, item models.Item) (browser.Element, error) {
	label := item.Label()

	container, err := sess.Find(e.sels.CartItems)
	if err != nil {
		return nil, abort(ReasonItemNotInCart, label, err)
	}
	rows, err := container.FindAll(e.sels.CartRow)
	if err != nil || len(rows) == 0 {
		return nil, abort(ReasonItemNotInCart, label, err)
	}

	if item.Number == "" {
		return rows[0], nil
	}

	want := "(" + item.Number + ")"
	for _, r := range rows {
		titles, err := r.FindAll(e.sels.CartTitle)
		if err != nil || len(titles) == 0 {
			continue
		}
		txt, err := titles[0].Text()
		if err != nil {
			continue
		}
		if strings.Contains(txt, item.Name) && strings.Contains(txt, want) {
			return r, nil
		}
	}
	return nil, abort(ReasonItemNotInCart, label, nil)
}

// readOffer parses quantity and prices out of the located cart row.
func (e *Extractor) readOffer(
	sess browser.Session,
	row browser.Element,
	item models.Item,
	target, condition, language string,
) (*models.Offer, error) {
	label := item.Label()

	unitTxt, ok := e.childText(row, e.sels.CartUnit)
	if !ok {
		// the product cart layout only carries the total column
		unitTxt, ok = e.childText(row, e.sels.CartTotal)
	}
	if !ok {
		return nil, abort(ReasonParseError, label, errors.New("no price column in cart row"))
	}
	unit, err := ParsePrice(unitTxt)
	if err != nil {
		return nil, abort(ReasonParseError, label, err)
	}

	total := unit
	if totalTxt, ok := e.childText(row, e.sels.CartTotal); ok {
		if v, err := ParsePrice(totalTxt); err == nil {
			total = v
		}
	}

	qty := 0
	if stockTxt, ok := e.childText(row, e.sels.CartStock); ok {
		qty = ParseQuantity(stockTxt)
	}

	// URL-monitored items learn their display name from the cart page.
	if item.Name == "" {
		if nameEl, err := sess.Find(e.sels.ProductName); err == nil {
			if n, err := nameEl.Text(); err == nil {
				item.Name = strings.TrimSpace(n)
			}
		}
	}

	return &models.Offer{
		Item:       item,
		URL:        target,
		Condition:  condition,
		Language:   language,
		UnitPrice:  unit,
		TotalPrice: total,
		Quantity:   qty,
		ObservedAt: time.Now(),
	}, nil
}

// clearCart removes the just-added row so session reuse starts from a
// clean cart. Best-effort: failures are logged and swallowed.
func (e *Extractor) clearCart(sess browser.Session, row browser.Element) {
	btns, err := row.FindAll(e.sels.RemoveButton)
	if err != nil || len(btns) == 0 {
		btns, err = sess.FindAll(e.sels.RemoveButton)
		if err != nil || len(btns) == 0 {
			e.logger.Warn("[liga] cart cleanup: remove control not found")
			return
		}
	}
	if err := btns[0].Click(); err != nil {
		e.logger.Warn("[liga] cart cleanup failed: %v", err)
		return
	}
	sess.AcceptDialog()
}

func (e *Extractor) childText(scope browser.Element, selector string) (string, bool) {
	els, err := scope.FindAll(selector)
	if err != nil || len(els) == 0 {
		return "", false
	}
	txt, err := els[0].Text()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(txt), true
}
