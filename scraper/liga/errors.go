package liga

import (
	"errors"
	"fmt"
)

// AbortReason classifies why one extraction attempt ended without an offer.
type AbortReason string

const (
	ReasonNoSellers          AbortReason = "no sellers"
	ReasonNoQualifyingSeller AbortReason = "no qualifying seller"
	ReasonAddToCartFailed    AbortReason = "add to cart failed"
	ReasonCartOpenFailed     AbortReason = "cart open failed"
	ReasonItemNotInCart      AbortReason = "item not in cart"
	ReasonParseError         AbortReason = "parse error"
)

// AbortError is terminal for one extraction attempt. The monitoring loop
// reports it and carries on; it never escapes the loop boundary.
type AbortError struct {
	Reason AbortReason
	Item   string
	Err    error
}

func (e *AbortError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Item, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Item, e.Reason)
}

func (e *AbortError) Unwrap() error { return e.Err }

func abort(reason AbortReason, item string, err error) error {
	return &AbortError{Reason: reason, Item: item, Err: err}
}

// AbortReasonOf returns the abort reason if err is an extraction abort.
func AbortReasonOf(err error) (AbortReason, bool) {
	var ae *AbortError
	if errors.As(err, &ae) {
		return ae.Reason, true
	}
	return "", false
}
