package models

import (
	"errors"
	"fmt"
	"time"
)

// Item identifies one thing whose price is tracked: either a card
// (name + collection + number) or a product page URL.
type Item struct {
	Name       string
	Collection string
	Number     string
	URL        string
}

// Key returns the identity used by the price store and the scheduler.
func (it Item) Key() string {
	if it.URL != "" {
		return it.URL
	}
	return it.Name + "|" + it.Collection + "|" + it.Number
}

// Label returns a human-readable identifier for logs and alerts.
func (it Item) Label() string {
	if it.Name != "" {
		if it.Number != "" {
			return fmt.Sprintf("%s (%s)", it.Name, it.Number)
		}
		return it.Name
	}
	return it.URL
}

// Validate rejects items missing a required field. A URL alone is a valid
// identity; otherwise all three card fields are required.
func (it Item) Validate() error {
	if it.URL != "" {
		return nil
	}
	if it.Name == "" {
		return errors.New("item: missing name")
	}
	if it.Collection == "" {
		return errors.New("item: missing collection")
	}
	if it.Number == "" {
		return errors.New("item: missing number")
	}
	return nil
}

// Offer is the result of one successful extraction. It is created per
// attempt, never mutated, and discarded after persistence/alerting.
type Offer struct {
	Item       Item
	URL        string
	Condition  string
	Language   string
	UnitPrice  float64
	TotalPrice float64
	Quantity   int
	ObservedAt time.Time
}

// PriceRecord is the persisted state per item. FirstPrice is written on
// the first priced observation and never overwritten afterwards.
type PriceRecord struct {
	ItemKey    string
	LastPrice  float64
	LastCheck  time.Time
	FirstPrice float64
	FirstSeen  time.Time
}
