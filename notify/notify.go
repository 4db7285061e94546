// Package notify delivers price-drop alerts and error reports to an
// external channel.
package notify

import "context"

// Alert carries the data for one price-drop notification.
type Alert struct {
	Label     string
	URL       string
	NewPrice  float64
	LastPrice float64
	Quantity  int
}

// Sink is the delivery channel for alerts and failure reports. Transport
// is pluggable; the engine never cares where messages land.
type Sink interface {
	PriceDrop(ctx context.Context, a Alert) error
	Failure(ctx context.Context, scope string, err error) error
}
