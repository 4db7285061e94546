package storage

import (
	"context"
	"time"

	"github.com/oDuPrado/web-busca/models"
)

// PriceStore is the durable key-value store of price history. It is the
// only resource shared across monitoring loops, so implementations must
// be safe for concurrent use.
type PriceStore interface {
	// Upsert records an observation. An absent key creates both first
	// and last fields from the given values; an existing key updates
	// only the last fields, unless first_price is still zero, in which
	// case it is backfilled.
	Upsert(ctx context.Context, key string, price float64, at time.Time) error
	// Get returns the record and whether it exists.
	Get(ctx context.Context, key string) (*models.PriceRecord, bool, error)
	// Keys lists every tracked item key.
	Keys(ctx context.Context) ([]string, error)
	// Remove deletes the record; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Rename moves the record to a new key, preserving its history.
	Rename(ctx context.Context, oldKey, newKey string) error
}
