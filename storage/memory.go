package storage

import (
	"context"
	"sync"
	"time"

	"github.com/oDuPrado/web-busca/models"
)

// MemoryStore is an in-process PriceStore for DB-less runs and tests.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string]models.PriceRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]models.PriceRecord)}
}

func (m *MemoryStore) Upsert(_ context.Context, key string, price float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[key]
	if !ok {
		m.recs[key] = models.PriceRecord{
			ItemKey:    key,
			LastPrice:  price,
			LastCheck:  at,
			FirstPrice: price,
			FirstSeen:  at,
		}
		return nil
	}

	rec.LastPrice = price
	rec.LastCheck = at
	if rec.FirstPrice == 0 {
		rec.FirstPrice = price
		rec.FirstSeen = at
	}
	m.recs[key] = rec
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (*models.PriceRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[key]
	if !ok {
		return nil, false, nil
	}
	out := rec
	return &out, true, nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.recs))
	for k := range m.recs {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, key)
	return nil
}

func (m *MemoryStore) Rename(_ context.Context, oldKey, newKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[oldKey]
	if !ok {
		return nil
	}
	rec.ItemKey = newKey
	m.recs[newKey] = rec
	delete(m.recs, oldKey)
	return nil
}
