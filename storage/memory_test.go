package storage

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestMemoryStoreFirstAndLastPrice(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := "https://example.test/?view=prod/view&pcode=1"

	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, price := range []float64{5, 3, 3, 7} {
		at := t0.Add(time.Duration(i) * time.Hour)
		if err := store.Upsert(ctx, key, price, at); err != nil {
			t.Fatalf("Upsert #%d: %v", i, err)
		}
	}

	rec, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get: rec=%v ok=%v err=%v", rec, ok, err)
	}
	if rec.FirstPrice != 5 {
		t.Errorf("FirstPrice = %.2f, want 5 (set once, never overwritten)", rec.FirstPrice)
	}
	if !rec.FirstSeen.Equal(t0) {
		t.Errorf("FirstSeen = %v, want %v", rec.FirstSeen, t0)
	}
	if rec.LastPrice != 7 {
		t.Errorf("LastPrice = %.2f, want 7", rec.LastPrice)
	}
	if !rec.LastCheck.Equal(t0.Add(3 * time.Hour)) {
		t.Errorf("LastCheck = %v, want the latest observation time", rec.LastCheck)
	}
}

func TestMemoryStoreZeroFirstPriceBackfill(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := "charizard|OBF|125"

	// registration writes a zero placeholder before any real observation
	reg := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Upsert(ctx, key, 0, reg); err != nil {
		t.Fatalf("Upsert placeholder: %v", err)
	}

	obs := reg.Add(time.Hour)
	if err := store.Upsert(ctx, key, 189.90, obs); err != nil {
		t.Fatalf("Upsert observation: %v", err)
	}

	rec, _, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.FirstPrice != 189.90 {
		t.Errorf("FirstPrice = %.2f, want backfilled 189.90", rec.FirstPrice)
	}
	if !rec.FirstSeen.Equal(obs) {
		t.Errorf("FirstSeen = %v, want the backfill time %v", rec.FirstSeen, obs)
	}

	// once set, a later observation must not touch the first fields
	if err := store.Upsert(ctx, key, 120, obs.Add(time.Hour)); err != nil {
		t.Fatalf("Upsert later: %v", err)
	}
	rec, _, _ = store.Get(ctx, key)
	if rec.FirstPrice != 189.90 {
		t.Errorf("FirstPrice = %.2f after later upsert, want 189.90", rec.FirstPrice)
	}
}

func TestMemoryStoreGetAbsent(t *testing.T) {
	store := NewMemoryStore()
	rec, ok, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || rec != nil {
		t.Errorf("Get(missing) = %v, %v; want nil, false", rec, ok)
	}
}

func TestMemoryStoreKeysAndRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	for _, k := range []string{"a", "b", "c"} {
		if err := store.Upsert(ctx, k, 1, now); err != nil {
			t.Fatalf("Upsert %s: %v", k, err)
		}
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("Keys = %v, want [a b c]", keys)
	}

	if err := store.Remove(ctx, "b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "b"); ok {
		t.Error("record b still present after Remove")
	}

	// removing an absent key is not an error
	if err := store.Remove(ctx, "b"); err != nil {
		t.Errorf("Remove(absent) = %v, want nil", err)
	}
}

func TestMemoryStoreRenamePreservesHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if err := store.Upsert(ctx, "old", 50, t0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Upsert(ctx, "old", 40, t0.Add(time.Hour)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := store.Rename(ctx, "old", "new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "old"); ok {
		t.Error("old key still present after Rename")
	}
	rec, ok, err := store.Get(ctx, "new")
	if err != nil || !ok {
		t.Fatalf("Get(new): rec=%v ok=%v err=%v", rec, ok, err)
	}
	if rec.ItemKey != "new" {
		t.Errorf("ItemKey = %q, want new", rec.ItemKey)
	}
	if rec.FirstPrice != 50 || rec.LastPrice != 40 {
		t.Errorf("history lost: first=%.2f last=%.2f, want 50/40", rec.FirstPrice, rec.LastPrice)
	}
}
