package liga

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/oDuPrado/web-busca/browser"
	"github.com/oDuPrado/web-busca/models"
	"github.com/oDuPrado/web-busca/utils"
)

// SessionFactory opens a fresh browser session.
type SessionFactory func() (browser.Session, error)

// Result is one item's outcome within a batch scrape.
type Result struct {
	Item  models.Item
	Offer *models.Offer
	Err   error
}

// Batch runs a one-shot scrape over a watch-list. Items are split into
// contiguous chunks, one worker and one browser session per chunk, so a
// session is reused across many items but never shared between workers.
type Batch struct {
	ex       *Extractor
	open     SessionFactory
	workers  int
	logger   *utils.Logger
	progress func(percent int, status string)
}

// NewBatch creates a batch runner with the given worker count.
func NewBatch(ex *Extractor, open SessionFactory, workers int, logger *utils.Logger) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{ex: ex, open: open, workers: workers, logger: logger}
}

// SetProgress installs the completion hook, called after every item with
// a 0–100 percentage and a status line.
func (b *Batch) SetProgress(fn func(percent int, status string)) {
	b.progress = fn
}

// Run scrapes every item, isolating per-item failures in the results.
// The returned error is non-nil only when a worker could not open its
// browser session at all.
func (b *Batch) Run(ctx context.Context, items []models.Item) ([]Result, error) {
	if len(items) == 0 {
		return nil, nil
	}

	workers := b.workers
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]Result, len(items))
	var done atomic.Int32
	var mu sync.Mutex
	var openErr error

	pool := utils.NewWorkerPool(workers, 0)
	chunk := (len(items) + workers - 1) / workers

	for start := 0; start < len(items); start += chunk {
		end := start + chunk
		if end > len(items) {
			end = len(items)
		}
		lo, hi := start, end

		pool.Submit(func() {
			sess, err := b.open()
			if err != nil {
				mu.Lock()
				if openErr == nil {
					openErr = err
				}
				mu.Unlock()
				for i := lo; i < hi; i++ {
					results[i] = Result{Item: items[i], Err: err}
					b.report(int(done.Add(1)), len(items), items[i], err)
				}
				return
			}
			defer sess.Close()

			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					results[i] = Result{Item: items[i], Err: err}
					done.Add(1)
					continue
				}
				offer, err := b.ex.Extract(sess, items[i])
				results[i] = Result{Item: items[i], Offer: offer, Err: err}
				if err != nil {
					b.logger.Error("[batch] %s: %v", items[i].Label(), err)
				}
				b.report(int(done.Add(1)), len(items), items[i], err)
			}
		})
	}
	pool.Wait()

	if openErr != nil {
		return results, fmt.Errorf("batch: open browser session: %w", openErr)
	}
	return results, nil
}

func (b *Batch) report(n, total int, item models.Item, err error) {
	if b.progress == nil {
		return
	}
	status := fmt.Sprintf("%s ok", item.Label())
	if err != nil {
		status = fmt.Sprintf("%s failed: %v", item.Label(), err)
	}
	b.progress(n*100/total, status)
}
