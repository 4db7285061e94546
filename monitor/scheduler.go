// Package monitor runs one polling loop per watched item, persisting
// price history and alerting on drops.
package monitor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oDuPrado/web-busca/browser"
	"github.com/oDuPrado/web-busca/models"
	"github.com/oDuPrado/web-busca/notify"
	"github.com/oDuPrado/web-busca/storage"
	"github.com/oDuPrado/web-busca/utils"
)

// Extractor produces one priced offer for an item, or an error.
type Extractor interface {
	Extract(sess browser.Session, item models.Item) (*models.Offer, error)
}

// SessionFactory opens a browser session for a loop. Sessions are never
// shared: each loop owns the one it opens.
type SessionFactory func() (browser.Session, error)

// ProgressFunc receives completion updates for UI/log consumers.
type ProgressFunc func(percent int, status string)

// Config tunes the wait phase. Each cycle sleeps a duration drawn
// uniformly from [BaseInterval, BaseInterval+Jitter] so polling carries
// no fixed-period signature.
type Config struct {
	BaseInterval time.Duration
	Jitter       time.Duration
}

// Scheduler owns the monitoring loops. Loops are peers: they never block
// one another and share nothing but the price store.
type Scheduler struct {
	cfg      Config
	ex       Extractor
	open     SessionFactory
	store    storage.PriceStore
	sink     notify.Sink
	logger   *utils.Logger
	progress ProgressFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	loops map[string]*loop
	keys  *utils.KeySet
}

// New creates a Scheduler. Zero config fields fall back to the 55s base
// and 30s jitter defaults.
func New(cfg Config, ex Extractor, open SessionFactory, store storage.PriceStore,
	sink notify.Sink, logger *utils.Logger) *Scheduler {
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = 55 * time.Second
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:    cfg,
		ex:     ex,
		open:   open,
		store:  store,
		sink:   sink,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		loops:  make(map[string]*loop),
		keys:   utils.NewKeySet(),
	}
}

// SetProgress installs the per-cycle completion hook.
func (s *Scheduler) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// Start launches one loop per item. Invalid items are rejected before any
// loop starts.
func (s *Scheduler) Start(items []models.Item) error {
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	for _, it := range items {
		if err := s.Add(it); err != nil {
			return err
		}
	}
	return nil
}

// Add begins monitoring one item. Watching the same key twice is an error.
func (s *Scheduler) Add(item models.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	key := item.Key()
	if !s.keys.Add(key) {
		return fmt.Errorf("already watching %s", key)
	}

	lctx, cancel := context.WithCancel(s.ctx)
	l := &loop{item: item, cancel: cancel}

	s.mu.Lock()
	s.loops[key] = l
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(lctx, l)
	s.logger.Info("[monitor] watching %s", item.Label())
	return nil
}

// Remove stops one item's loop and deletes its price record, leaving
// sibling loops untouched.
func (s *Scheduler) Remove(key string) error {
	s.mu.Lock()
	l, ok := s.loops[key]
	delete(s.loops, key)
	s.mu.Unlock()
	s.keys.Remove(key)

	if !ok {
		return fmt.Errorf("not watching %s", key)
	}
	l.cancel()
	return s.store.Remove(context.Background(), key)
}

// Rename re-keys a watched item without losing its price history: the
// old loop stops, the record moves, and a loop starts under the new key.
func (s *Scheduler) Rename(oldKey string, item models.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	l, ok := s.loops[oldKey]
	delete(s.loops, oldKey)
	s.mu.Unlock()
	s.keys.Remove(oldKey)
	if ok {
		l.cancel()
	}

	if err := s.store.Rename(context.Background(), oldKey, item.Key()); err != nil {
		return err
	}
	return s.Add(item)
}

// Pause freezes every loop's countdown without losing loop identity.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.loops {
		l.setPaused(true)
	}
	s.logger.Info("[monitor] paused")
}

// Resume lets paused loops continue their countdown where it stopped.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.loops {
		l.setPaused(false)
	}
	s.logger.Info("[monitor] resumed")
}

// Stop cancels every loop and blocks until all of them have released
// their browser sessions.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("[monitor] stopped")
}

// run is one item's loop: check, report, wait, repeat. Extraction and
// persistence failures are reported and survived — a transient site
// failure must never silently end monitoring.
func (s *Scheduler) run(ctx context.Context, l *loop) {
	defer s.wg.Done()
	defer l.closeSession()

	for {
		if ctx.Err() != nil {
			return
		}
		s.checkOnce(ctx, l)
		l.cycles++
		if s.progress != nil {
			s.progress(100, fmt.Sprintf("%s: cycle %d done", l.item.Label(), l.cycles))
		}
		if !l.wait(ctx, s.nextDelay()) {
			return
		}
	}
}

func (s *Scheduler) checkOnce(ctx context.Context, l *loop) {
	label := l.item.Label()

	sess, err := l.session(s.open)
	if err != nil {
		s.fail(ctx, label, fmt.Errorf("open browser session: %w", err))
		return
	}

	offer, err := s.ex.Extract(sess, l.item)
	if err != nil {
		s.fail(ctx, label, err)
		return
	}

	s.record(ctx, l, offer)
}

func (s *Scheduler) record(ctx context.Context, l *loop, offer *models.Offer) {
	key := l.item.Key()
	label := offer.Item.Label()

	rec, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.fail(ctx, label, fmt.Errorf("read price record: %w", err))
		return
	}

	dropped := !ok || rec.LastPrice == 0 || offer.UnitPrice < rec.LastPrice
	if dropped {
		var prev float64
		if ok {
			prev = rec.LastPrice
		}
		if err := s.store.Upsert(ctx, key, offer.UnitPrice, offer.ObservedAt); err != nil {
			// stale history beats a dead monitor
			s.logger.Error("[monitor] %s: persist failed: %v", label, err)
		}
		alert := notify.Alert{
			Label:     label,
			URL:       offer.URL,
			NewPrice:  offer.UnitPrice,
			LastPrice: prev,
			Quantity:  offer.Quantity,
		}
		if err := s.sink.PriceDrop(ctx, alert); err != nil {
			s.logger.Error("[monitor] %s: alert delivery failed: %v", label, err)
		}
		s.logger.Info("[monitor] %s dropped: R$ %.2f → R$ %.2f", label, prev, offer.UnitPrice)
		return
	}

	// no drop: the stored price stays put, only the check time refreshes
	if err := s.store.Upsert(ctx, key, rec.LastPrice, offer.ObservedAt); err != nil {
		s.logger.Error("[monitor] %s: persist failed: %v", label, err)
	}
	s.logger.Info("[monitor] %s: R$ %.2f (floor R$ %.2f, %d in stock)",
		label, offer.UnitPrice, rec.LastPrice, offer.Quantity)
}

func (s *Scheduler) fail(ctx context.Context, label string, err error) {
	s.logger.Error("[monitor] %s: %v", label, err)
	if sinkErr := s.sink.Failure(ctx, label, err); sinkErr != nil {
		s.logger.Error("[monitor] %s: error report delivery failed: %v", label, sinkErr)
	}
}

func (s *Scheduler) nextDelay() time.Duration {
	d := s.cfg.BaseInterval
	if s.cfg.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(s.cfg.Jitter)))
	}
	return d
}

// loop is the runtime state of one watched item.
type loop struct {
	item   models.Item
	cancel context.CancelFunc
	cycles int

	mu     sync.Mutex
	paused bool
	sess   browser.Session
}

func (l *loop) session(open SessionFactory) (browser.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sess != nil {
		return l.sess, nil
	}
	sess, err := open()
	if err != nil {
		return nil, err
	}
	l.sess = sess
	return sess, nil
}

func (l *loop) closeSession() {
	l.mu.Lock()
	sess := l.sess
	l.sess = nil
	l.mu.Unlock()
	if sess != nil {
		_ = sess.Close()
	}
}

func (l *loop) setPaused(v bool) {
	l.mu.Lock()
	l.paused = v
	l.mu.Unlock()
}

func (l *loop) isPaused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// wait sleeps d in small slices so a stop signal interrupts within well
// under a second and a pause freezes the countdown instead of consuming
// it. Returns false when the loop should exit.
func (l *loop) wait(ctx context.Context, d time.Duration) bool {
	step := 250 * time.Millisecond
	if d < step {
		step = d
	}
	if step <= 0 {
		return ctx.Err() == nil
	}

	ticker := time.NewTicker(step)
	defer ticker.Stop()

	remaining := d
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if l.isPaused() {
				continue
			}
			remaining -= step
		}
	}
	return true
}
