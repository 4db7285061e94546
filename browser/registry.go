package browser

import "sync"

// The registry tracks every open session so an exiting process can force
// the underlying browser processes down. It is populated on Open, drained
// on Close, and flushed by CloseAll at shutdown.
var registry = struct {
	mu   sync.Mutex
	open map[Session]struct{}
}{open: make(map[Session]struct{})}

// Register adds a session to the process-wide registry.
func Register(s Session) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.open[s] = struct{}{}
}

// Unregister removes a session from the registry.
func Unregister(s Session) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.open, s)
}

// OpenCount returns the number of sessions currently registered.
func OpenCount() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.open)
}

// CloseAll closes every registered session. Safe to call at shutdown even
// when sessions already closed themselves.
func CloseAll() {
	registry.mu.Lock()
	sessions := make([]Session, 0, len(registry.open))
	for s := range registry.open {
		sessions = append(sessions, s)
	}
	registry.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}
}
