package storage

import (
	"sync"

	"github.com/google/uuid"
)

// Watcher is a table-granularity publish/subscribe channel: writers broadcast
// the names of tables they touched, subscribers get a signal to re-run their
// query. This mirrors how reactive persistence layers invalidate queries per
// table rather than per row; a coarser signal costs a redundant re-query at
// worst, never a missed update.
type Watcher struct {
	mu   sync.Mutex
	subs map[string]map[uuid.UUID]chan struct{}
}

// NewWatcher returns an empty Watcher.
func NewWatcher() *Watcher {
	return &Watcher{subs: make(map[string]map[uuid.UUID]chan struct{})}
}

// Watch registers a subscriber for changes to any of the given tables.
// It returns a signal channel (buffered, coalescing: multiple broadcasts
// between reads collapse into one signal) and a release function.
// The release function is idempotent and must be called when the
// subscription ends so the Watcher does not accumulate dead channels.
func (w *Watcher) Watch(tables ...string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	id := uuid.New()

	w.mu.Lock()
	for _, table := range tables {
		if w.subs[table] == nil {
			w.subs[table] = make(map[uuid.UUID]chan struct{})
		}
		w.subs[table][id] = ch
	}
	w.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			w.mu.Lock()
			for _, table := range tables {
				delete(w.subs[table], id)
				if len(w.subs[table]) == 0 {
					delete(w.subs, table)
				}
			}
			w.mu.Unlock()
		})
	}
	return ch, release
}

// Broadcast signals every subscriber watching any of the given tables.
// A subscriber registered for several of the tables is signalled once per
// broadcast at most, because its channel holds a single pending signal.
func (w *Watcher) Broadcast(tables ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, table := range tables {
		for _, ch := range w.subs[table] {
			select {
			case ch <- struct{}{}:
			default: // a signal is already pending
			}
		}
	}
}
