package media

import (
	"context"
	"sync"
)

// Listener receives the complete collection after every change
type Listener func(Snapshot)

// Store is the realtime media record store.
type Store interface {
	// Push creates a record under a new key.
	Push(ctx context.Context, rec Record) (string, error)

	// Update applies a partial update to an existing record.
	Update(ctx context.Context, key string, patch Patch) error

	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (Record, error)

	// Remove deletes the record. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Snapshot returns the current collection.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Subscribe calls fn with the current collection now and again after every
	// change from any client. The returned func unsubscribes.
	Subscribe(ctx context.Context, fn Listener) (func(), error)
}

// listeners fans snapshots out to subscribers. dispatch calls are serialized so
// every listener sees snapshots in the order they were taken.
type listeners struct {
	mu     sync.Mutex
	next   int
	fns    map[int]Listener
	sendMu sync.Mutex
}

func (l *listeners) add(fn Listener) func() {
	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[int]Listener)
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners) dispatch(load func() (Snapshot, bool)) {
	l.sendMu.Lock()
	defer l.sendMu.Unlock()

	snap, ok := load()
	if !ok {
		return
	}

	l.mu.Lock()
	fns := make([]Listener, 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (l *listeners) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
