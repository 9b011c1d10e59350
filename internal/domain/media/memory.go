package media

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Changes reach subscribers of this process only.
type MemoryStore struct {
	mu      sync.RWMutex
	keys    []string
	records map[string]Record
	subs    listeners
	newKey  func() string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		newKey:  NewKey,
	}
}

func (s *MemoryStore) Push(ctx context.Context, rec Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	key := s.newKey()
	s.keys = append(s.keys, key)
	s.records[key] = rec
	s.mu.Unlock()

	s.changed()
	return key, nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, patch Patch) error {
	if patch.Empty() {
		return ErrEmptyPatch
	}

	s.mu.Lock()
	rec, ok := s.records[key]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.records[key] = patch.Apply(rec)
	s.mu.Unlock()

	s.changed()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	if _, ok := s.records[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.records, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.changed()
	return nil
}

func (s *MemoryStore) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.snapshot(), nil
}

func (s *MemoryStore) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Snapshot, 0, len(s.keys))
	for _, k := range s.keys {
		snap = append(snap, Entry{Key: k, Record: s.records[k]})
	}
	return snap
}

func (s *MemoryStore) Subscribe(ctx context.Context, fn Listener) (func(), error) {
	s.subs.sendMu.Lock()
	defer s.subs.sendMu.Unlock()

	unsubscribe := s.subs.add(fn)
	fn(s.snapshot())
	return unsubscribe, nil
}

func (s *MemoryStore) changed() {
	s.subs.dispatch(func() (Snapshot, bool) { return s.snapshot(), true })
}
