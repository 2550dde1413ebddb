package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Snapshotter is implemented by every slice that takes part in state
// persistence. StateKey names the slice inside the persisted tree.
type Snapshotter interface {
	StateKey() string
	Snapshot() (json.RawMessage, error)
	Restore(data json.RawMessage) error
}

// Store is the explicit application-state object. It owns the registered
// slices for persistence purposes and fans change notifications out to
// subscribers. Each slice guards its own state; the store never reaches
// into slice internals.
type Store struct {
	mu     sync.RWMutex
	slices []Snapshotter

	subMu       sync.Mutex
	subscribers map[int]func(stateKey string)
	nextSubID   int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		subscribers: make(map[int]func(stateKey string)),
	}
}

// Register adds a slice to the store. Registering two slices with the same
// state key is a programming error.
func (s *Store) Register(slice Snapshotter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.slices {
		if existing.StateKey() == slice.StateKey() {
			return fmt.Errorf("slice already registered for key %q", slice.StateKey())
		}
	}
	s.slices = append(s.slices, slice)
	return nil
}

// Subscribe registers a callback invoked after any slice reports a change.
// It returns an unsubscribe function.
func (s *Store) Subscribe(fn func(stateKey string)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// NotifyChanged is called by slices after a state mutation has been applied.
// Callbacks run synchronously in dispatch order, so subscribers observe
// updates in the order they were applied.
func (s *Store) NotifyChanged(stateKey string) {
	s.subMu.Lock()
	fns := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(stateKey)
	}
}

// SnapshotTree collects every registered slice into one JSON tree keyed by
// state key.
func (s *Store) SnapshotTree() (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree := make(map[string]json.RawMessage, len(s.slices))
	for _, slice := range s.slices {
		data, err := slice.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot slice %q: %w", slice.StateKey(), err)
		}
		tree[slice.StateKey()] = data
	}
	return tree, nil
}

// RestoreTree rehydrates registered slices from a persisted tree. Keys with
// no registered slice are ignored so an old snapshot never blocks launch;
// a slice that fails to restore is logged and left at its zero state.
func (s *Store) RestoreTree(tree map[string]json.RawMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, slice := range s.slices {
		data, ok := tree[slice.StateKey()]
		if !ok {
			continue
		}
		if err := slice.Restore(data); err != nil {
			log.Printf("Warning: failed to restore slice %q, starting empty: %v", slice.StateKey(), err)
		}
	}
}
