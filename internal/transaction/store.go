package transaction

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/medipal-health/appstate-service/internal/store"
)

// State is the transaction partition of the application state: the last
// fetched transaction list (date descending), the displayed balance, and
// the request lifecycle flags. The server stays the source of truth; the
// list is only ever replaced by a fetch, never synthesized locally.
type State struct {
	Transactions []Transaction `json:"transactions"`
	Balance      float64       `json:"balance"`
	Loading      bool          `json:"loading"`
	Error        string        `json:"error"`
}

// Slice owns the transaction state. Mutations are atomic reducer
// applications under the slice lock.
type Slice struct {
	mu     sync.Mutex
	state  State
	notify func()
}

// NewSlice creates the transaction slice and registers it with the store.
// A nil store is allowed for isolated tests.
func NewSlice(st *store.Store) (*Slice, error) {
	s := &Slice{}
	if st != nil {
		if err := st.Register(s); err != nil {
			return nil, err
		}
		s.notify = func() { st.NotifyChanged(s.StateKey()) }
	}
	return s, nil
}

func (s *Slice) changed() {
	if s.notify != nil {
		s.notify()
	}
}

// State returns a copy of the current state.
func (s *Slice) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// BeginFetch marks a fetch in flight.
func (s *Slice) BeginFetch() {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()
	s.changed()
}

// FetchSucceeded replaces the list with the server's, ordered by date
// descending for display.
func (s *Slice) FetchSucceeded(items []Transaction) {
	sorted := copyTransactions(items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	s.mu.Lock()
	s.state.Transactions = sorted
	s.state.Loading = false
	s.state.Error = ""
	s.mu.Unlock()
	s.changed()
}

// FetchFailed records the error and keeps the stale list available.
func (s *Slice) FetchFailed(msg string) {
	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = msg
	s.mu.Unlock()
	s.changed()
}

// SetBalance applies the last known server-side balance.
func (s *Slice) SetBalance(balance float64) {
	s.mu.Lock()
	s.state.Balance = balance
	s.mu.Unlock()
	s.changed()
}

// StateKey implements store.Snapshotter.
func (s *Slice) StateKey() string { return "transactions" }

// Snapshot implements store.Snapshotter.
func (s *Slice) Snapshot() (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.state)
}

// Restore implements store.Snapshotter. Transient flags never survive a
// relaunch.
func (s *Slice) Restore(data json.RawMessage) error {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	st.Loading = false
	st.Error = ""
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

func copyTransactions(items []Transaction) []Transaction {
	out := make([]Transaction, len(items))
	for i, tx := range items {
		participants := make([]string, len(tx.Participants))
		copy(participants, tx.Participants)
		tx.Participants = participants
		out[i] = tx
	}
	return out
}

func copyState(st State) State {
	st.Transactions = copyTransactions(st.Transactions)
	return st
}

// Ensure Slice implements the snapshot contract
var _ store.Snapshotter = (*Slice)(nil)
