package transaction

import (
	"encoding/json"
	"testing"
	"time"
)

func sampleTx(id string, date time.Time) Transaction {
	return Transaction{
		TransactionID: id,
		Type:          TypeTransfer,
		Amount:        25.50,
		Description:   "consultation fee",
		Date:          date,
		Sender:        "user-1",
		Receiver:      "doc-1",
		Participants:  []string{"user-1", "doc-1"},
	}
}

// TestFetchSucceeded_OrdersNewestFirst tests that fetched transactions display newest first
func TestFetchSucceeded_OrdersNewestFirst(t *testing.T) {
	s, _ := NewSlice(nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.FetchSucceeded([]Transaction{
		sampleTx("tx-old", base.Add(-48*time.Hour)),
		sampleTx("tx-new", base),
		sampleTx("tx-mid", base.Add(-24*time.Hour)),
	})

	st := s.State()
	if len(st.Transactions) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(st.Transactions))
	}
	got := []string{st.Transactions[0].TransactionID, st.Transactions[1].TransactionID, st.Transactions[2].TransactionID}
	want := []string{"tx-new", "tx-mid", "tx-old"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected position %d to be '%s', got '%s'", i, want[i], got[i])
		}
	}
}

// TestFetchFailed_KeepsStaleList tests that a failed refresh keeps the last good list
func TestFetchFailed_KeepsStaleList(t *testing.T) {
	s, _ := NewSlice(nil)
	s.FetchSucceeded([]Transaction{sampleTx("tx-1", time.Now())})

	s.BeginFetch()
	s.FetchFailed("gateway timeout")

	st := s.State()
	if len(st.Transactions) != 1 {
		t.Errorf("Expected stale list kept, got %d entries", len(st.Transactions))
	}
	if st.Loading {
		t.Error("Expected loading cleared after failure")
	}
	if st.Error != "gateway timeout" {
		t.Errorf("Expected error 'gateway timeout', got '%s'", st.Error)
	}
}

// TestSetBalance tests that balance updates apply atomically
func TestSetBalance(t *testing.T) {
	s, _ := NewSlice(nil)
	s.SetBalance(150.75)

	if got := s.State().Balance; got != 150.75 {
		t.Errorf("Expected balance 150.75, got %.2f", got)
	}
}

// TestRestore_ClearsTransientFlags tests snapshot rehydration
func TestRestore_ClearsTransientFlags(t *testing.T) {
	s, _ := NewSlice(nil)
	s.FetchSucceeded([]Transaction{sampleTx("tx-1", time.Now().UTC())})
	s.SetBalance(99.99)
	s.BeginFetch()

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	restored, _ := NewSlice(nil)
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	st := restored.State()
	if len(st.Transactions) != 1 {
		t.Errorf("Expected 1 transaction restored, got %d", len(st.Transactions))
	}
	if st.Balance != 99.99 {
		t.Errorf("Expected balance 99.99, got %.2f", st.Balance)
	}
	if st.Loading {
		t.Error("Expected loading cleared on restore")
	}
}

// TestTypeDecoding_RejectsUnknown tests the closed transaction type set at the decoding edge
func TestTypeDecoding_RejectsUnknown(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"transaction_id":"tx-1","type":"refund"}`), &tx); err == nil {
		t.Error("Expected error for unknown transaction type")
	}

	if err := json.Unmarshal([]byte(`{"transaction_id":"tx-1","type":"load"}`), &tx); err != nil {
		t.Errorf("Expected no error for known type, got: %v", err)
	}
}
