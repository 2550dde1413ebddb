package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

type fakeSlice struct {
	key      string
	value    string
	restored []string
	failNext bool
}

func (f *fakeSlice) StateKey() string { return f.key }

func (f *fakeSlice) Snapshot() (json.RawMessage, error) {
	if f.failNext {
		return nil, errors.New("snapshot failed")
	}
	return json.Marshal(f.value)
}

func (f *fakeSlice) Restore(data json.RawMessage) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.value = v
	f.restored = append(f.restored, v)
	return nil
}

// TestRegister_DuplicateKey tests that two slices cannot share a state key
func TestRegister_DuplicateKey(t *testing.T) {
	s := New()
	if err := s.Register(&fakeSlice{key: "prescriptions"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := s.Register(&fakeSlice{key: "prescriptions"}); err == nil {
		t.Error("Expected duplicate key error, got nil")
	}
}

// TestSubscribe_NotifyOrder tests change notifications fire in dispatch order
func TestSubscribe_NotifyOrder(t *testing.T) {
	s := New()

	var seen []string
	unsub := s.Subscribe(func(key string) {
		seen = append(seen, key)
	})

	s.NotifyChanged("transactions")
	s.NotifyChanged("prescriptions")

	if len(seen) != 2 || seen[0] != "transactions" || seen[1] != "prescriptions" {
		t.Errorf("Expected notifications in dispatch order, got %v", seen)
	}

	unsub()
	s.NotifyChanged("transactions")
	if len(seen) != 2 {
		t.Errorf("Expected no notification after unsubscribe, got %d", len(seen))
	}
}

// TestSnapshot_RoundTrip tests save then load restores every slice
func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appstate.json")

	s := New()
	a := &fakeSlice{key: "prescriptions", value: "rx-state"}
	b := &fakeSlice{key: "transactions", value: "tx-state"}
	if err := s.Register(a); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := s.Register(b); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := s.SaveSnapshot(path); err != nil {
		t.Fatalf("Expected no error saving, got: %v", err)
	}

	s2 := New()
	a2 := &fakeSlice{key: "prescriptions"}
	b2 := &fakeSlice{key: "transactions"}
	s2.Register(a2)
	s2.Register(b2)

	if err := s2.LoadSnapshot(path); err != nil {
		t.Fatalf("Expected no error loading, got: %v", err)
	}
	if a2.value != "rx-state" {
		t.Errorf("Expected prescriptions slice restored, got '%s'", a2.value)
	}
	if b2.value != "tx-state" {
		t.Errorf("Expected transactions slice restored, got '%s'", b2.value)
	}
}

// TestLoadSnapshot_MissingFile tests first launch starts empty without error
func TestLoadSnapshot_MissingFile(t *testing.T) {
	s := New()
	slice := &fakeSlice{key: "prescriptions"}
	s.Register(slice)

	if err := s.LoadSnapshot(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("Expected no error for missing snapshot, got: %v", err)
	}
	if len(slice.restored) != 0 {
		t.Error("Expected no restore calls for missing snapshot")
	}
}

// TestRestoreTree_UnknownKeysIgnored tests old snapshots never block launch
func TestRestoreTree_UnknownKeysIgnored(t *testing.T) {
	s := New()
	slice := &fakeSlice{key: "prescriptions"}
	s.Register(slice)

	tree := map[string]json.RawMessage{
		"prescriptions": json.RawMessage(`"rx"`),
		"legacy_modals": json.RawMessage(`{"open":true}`),
	}
	s.RestoreTree(tree)

	if slice.value != "rx" {
		t.Errorf("Expected known slice restored, got '%s'", slice.value)
	}
}

// TestSaveSnapshot_SliceError tests a failing slice surfaces the error
func TestSaveSnapshot_SliceError(t *testing.T) {
	s := New()
	s.Register(&fakeSlice{key: "prescriptions", failNext: true})

	err := s.SaveSnapshot(filepath.Join(t.TempDir(), "appstate.json"))
	if err == nil {
		t.Error("Expected snapshot error, got nil")
	}
}
