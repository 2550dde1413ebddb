package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// SaveSnapshot writes the current state tree to path. The file is written to
// a temp file first and renamed into place so a crash mid-write never leaves
// a truncated snapshot.
func (s *Store) SaveSnapshot(path string) error {
	tree, err := s.SnapshotTree()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state tree: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".appstate-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot rehydrates the store from a snapshot file. A missing file is
// not an error: first launch starts from empty state. A corrupt file is
// logged and ignored for the same reason.
func (s *Store) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var tree map[string]json.RawMessage
	if err := json.Unmarshal(data, &tree); err != nil {
		log.Printf("Warning: snapshot at %s is corrupt, starting empty: %v", path, err)
		return nil
	}

	s.RestoreTree(tree)
	return nil
}
