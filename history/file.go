package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the history as a single JSON array of
// {"lat","lon","timestamp"} objects. Each append rewrites the file through a
// temporary file and a rename, so a reader never sees a partial array.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries []Entry
}

// OpenFileStore loads the history at path. A missing file is an empty
// history; an unreadable or corrupt file is an error.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: filepath.Clean(path)}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("%w: reading %s: %v", ErrPersistenceFailed, s.path, err)
	}

	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrPersistenceFailed, s.path, err)
	}
	return s, nil
}

// Append adds e and persists the full history. On failure the in-memory
// history is left as it was before the call, matching the file on disk.
func (s *FileStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Entry, len(s.entries), len(s.entries)+1)
	copy(next, s.entries)
	next = append(next, e)

	if err := s.write(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

// LoadAll returns a copy of the history in append order.
func (s *FileStore) LoadAll() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Close is a no-op; every append is already durable.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) write(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding history: %v", ErrPersistenceFailed, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrPersistenceFailed, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrPersistenceFailed, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: writing %s: %v", ErrPersistenceFailed, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: syncing %s: %v", ErrPersistenceFailed, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: closing %s: %v", ErrPersistenceFailed, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: replacing %s: %v", ErrPersistenceFailed, s.path, err)
	}
	return nil
}
