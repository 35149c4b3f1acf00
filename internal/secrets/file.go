package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists records in a single JSON file, rewritten atomically on
// every mutation. Suited to device-local credential storage.
type FileStore struct {
	mu     sync.Mutex
	path   string
	cipher *Cipher
}

// NewFileStore builds the file backend at the given path.
func NewFileStore(path string, cipher *Cipher) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("secrets file path cannot be empty")
	}
	return &FileStore{path: path, cipher: cipher}, nil
}

func (s *FileStore) Save(_ context.Context, key, value string, opts SaveOptions) error {
	rec, err := encodeRecord(s.cipher, value, opts)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	records[key] = rec
	return s.persist(records)
}

func (s *FileStore) Get(_ context.Context, key string, _ GetOptions) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return "", false, err
	}
	rec, ok := records[key]
	if !ok {
		return "", false, nil
	}
	if rec.expired(time.Now()) {
		delete(records, key)
		if err := s.persist(records); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	value, err := decodeRecord(s.cipher, rec)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[key]; !ok {
		return nil
	}
	delete(records, key)
	return s.persist(records)
}

func (s *FileStore) load() (map[string]record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]record), nil
		}
		return nil, fmt.Errorf("read secrets file: %w", err)
	}
	records := make(map[string]record)
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}
	return records, nil
}

func (s *FileStore) persist(records map[string]record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode secrets file: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".secrets-*")
	if err != nil {
		return fmt.Errorf("create temp secrets file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write secrets file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod secrets file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close secrets file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace secrets file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
