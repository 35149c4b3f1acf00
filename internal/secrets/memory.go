package secrets

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory, for tests and throwaway runs.
type MemoryStore struct {
	mu      sync.Mutex
	cipher  *Cipher
	records map[string]record
}

// NewMemoryStore constructs the in-memory backend. The cipher may be nil when
// encryption is never requested.
func NewMemoryStore(cipher *Cipher) *MemoryStore {
	return &MemoryStore{cipher: cipher, records: make(map[string]record)}
}

func (s *MemoryStore) Save(_ context.Context, key, value string, opts SaveOptions) error {
	rec, err := encodeRecord(s.cipher, value, opts)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string, _ GetOptions) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return "", false, nil
	}
	if rec.expired(time.Now()) {
		delete(s.records, key)
		return "", false, nil
	}
	value, err := decodeRecord(s.cipher, rec)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
