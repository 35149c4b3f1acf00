package secrets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore keeps records in a Valkey-compatible database. Server-side
// consumers of the SDK use it to share sessions across processes.
type ValkeyStore struct {
	client valkey.Client
	cipher *Cipher
	prefix string
}

// NewValkeyStore constructs the Valkey backend.
func NewValkeyStore(client valkey.Client, cipher *Cipher, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "dope"
	}
	return &ValkeyStore{client: client, cipher: cipher, prefix: prefix}
}

func (s *ValkeyStore) Save(ctx context.Context, key, value string, opts SaveOptions) error {
	rec, err := encodeRecord(s.cipher, value, opts)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.recordKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl := time.Until(opts.ExpiresAt); !opts.ExpiresAt.IsZero() && ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Get(ctx context.Context, key string, _ GetOptions) (string, bool, error) {
	result := s.client.Do(ctx, s.client.B().Get().Key(s.recordKey(key)).Build())
	payload, err := result.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	var rec record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return "", false, err
	}
	// Valkey expires keys on its own, but the record marker is still honored
	// in case clocks disagree.
	if rec.expired(time.Now()) {
		_ = s.client.Do(ctx, s.client.B().Del().Key(s.recordKey(key)).Build()).Error()
		return "", false, nil
	}
	value, err := decodeRecord(s.cipher, rec)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *ValkeyStore) Delete(ctx context.Context, key string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.recordKey(key)).Build()).Error()
}

func (s *ValkeyStore) recordKey(key string) string {
	return s.prefix + ":secret:" + key
}

var _ Store = (*ValkeyStore)(nil)
