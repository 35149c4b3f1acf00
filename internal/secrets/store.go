// Package secrets implements the secure key-value store the SDK keeps
// credentials in. Records carry their own expiration and encryption markers;
// an expired record is never returned and is deleted on the read that finds it.
package secrets

import (
	"context"
	"fmt"
	"time"
)

// SaveOptions controls how a value is persisted.
type SaveOptions struct {
	Encrypt   bool
	ExpiresAt time.Time
}

// GetOptions mirrors the save-side intent. Decryption follows the stored
// record's own marker, so a value saved encrypted is always decrypted.
type GetOptions struct {
	Encrypt bool
}

// Store is the secure key-value contract shared by all backends.
type Store interface {
	Save(ctx context.Context, key, value string, opts SaveOptions) error
	Get(ctx context.Context, key string, opts GetOptions) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// record is the persisted shape: {value, expiration?, encrypted?}.
type record struct {
	Value      string `json:"value"`
	Expiration int64  `json:"expiration,omitempty"` // epoch millis
	Encrypted  bool   `json:"encrypted,omitempty"`
}

func encodeRecord(c *Cipher, value string, opts SaveOptions) (record, error) {
	rec := record{Value: value}
	if opts.Encrypt {
		if c == nil {
			return record{}, fmt.Errorf("encryption requested but no cipher configured")
		}
		sealed, err := c.Encrypt(value)
		if err != nil {
			return record{}, fmt.Errorf("encrypt secret: %w", err)
		}
		rec.Value = sealed
		rec.Encrypted = true
	}
	if !opts.ExpiresAt.IsZero() {
		rec.Expiration = opts.ExpiresAt.UnixMilli()
	}
	return rec, nil
}

func decodeRecord(c *Cipher, rec record) (string, error) {
	if !rec.Encrypted {
		return rec.Value, nil
	}
	if c == nil {
		return "", fmt.Errorf("record is encrypted but no cipher configured")
	}
	value, err := c.Decrypt(rec.Value)
	if err != nil {
		return "", fmt.Errorf("decrypt secret: %w", err)
	}
	return value, nil
}

func (r record) expired(now time.Time) bool {
	return r.Expiration > 0 && r.Expiration <= now.UnixMilli()
}
