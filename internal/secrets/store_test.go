package secrets

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef" // 32 bytes

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(testKey)
	require.NoError(t, err)
	return c
}

func TestCipherRoundTrip(t *testing.T) {
	c := newTestCipher(t)
	for _, plaintext := range []string{"", "T", "a bearer token !@#$%^&*()_+", "0123456789"} {
		sealed, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		opened, err := c.Decrypt(sealed)
		require.NoError(t, err)
		require.Equal(t, plaintext, opened)
	}
}

func TestCipherRejectsBadKey(t *testing.T) {
	_, err := NewCipher("short")
	require.Error(t, err)
}

func TestCipherRejectsTamperedPayload(t *testing.T) {
	c := newTestCipher(t)
	sealed, err := c.Encrypt("secret")
	require.NoError(t, err)
	_, err = c.Decrypt(sealed[:len(sealed)-2] + "zz")
	require.Error(t, err)
}

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	cipher := newTestCipher(t)
	file, err := NewFileStore(filepath.Join(t.TempDir(), "secrets.json"), cipher)
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemoryStore(cipher),
		"file":   file,
	}
}

func TestSaveGetDeleteEncrypted(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(ctx, "session.token", "T-123", SaveOptions{Encrypt: true})
			require.NoError(t, err)

			value, ok, err := store.Get(ctx, "session.token", GetOptions{Encrypt: true})
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "T-123", value)

			require.NoError(t, store.Delete(ctx, "session.token"))
			_, ok, err = store.Get(ctx, "session.token", GetOptions{Encrypt: true})
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestExpiredRecordDeletedLazily(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(ctx, "k", "v", SaveOptions{ExpiresAt: time.Now().Add(-time.Minute)})
			require.NoError(t, err)

			_, ok, err := store.Get(ctx, "k", GetOptions{})
			require.NoError(t, err)
			require.False(t, ok)

			// second read is a plain miss, nothing left to delete
			_, ok, err = store.Get(ctx, "k", GetOptions{})
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cipher := newTestCipher(t)
	path := filepath.Join(t.TempDir(), "secrets.json")

	first, err := NewFileStore(path, cipher)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "k", "persisted", SaveOptions{Encrypt: true}))

	second, err := NewFileStore(path, cipher)
	require.NoError(t, err)
	value, ok, err := second.Get(ctx, "k", GetOptions{Encrypt: true})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "persisted", value)
}

func TestEncryptWithoutCipherFails(t *testing.T) {
	store := NewMemoryStore(nil)
	err := store.Save(context.Background(), "k", "v", SaveOptions{Encrypt: true})
	require.Error(t, err)
}
