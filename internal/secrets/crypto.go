package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Cipher seals and opens secret values with AES-GCM. There is deliberately no
// weaker fallback: a bad key is a construction error, not a silent downgrade.
type Cipher struct {
	block cipher.Block
}

// NewCipher validates the key and builds the cipher. The key must be 16, 24,
// or 32 bytes.
func NewCipher(key string) (*Cipher, error) {
	raw := []byte(key)
	switch len(raw) {
	case 16, 24, 32:
	default:
		return nil, errors.New("secrets encryption key must be 16, 24, or 32 bytes")
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, err
	}
	return &Cipher{block: block}, nil
}

// Encrypt seals plaintext and returns a url-safe base64 payload.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	gcm, err := cipher.NewGCM(c.block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	payload := append(nonce, ciphertext...)
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// Decrypt opens a payload produced by Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	gcm, err := cipher.NewGCM(c.block)
	if err != nil {
		return "", err
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	nonceSize := gcm.NonceSize()
	if len(payload) < nonceSize {
		return "", errors.New("invalid secret payload")
	}
	nonce, ciphertext := payload[:nonceSize], payload[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
