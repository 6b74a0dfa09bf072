// Package sealer provides Sealer implementations for secrets at rest.
package sealer

import (
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/invoicer/ports"
	"golang.org/x/crypto/chacha20poly1305"
)

const prefix = "xc1:"

// ErrMalformed is returned when a sealed value cannot be decoded.
var ErrMalformed = errors.New("sealed value is malformed")

// XChaCha seals secrets with XChaCha20-Poly1305 under a 32-byte key.
// Output is "xc1:" followed by base64url(nonce || ciphertext).
type XChaCha struct {
	aead   cipher.AEAD
	random ports.Random
}

// NewXChaCha creates a sealer from a raw 32-byte key.
func NewXChaCha(key []byte, random ports.Random) (*XChaCha, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init xchacha20-poly1305: %w", err)
	}
	return &XChaCha{aead: aead, random: random}, nil
}

// NewXChaChaHex creates a sealer from a hex-encoded key.
func NewXChaChaHex(hexKey string, random ports.Random) (*XChaCha, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return NewXChaCha(key, random)
}

// Seal encrypts plaintext. Empty input stays empty.
func (s *XChaCha) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce, err := s.random.Bytes(s.aead.NonceSize())
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (s *XChaCha) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	encoded, ok := strings.CutPrefix(sealed, prefix)
	if !ok {
		return "", ErrMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformed
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns+s.aead.Overhead() {
		return "", ErrMalformed
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return string(plain), nil
}

// Ensure interface compliance.
var _ ports.Sealer = (*XChaCha)(nil)

// Plain stores secrets unencrypted (when no key is configured).
type Plain struct{}

// Seal returns plaintext unchanged.
func (Plain) Seal(plaintext string) (string, error) {
	return plaintext, nil
}

// Open returns sealed unchanged.
func (Plain) Open(sealed string) (string, error) {
	return sealed, nil
}

// Ensure interface compliance.
var _ ports.Sealer = Plain{}
