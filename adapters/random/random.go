// Package random provides Random implementations.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/artpar/invoicer/ports"
)

// Real uses crypto/rand for secure randomness.
type Real struct{}

// Bytes generates n cryptographically secure random bytes.
func (Real) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Token generates a random hex string of n characters.
func (r Real) Token(n int) (string, error) {
	return hexToken(r.Bytes, n)
}

var _ ports.Random = Real{}

// Fake provides deterministic randomness for testing.
type Fake struct {
	mu      sync.Mutex
	counter int
}

// NewFake creates a fake random source.
func NewFake() *Fake {
	return &Fake{}
}

// Bytes returns deterministic bytes derived from a call counter, so
// successive calls differ but runs repeat.
func (f *Fake) Bytes(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.counter++
	b := make([]byte, n)
	for i := range b {
		b[i] = byte((f.counter + i) % 256)
	}
	return b, nil
}

// Token returns a deterministic hex string.
func (f *Fake) Token(n int) (string, error) {
	return hexToken(f.Bytes, n)
}

var _ ports.Random = (*Fake)(nil)

func hexToken(source func(int) ([]byte, error), n int) (string, error) {
	b, err := source((n + 1) / 2)
	if err != nil {
		return "", err
	}
	s := hex.EncodeToString(b)
	if len(s) > n {
		s = s[:n]
	}
	return s, nil
}
