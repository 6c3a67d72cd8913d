package oauth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/go-training/account-linker/pkg/core"
)

// stateKey is where the single outstanding anti-forgery token lives.
const stateKey = "oauth_state"

// StateTokens issues and verifies single-use anti-forgery tokens. Only the
// most recently issued token is valid; issuing again overwrites it.
type StateTokens struct {
	store core.Store
	rand  io.Reader
}

// NewStateTokens creates a StateTokens backed by store. A nil random source
// defaults to crypto/rand.
func NewStateTokens(store core.Store, random io.Reader) *StateTokens {
	if random == nil {
		random = rand.Reader
	}
	return &StateTokens{store: store, rand: random}
}

// Issue generates, persists and returns a fresh token.
func (s *StateTokens) Issue(ctx context.Context) (string, error) {
	token, err := randomString(s.rand, 32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := s.store.Put(ctx, stateKey, token); err != nil {
		return "", fmt.Errorf("persist state: %w", err)
	}
	return token, nil
}

// Verify consumes the persisted token and reports whether it equals
// received. The token is deleted whatever the outcome.
func (s *StateTokens) Verify(ctx context.Context, received string) (bool, error) {
	stored, err := s.store.Take(ctx, stateKey)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read state: %w", err)
	}
	if received == "" || stored == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(received)) == 1, nil
}

func randomString(r io.Reader, n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
