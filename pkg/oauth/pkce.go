package oauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/go-training/account-linker/pkg/core"

	"golang.org/x/oauth2"
)

// verifierBytes is the amount of randomness behind each verifier.
const verifierBytes = 32

// PKCEPair is a code verifier and its S256 challenge.
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// PKCEGenerator produces verifier/challenge pairs. It has no storage of its
// own; callers persist the verifier through Verifiers.
type PKCEGenerator struct {
	rand io.Reader
}

// NewPKCEGenerator returns a generator reading from random, or from
// crypto/rand when random is nil.
func NewPKCEGenerator(random io.Reader) *PKCEGenerator {
	if random == nil {
		random = rand.Reader
	}
	return &PKCEGenerator{rand: random}
}

// Generate reads 32 bytes for the verifier and derives
// challenge = base64url(SHA-256(verifier)), both without padding.
func (g *PKCEGenerator) Generate() (PKCEPair, error) {
	verifier, err := randomString(g.rand, verifierBytes)
	if err != nil {
		return PKCEPair{}, fmt.Errorf("generate pkce verifier: %w", err)
	}
	return PKCEPair{
		Verifier:  verifier,
		Challenge: oauth2.S256ChallengeFromVerifier(verifier),
	}, nil
}

// Verifiers persists one single-use verifier per provider.
type Verifiers struct {
	store core.Store
}

// NewVerifiers creates a Verifiers backed by store.
func NewVerifiers(store core.Store) *Verifiers {
	return &Verifiers{store: store}
}

func verifierKey(providerID string) string {
	return "pkce_verifier:" + providerID
}

// Save stores verifier for providerID, replacing any earlier one.
func (v *Verifiers) Save(ctx context.Context, providerID, verifier string) error {
	if err := v.store.Put(ctx, verifierKey(providerID), verifier); err != nil {
		return fmt.Errorf("persist pkce verifier for %s: %w", providerID, err)
	}
	return nil
}

// Consume returns and deletes the verifier for providerID. An absent
// verifier, including one already consumed, yields ErrPKCEVerifierMissing.
func (v *Verifiers) Consume(ctx context.Context, providerID string) (string, error) {
	verifier, err := v.store.Take(ctx, verifierKey(providerID))
	if errors.Is(err, core.ErrNotFound) || (err == nil && verifier == "") {
		return "", ErrPKCEVerifierMissing
	}
	if err != nil {
		return "", fmt.Errorf("read pkce verifier for %s: %w", providerID, err)
	}
	return verifier, nil
}
