package core

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a key is absent, including after it was consumed.
	ErrNotFound = errors.New("key not found")
	// ErrEmptyKey is returned when the key string is empty.
	ErrEmptyKey = errors.New("key cannot be empty")
)

// Store is the client-side key/value storage the linking flow persists its
// continuation state in. Values survive between the redirect to a provider
// and the redirect back, so a fresh process can resume the flow.
type Store interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	// Take returns the value and deletes it in one step. A second Take of
	// the same key returns ErrNotFound.
	Take(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Platform names accepted by the backend social endpoints.
const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformLinkedIn  = "linkedin"
	PlatformYouTube   = "youtube"
	PlatformSnapchat  = "snapchat"
	PlatformTwitter   = "twitter"
)

// AccountSnapshot is the normalized, read-only view of a linked account.
type AccountSnapshot struct {
	Platform       string    `json:"platform"`
	ProfileName    string    `json:"profileName"`
	FollowersCount int64     `json:"followersCount"`
	LastSyncedAt   time.Time `json:"lastSynced"`
}

// SyncAcknowledgement is the result of triggering a resync. The backend
// does not guarantee any payload beyond success.
type SyncAcknowledgement struct {
	Platform string `json:"platform"`
	Message  string `json:"message,omitempty"`
	Raw      []byte `json:"-"`
}
