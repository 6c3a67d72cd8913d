package oauth

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-training/account-linker/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTokens_IssueAndVerify(t *testing.T) {
	ctx := context.Background()
	s := NewStateTokens(store.NewMemoryStore(), nil)

	token, err := s.Issue(ctx)
	require.NoError(t, err)
	assert.Len(t, token, 43)

	ok, err := s.Verify(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStateTokens_SingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewStateTokens(store.NewMemoryStore(), nil)

	token, err := s.Issue(ctx)
	require.NoError(t, err)

	ok, err := s.Verify(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Verify(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok, "replayed state must be rejected")
}

func TestStateTokens_MismatchConsumes(t *testing.T) {
	ctx := context.Background()
	s := NewStateTokens(store.NewMemoryStore(), nil)

	token, err := s.Issue(ctx)
	require.NoError(t, err)

	ok, err := s.Verify(ctx, "forged")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Verify(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok, "a failed verification deletes the stored state")
}

func TestStateTokens_OnlyLatestIsValid(t *testing.T) {
	ctx := context.Background()
	s := NewStateTokens(store.NewMemoryStore(), nil)

	first, err := s.Issue(ctx)
	require.NoError(t, err)
	second, err := s.Issue(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	ok, err := s.Verify(ctx, first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateTokens_EmptyAndMissing(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := NewStateTokens(mem, nil)

	ok, err := s.Verify(ctx, "anything")
	require.NoError(t, err)
	assert.False(t, ok, "nothing issued")

	require.NoError(t, mem.Put(ctx, stateKey, ""))
	ok, err = s.Verify(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok, "empty values never match")
}

func TestStateTokens_ShortRandomSource(t *testing.T) {
	s := NewStateTokens(store.NewMemoryStore(), bytes.NewReader([]byte{1, 2, 3}))

	_, err := s.Issue(context.Background())
	assert.Error(t, err)
}
