package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-training/account-linker/pkg/account"
	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/core"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTools(t *testing.T) (*Tools, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/social/account/{platform}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer jwt" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.PathValue("platform") != "linkedin" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"platform":"linkedin","profileName":"Gopher","followersCount":42,"lastSynced":"2024-05-01T10:00:00Z"}`))
	})
	mux.HandleFunc("POST /api/social/sync/{platform}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"message":"Sync started"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	b, err := backend.NewClient(srv.URL + "/api")
	require.NoError(t, err)
	return New(b, []string{core.PlatformLinkedIn, core.PlatformTwitter}), &hits
}

func authed() context.Context {
	r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	r.Header.Set("Authorization", "Bearer jwt")
	return core.AuthFromRequest(context.Background(), r)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	txt, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return txt.Text
}

func TestHandleGetSocialAccountTool(t *testing.T) {
	tools, _ := newTools(t)

	res, err := tools.HandleGetSocialAccountTool(authed(), callRequest("get_social_account", map[string]any{"platform": "linkedin"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var snap core.AccountSnapshot
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &snap))
	assert.Equal(t, "Gopher", snap.ProfileName)
	assert.EqualValues(t, 42, snap.FollowersCount)
}

func TestHandleGetSocialAccountTool_NotConnected(t *testing.T) {
	tools, _ := newTools(t)

	res, err := tools.HandleGetSocialAccountTool(authed(), callRequest("get_social_account", map[string]any{"platform": "twitter"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, account.ErrNotConnected.Error(), text(t, res))
}

func TestHandleSyncSocialAccountTool(t *testing.T) {
	tools, _ := newTools(t)

	res, err := tools.HandleSyncSocialAccountTool(authed(), callRequest("sync_social_account", map[string]any{"platform": "linkedin"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"platform":"linkedin","message":"Sync started"}`, text(t, res))
}

func TestHandlers_MissingToken(t *testing.T) {
	tools, hits := newTools(t)

	res, err := tools.HandleSyncSocialAccountTool(context.Background(), callRequest("sync_social_account", map[string]any{"platform": "linkedin"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "please login", text(t, res))
	assert.Zero(t, hits.Load())
}

func TestHandlers_MissingPlatform(t *testing.T) {
	tools, _ := newTools(t)

	res, err := tools.HandleGetSocialAccountTool(authed(), callRequest("get_social_account", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "missing platform", text(t, res))
}

func TestHandleListSocialAccountsTool(t *testing.T) {
	tools, _ := newTools(t)

	res, err := tools.HandleListSocialAccountsTool(authed(), callRequest("list_social_accounts", nil))
	require.NoError(t, err)

	var probes []account.Probe
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &probes))
	require.Len(t, probes, 2)
	assert.Equal(t, "linkedin", probes[0].Platform)
	assert.Equal(t, account.StatusConnected, probes[0].Status)
	assert.Equal(t, "twitter", probes[1].Platform)
	assert.Equal(t, account.StatusNotConnected, probes[1].Status)
}
