// Package social provides MCP tools to sync and inspect linked social
// accounts with the caller's bearer token.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-training/account-linker/pkg/account"
	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/core"
	"github.com/go-training/account-linker/pkg/session"
	"github.com/go-training/account-linker/pkg/store"

	"github.com/mark3labs/mcp-go/mcp"
)

// SyncSocialAccountTool triggers a resync of one platform.
var SyncSocialAccountTool = mcp.NewTool("sync_social_account",
	mcp.WithDescription("Ask the backend to resync a linked social account"),
	mcp.WithString("platform",
		mcp.Description("Platform name, e.g. instagram, linkedin, twitter"),
		mcp.Required(),
	),
)

// GetSocialAccountTool reads the snapshot of one platform.
var GetSocialAccountTool = mcp.NewTool("get_social_account",
	mcp.WithDescription("Show profile name, followers and last sync time of a linked social account"),
	mcp.WithString("platform",
		mcp.Description("Platform name, e.g. instagram, linkedin, twitter"),
		mcp.Required(),
	),
)

// ListSocialAccountsTool reads every platform.
var ListSocialAccountsTool = mcp.NewTool("list_social_accounts",
	mcp.WithDescription("List the link status of every supported social platform"),
)

// Tools holds what the handlers need to reach the backend.
type Tools struct {
	backend   *backend.Client
	platforms []string
}

// New creates Tools for the given platforms.
func New(b *backend.Client, platforms []string) *Tools {
	return &Tools{backend: b, platforms: platforms}
}

// client builds an account client around the caller's token. A missing
// token yields an unauthenticated session, so calls fail with
// account.ErrLoginRequired before reaching the backend.
func (t *Tools) client(ctx context.Context) *account.Client {
	s := session.NewBearer(store.NewMemoryStore())
	if token, err := core.TokenFromContext(ctx); err == nil {
		if err := s.SetToken(ctx, token); err != nil {
			core.LoggerFromCtx(ctx).Error("Failed to hold caller token", "error", err)
		}
	}
	return account.NewClient(t.backend, s)
}

func platformArg(request mcp.CallToolRequest) (string, error) {
	platform, ok := request.GetArguments()["platform"].(string)
	if !ok || strings.TrimSpace(platform) == "" {
		return "", fmt.Errorf("missing platform")
	}
	return platform, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

// HandleSyncSocialAccountTool triggers a resync.
func (t *Tools) HandleSyncSocialAccountTool(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	logger := core.LoggerFromCtx(ctx)
	platform, err := platformArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ack, err := t.client(ctx).TriggerSync(ctx, platform)
	if err != nil {
		logger.Warn("Sync failed", "platform", platform, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	logger.Info("Sync triggered", "platform", ack.Platform)
	return jsonResult(ack)
}

// HandleGetSocialAccountTool returns one snapshot.
func (t *Tools) HandleGetSocialAccountTool(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	platform, err := platformArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := t.client(ctx).FetchSnapshot(ctx, platform)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(snap)
}

// HandleListSocialAccountsTool probes every platform.
func (t *Tools) HandleListSocialAccountsTool(
	ctx context.Context,
	_ mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	ov, err := account.NewBoard(store.NewMemoryStore(), t.platforms...).Load(ctx, t.client(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResult(ov.Probes)
}
