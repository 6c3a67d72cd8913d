// Package account triggers resyncs and reads snapshots of linked social
// accounts through the backend, on behalf of one browser session.
package account

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-training/account-linker/pkg/backend"
	"github.com/go-training/account-linker/pkg/core"
	"github.com/go-training/account-linker/pkg/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/go-training/account-linker/pkg/account"

// Client calls the backend social endpoints with the session's credential.
type Client struct {
	backend *backend.Client
	session session.Store
	tracer  trace.Tracer
}

// NewClient creates a Client.
func NewClient(b *backend.Client, s session.Store) *Client {
	return &Client{
		backend: b,
		session: s,
		tracer:  otel.Tracer(instrumentationName),
	}
}

// TriggerSync asks the backend to refresh platform's data.
func (c *Client) TriggerSync(ctx context.Context, platform string) (*core.SyncAcknowledgement, error) {
	ctx, span := c.tracer.Start(ctx, "account.TriggerSync")
	defer span.End()
	platform = normalizePlatform(platform)

	resp, err := c.call(ctx, http.MethodPost, "/social/sync/", platform)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}

	ack := &core.SyncAcknowledgement{Platform: platform, Raw: resp.Body}
	var payload struct {
		Message string `json:"message"`
	}
	if resp.Decode(&payload) == nil {
		ack.Message = payload.Message
	}
	endSpan(span, nil)
	return ack, nil
}

// FetchSnapshot reads the stored snapshot of platform.
func (c *Client) FetchSnapshot(ctx context.Context, platform string) (*core.AccountSnapshot, error) {
	ctx, span := c.tracer.Start(ctx, "account.FetchSnapshot")
	defer span.End()
	platform = normalizePlatform(platform)

	resp, err := c.call(ctx, http.MethodGet, "/social/account/", platform)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}

	var snap core.AccountSnapshot
	if err := resp.Decode(&snap); err != nil {
		endSpan(span, err)
		return nil, err
	}
	if snap.Platform == "" {
		snap.Platform = platform
	}
	endSpan(span, nil)
	return &snap, nil
}

func (c *Client) call(ctx context.Context, method, prefix, platform string) (*backend.Response, error) {
	AddRequestAttributes(ctx, attribute.String("account.platform", platform))

	if platform == "" {
		return nil, fmt.Errorf("platform is required")
	}
	if !c.session.IsAuthenticated(ctx) {
		return nil, ErrLoginRequired
	}

	resp, err := c.backend.Do(ctx, backend.Request{
		Method: method,
		Path:   prefix + platform,
		Auth:   c.session,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", platform, err)
	}
	AddRequestAttributes(ctx, attribute.Int("http.response.status_code", resp.StatusCode))

	return resp, c.classify(ctx, platform, resp)
}

func (c *Client) classify(ctx context.Context, platform string, resp *backend.Response) error {
	switch {
	case resp.OK():
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotConnected
	case resp.StatusCode == http.StatusUnauthorized:
		if err := c.session.Forget(ctx); err != nil {
			core.LoggerFromCtx(ctx).Error("Failed to clear rejected session", "error", err)
		}
		return ErrUnauthenticated
	default:
		return &TransientFetchError{
			Platform: platform,
			Status:   resp.StatusCode,
			Message:  resp.Message(),
		}
	}
}

func normalizePlatform(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetAttributes(attribute.String("account.status", Classify(err)))
	if Classify(err) == StatusFailed {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
