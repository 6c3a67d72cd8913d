package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// AuthKey is a custom context key type for storing the auth token in context.
type AuthKey struct{}

// RequestIDKey is a custom context key type for storing the request ID in context.
type RequestIDKey struct{}

// DeviceKey is a custom context key type for storing the device ID in context.
type DeviceKey struct{}

// WithRequestID returns a new context with a generated request ID set.
func WithRequestID(ctx context.Context) context.Context {
	reqID := uuid.New().String()
	return context.WithValue(ctx, RequestIDKey{}, reqID)
}

// RequestIDFromCtx returns the request ID stored in the context, if any.
func RequestIDFromCtx(ctx context.Context) string {
	reqID, _ := ctx.Value(RequestIDKey{}).(string)
	return reqID
}

// WithDevice returns a new context carrying the browser device ID.
func WithDevice(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, DeviceKey{}, deviceID)
}

// withAuthKey returns a new context with the provided auth token set.
func withAuthKey(ctx context.Context, auth string) context.Context {
	return context.WithValue(ctx, AuthKey{}, auth)
}

// AuthFromRequest extracts the Authorization header from the HTTP request
// and stores it in the context. Used for HTTP transport.
func AuthFromRequest(ctx context.Context, r *http.Request) context.Context {
	return withAuthKey(ctx, r.Header.Get("Authorization"))
}

// TokenFromContext retrieves the bearer token from the context, stripping
// an optional "Bearer " prefix. Returns an error if missing or empty.
func TokenFromContext(ctx context.Context) (string, error) {
	auth, ok := ctx.Value(AuthKey{}).(string)
	if !ok {
		return "", fmt.Errorf("missing auth")
	}
	token := strings.TrimSpace(auth)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", fmt.Errorf("empty auth")
	}
	return token, nil
}

// LoggerFromCtx returns a slog.Logger with request_id and device fields if
// present in context. Otherwise it returns the default logger.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := RequestIDFromCtx(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if device, _ := ctx.Value(DeviceKey{}).(string); device != "" {
		logger = logger.With("device", device)
	}
	return logger
}
