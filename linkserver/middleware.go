package main

import (
	"net/http"
	"strings"

	"github.com/go-training/account-linker/pkg/core"

	"github.com/gin-gonic/gin"
)

// corsMiddleware answers preflights and sets CORS headers. With an empty
// allowlist every origin is accepted without credentials; otherwise only
// listed origins are echoed back, with credentials allowed.
func corsMiddleware(allowedOrigins []string, allowedHeaders ...string) gin.HandlerFunc {
	defaultHeaders := []string{"Mcp-Protocol-Version", "Authorization", "Content-Type"}
	headersList := defaultHeaders
	for _, h := range allowedHeaders {
		hNorm := strings.TrimSpace(h)
		if hNorm != "" && hNorm != "*" && !containsCI(headersList, hNorm) {
			headersList = append(headersList, hNorm)
		}
	}

	allowedMethods := []string{"GET", "POST", "DELETE", "OPTIONS"}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(allowedOrigins) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && containsCI(allowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", strings.Join(allowedMethods, ", "))
		c.Header("Access-Control-Allow-Headers", strings.Join(headersList, ", "))
		c.Header("Access-Control-Max-Age", "86400")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authMiddleware checks the HTTP Authorization header, aborts if missing
func authMiddleware(c *gin.Context) {
	if c.GetHeader("Authorization") == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Next()
}

// requestIDMiddleware tags the request context with a fresh request id and
// echoes it in the X-Request-ID response header.
func requestIDMiddleware(c *gin.Context) {
	ctx := core.WithRequestID(c.Request.Context())
	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Request-ID", core.RequestIDFromCtx(ctx))
	c.Next()
}

// containsCI checks if slice contains item (case-insensitive).
func containsCI(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
