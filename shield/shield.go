// Package shield holds the HTTP middleware stack in front of the leadscout
// read API: security headers, HEAD handling, request ids and a per-client
// rate limit.
//
// Usage:
//
//	r := chi.NewRouter()
//	rl, err := shield.NewRateLimiter(shield.RateLimitConfig{MaxRequests: 120, Window: time.Minute}, "/healthz")
//	for _, mw := range shield.APIStack(logger, rl) {
//	    r.Use(mw)
//	}
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// APIStack returns the middleware chain for the JSON API, outermost first.
// A nil rl disables rate limiting.
func APIStack(logger *slog.Logger, rl *RateLimiter) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(APIHeaders()),
		RequestID(logger),
	}
	if rl != nil {
		stack = append(stack, rl.Middleware)
	}
	return stack
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
