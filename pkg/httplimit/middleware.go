package httplimit

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/keybucket/keybucket/pkg/limiter"
)

const rejectionBody = "Rate limit exceeded."

// LimitedHandler produces the response for a denied request.
type LimitedHandler func(w http.ResponseWriter, r *http.Request, dec limiter.Decision)

type middlewareConfig struct {
	onLimited LimitedHandler
	log       zerolog.Logger
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithOnLimited overrides the rejection response. The default writes 429
// with a Retry-After header.
func WithOnLimited(h LimitedHandler) MiddlewareOption {
	return func(c *middlewareConfig) { c.onLimited = h }
}

// WithLogger attaches a zerolog logger for deny and skip events.
func WithLogger(l zerolog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) { c.log = l }
}

// Middleware rate-limits everything it wraps against a single store, using
// key to identify the caller. Requests whose key extracts empty are passed
// through unlimited rather than pooled into one shared bucket.
func Middleware(store *limiter.Store, key KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{
		onLimited: RejectWithRetryAfter,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				cfg.log.Debug().Str("path", r.URL.Path).Msg("identifier missing, skipping rate limit")
				next.ServeHTTP(w, r)
				return
			}

			dec := store.Allow(k)
			if !dec.Allow {
				cfg.log.Warn().Str("key", k).Str("path", r.URL.Path).Dur("retry_after", dec.RetryAfter).Msg("rate limit exceeded")
				cfg.onLimited(w, r, dec)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RejectWithRetryAfter is the default LimitedHandler: 429 Too Many Requests
// with a Retry-After header in (fractional) seconds.
func RejectWithRetryAfter(w http.ResponseWriter, r *http.Request, dec limiter.Decision) {
	w.Header().Set("Retry-After", fmt.Sprintf("%.2f", dec.RetryAfter.Seconds()))
	http.Error(w, rejectionBody, http.StatusTooManyRequests)
}
