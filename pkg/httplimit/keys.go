package httplimit

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc extracts the identity a request is rate-limited against. It must
// be deterministic for the same logical caller and cheap to compute. An
// empty result means no identity could be extracted; the request passes
// through unlimited.
type KeyFunc func(*http.Request) string

// ByClientIP keys on the connection's remote address. It ignores proxy
// headers, which a client could set freely to escape its bucket; use
// TrustedClientIP when a trusted proxy terminates the connection.
func ByClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// TrustedClientIP prefers the first X-Forwarded-For hop and falls back to
// the remote address.
func TrustedClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	return ByClientIP(r)
}

// ByPath keys on the request path.
func ByPath(r *http.Request) string { return r.URL.Path }

// ByMethod keys on the HTTP method.
func ByMethod(r *http.Request) string { return r.Method }

// ByHeader keys on a request header, for example an API key or user id.
func ByHeader(name string) KeyFunc {
	return func(r *http.Request) string { return r.Header.Get(name) }
}

// ComposeKeys builds a composite identity from several extractors, joined
// with "|". If any part is empty the whole key is empty, so a request
// missing one component is not silently folded into a shared bucket.
func ComposeKeys(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			p := fn(r)
			if p == "" {
				return ""
			}
			parts = append(parts, p)
		}
		return strings.Join(parts, "|")
	}
}
