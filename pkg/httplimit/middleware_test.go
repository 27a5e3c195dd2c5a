package httplimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keybucket/keybucket/pkg/limiter"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func get(t *testing.T, h http.Handler, target, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("GET", target, nil)
	r.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_AllowsThenRejects(t *testing.T) {
	store, err := limiter.New(limiter.PerMinute(2))
	if err != nil {
		t.Fatal(err)
	}
	h := Middleware(store, ByClientIP)(okHandler())

	for i := 0; i < 2; i++ {
		if w := get(t, h, "/ping", "192.0.2.1:1000"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := get(t, h, "/ping", "192.0.2.1:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on rejection")
	}
	if body := w.Body.String(); body != rejectionBody+"\n" {
		t.Errorf("unexpected rejection body %q", body)
	}

	// A different caller is unaffected.
	if w := get(t, h, "/ping", "192.0.2.2:1000"); w.Code != http.StatusOK {
		t.Errorf("expected other client to pass, got %d", w.Code)
	}
}

func TestMiddleware_EmptyKeySkipsLimit(t *testing.T) {
	store, err := limiter.New(limiter.PerMinute(1))
	if err != nil {
		t.Fatal(err)
	}
	h := Middleware(store, ByHeader("X-Api-Key"))(okHandler())

	// No API key header: every request passes.
	for i := 0; i < 5; i++ {
		if w := get(t, h, "/ping", "192.0.2.1:1000"); w.Code != http.StatusOK {
			t.Fatalf("request %d without identifier should pass, got %d", i+1, w.Code)
		}
	}
}

func TestMiddleware_WithOnLimited(t *testing.T) {
	store, err := limiter.New(limiter.PerMinute(1))
	if err != nil {
		t.Fatal(err)
	}

	h := Middleware(store, ByClientIP, WithOnLimited(func(w http.ResponseWriter, r *http.Request, dec limiter.Decision) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))(okHandler())

	get(t, h, "/ping", "192.0.2.1:1000")
	w := get(t, h, "/ping", "192.0.2.1:1000")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected custom rejection status, got %d", w.Code)
	}
}
