package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"canteen-backend/internal/apperr"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCacheHitSkipsNetwork(t *testing.T) {
	var hits int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"n":1}`))
	})
	c := New(srv.Client(), nil)
	opts := Options{CacheKey: "menu:t1", CacheTTL: time.Minute}

	for i := 0; i < 3; i++ {
		resp, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, opts)
		if err != nil {
			t.Fatal(err)
		}
		if !resp.OK() {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestForceRefreshBypassesCache(t *testing.T) {
	var hits int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("ok"))
	})
	c := New(srv.Client(), nil)
	opts := Options{CacheKey: "k", CacheTTL: time.Minute}

	c.Do(context.Background(), http.MethodGet, srv.URL, nil, opts)
	opts.ForceRefresh = true
	c.Do(context.Background(), http.MethodGet, srv.URL, nil, opts)
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("server hit %d times, want 2", got)
	}

	// The refreshed response replaced the entry.
	opts.ForceRefresh = false
	c.Do(context.Background(), http.MethodGet, srv.URL, nil, opts)
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("refreshed entry not cached: %d hits", got)
	}
}

func TestWritesAreNotCached(t *testing.T) {
	var hits int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("ok"))
	})
	c := New(srv.Client(), nil)
	opts := Options{CacheKey: "orders"}

	c.Do(context.Background(), http.MethodPost, srv.URL, []byte(`{}`), opts)
	c.Do(context.Background(), http.MethodPost, srv.URL, []byte(`{}`), opts)
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("POST cached: %d hits, want 2", got)
	}
}

func TestBearerInjection(t *testing.T) {
	var auth string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	})
	c := New(srv.Client(), func() string { return "tok-123" })

	if _, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, Options{}); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestBackendUnavailableIsTransient(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"code":"BACKEND_UNAVAILABLE"}`))
	})
	c := New(srv.Client(), nil)

	_, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, Options{})
	if !apperr.IsKind(err, apperr.Transient) {
		t.Fatalf("want transient error, got %v", err)
	}
	if apperr.CodeOf(err) != CodeBackendUnavailable {
		t.Errorf("code = %q", apperr.CodeOf(err))
	}
}

func TestConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(nil, nil)
	_, err := c.Do(context.Background(), http.MethodGet, url, nil, Options{})
	if !apperr.IsKind(err, apperr.Transient) {
		t.Fatalf("want transient error, got %v", err)
	}
	if apperr.CodeOf(err) != CodeBackendUnavailable {
		t.Errorf("code = %q", apperr.CodeOf(err))
	}
}

func TestPlainErrorsAreNotTransient(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad"}`))
	})
	c := New(srv.Client(), nil)

	resp, err := c.Do(context.Background(), http.MethodGet, srv.URL, nil, Options{})
	if err != nil {
		t.Fatalf("4xx should pass through, got %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
