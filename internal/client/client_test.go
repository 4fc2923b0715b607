package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	t.Parallel()

	t.Run("sets user agent and accept headers", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotAccept string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotAccept = r.Header.Get("Accept")
			_, _ = w.Write([]byte(`{"ok": true}`))
		}))
		defer srv.Close()

		body, err := Fetch(context.Background(), srv.Client(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"ok": true}` {
			t.Errorf("unexpected body %q", body)
		}
		if gotUA != UserAgent {
			t.Errorf("expected User-Agent %q, got %q", UserAgent, gotUA)
		}
		if gotAccept != "application/json" {
			t.Errorf("expected Accept application/json, got %q", gotAccept)
		}
	})

	t.Run("non-2xx is permanent and not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := Fetch(context.Background(), srv.Client(), srv.URL)
		if err == nil {
			t.Fatal("expected error for 403 response, got nil")
		}

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %T: %v", err, err)
		}
		if statusErr.StatusCode != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", statusErr.StatusCode)
		}
		if n := calls.Load(); n != 1 {
			t.Errorf("expected exactly 1 request for a permanent failure, got %d", n)
		}
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		t.Parallel()

		// The first two connections are dropped mid-response; the third
		// succeeds. Retry must carry the request through.
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) <= 2 {
				conn, _, err := w.(http.Hijacker).Hijack()
				if err == nil {
					_ = conn.Close()
				}
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		body, err := Fetch(context.Background(), srv.Client(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error after retries: %v", err)
		}
		if string(body) != "ok" {
			t.Errorf("unexpected body %q", body)
		}
		if n := calls.Load(); n != 3 {
			t.Errorf("expected 3 attempts, got %d", n)
		}
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := Fetch(ctx, srv.Client(), srv.URL); err == nil {
			t.Error("expected error with cancelled context, got nil")
		}
	})
}

func TestNewDisablesRedirects(t *testing.T) {
	t.Parallel()

	redirected := false
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			redirected = true
			_, _ = w.Write([]byte("followed"))
			return
		}
		http.Redirect(w, r, target.URL+"/final", http.StatusMovedPermanently)
	}))
	defer target.Close()

	c := New(5 * time.Second)
	_, err := Fetch(context.Background(), c, target.URL+"/start")
	if err == nil {
		t.Fatal("expected error: the redirect response is a non-2xx status")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusMovedPermanently {
		t.Errorf("expected status 301, got %d", statusErr.StatusCode)
	}
	if redirected {
		t.Error("client followed a redirect it should have refused")
	}
}
