package version

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		published   string
		wantMinimum string
		wantErr     bool
	}{
		{
			name:        "minor decremented by one",
			published:   "0.16.3",
			wantMinimum: "0.15.3",
		},
		{
			name:        "leading v stripped",
			published:   "v0.19.5",
			wantMinimum: "0.18.5",
		},
		{
			name:        "surrounding whitespace tolerated",
			published:   " 0.16.3\n",
			wantMinimum: "0.15.3",
		},
		{
			name:        "zero minor used as-is",
			published:   "1.0.2",
			wantMinimum: "1.0.2",
		},
		{
			name:        "release candidate suffix kept",
			published:   "0.19.0-rc.1",
			wantMinimum: "0.18.0-rc.1",
		},
		{
			name:      "garbage rejected",
			published: "latest",
			wantErr:   true,
		},
		{
			name:      "empty rejected",
			published: "",
			wantErr:   true,
		},
		{
			name:      "two-component version rejected",
			published: "0.16",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gate, err := NewGate(tt.published)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got nil", tt.published)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gate.Minimum() != tt.wantMinimum {
				t.Errorf("expected minimum %q, got %q", tt.wantMinimum, gate.Minimum())
			}
		})
	}
}

func TestGateAccepts(t *testing.T) {
	t.Parallel()

	// Published 0.16.3 makes 0.15.3 the boundary: it is the oldest
	// accepted version, and 0.15.2 is the newest rejected one.
	gate, err := NewGate("0.16.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		reported string
		want     bool
	}{
		{name: "exactly the minimum", reported: "0.15.3", want: true},
		{name: "the published version itself", reported: "0.16.3", want: true},
		{name: "newer than published", reported: "0.17.0", want: true},
		{name: "one patch below the minimum", reported: "0.15.2", want: false},
		{name: "one minor below the minimum", reported: "0.14.9", want: false},
		{name: "leading v accepted", reported: "v0.16.1", want: true},
		{name: "unparseable fails closed", reported: "unknown", want: false},
		{name: "empty fails closed", reported: "", want: false},
		{name: "pre-release above minimum accepted", reported: "0.16.0-rc.2", want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := gate.Accepts(tt.reported); got != tt.want {
				t.Errorf("Accepts(%q) = %v, want %v", tt.reported, got, tt.want)
			}
		})
	}
}

func TestZeroGateAcceptsNothing(t *testing.T) {
	t.Parallel()

	var gate Gate
	// The zero gate's minimum is 0.0.0, which every parseable version
	// passes; what must fail closed is the unparseable input.
	if gate.Accepts("not-a-version") {
		t.Error("zero gate accepted an unparseable version")
	}
}

func TestFetchPublished(t *testing.T) {
	t.Parallel()

	t.Run("plain version document", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("0.19.5\n"))
		}))
		defer srv.Close()

		got, err := FetchPublished(context.Background(), srv.Client(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "0.19.5" {
			t.Errorf("expected %q, got %q", "0.19.5", got)
		}
	})

	t.Run("non-200 status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		if _, err := FetchPublished(context.Background(), srv.Client(), srv.URL); err == nil {
			t.Error("expected error for 404 response, got nil")
		}
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("   \n"))
		}))
		defer srv.Close()

		_, err := FetchPublished(context.Background(), srv.Client(), srv.URL)
		if !errors.Is(err, ErrEmptyPublishedVersion) {
			t.Errorf("expected ErrEmptyPublishedVersion, got %v", err)
		}
	})
}
