package pipeline

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcherReadsBody(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(5*time.Second, 1<<20)
	got, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("body mismatch: got %d bytes", len(got))
	}
}

func TestFetcherRejectsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(5*time.Second, 1<<20)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("error should carry the status: %v", err)
	}
}

func TestFetcherEnforcesByteCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{0x01}, 2048))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(5*time.Second, 1024)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected oversize body to be rejected")
	}
	if !strings.Contains(err.Error(), "maximum size") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetcherHonorsContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := NewFetcher(30*time.Second, 1<<20)
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
