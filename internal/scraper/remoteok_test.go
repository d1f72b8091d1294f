package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jobpulse/jobpulse/internal/model"
)

func TestRemoteOKFetch_Success(t *testing.T) {
	payload := `[
		{"legal": "API terms of service"},
		{"position": "Go Developer", "company": "Acme", "url": "https://remoteok.com/l/1"},
		{"title": "SRE", "company": "", "url": "https://remoteok.com/l/2"},
		{"position": "", "company": "NoTitle Inc", "url": "https://remoteok.com/l/3"}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	s := NewRemoteOK(testClient(srv), "test-agent")
	listings, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].Title != "Go Developer" || listings[0].Company != "Acme" {
		t.Errorf("unexpected first listing: %+v", listings[0])
	}
	if listings[1].Title != "SRE" || listings[1].Company != "Unknown" {
		t.Errorf("expected title fallback and Unknown company, got %+v", listings[1])
	}
	for _, l := range listings {
		if l.Category != model.CategoryRemote {
			t.Errorf("listing %q has category %q, want remote", l.URL, l.Category)
		}
	}
}

func TestRemoteOKFetch_CapsResults(t *testing.T) {
	var b strings.Builder
	b.WriteString(`[{"legal": "terms"}`)
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, `,{"position": "Role %d", "company": "Acme", "url": "https://remoteok.com/l/%d"}`, i, i)
	}
	b.WriteString("]")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	s := NewRemoteOK(testClient(srv), "test-agent")
	listings, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != remoteOKMaxListings {
		t.Errorf("expected cap of %d listings, got %d", remoteOKMaxListings, len(listings))
	}
}

func TestRemoteOKFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewRemoteOK(testClient(srv), "test-agent")
	_, err := s.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for 429 response")
	}

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 120 {
		t.Errorf("retry-after = %v, want 120s", httpErr.RetryAfter)
	}
}

func TestRemoteOKFetch_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	s := NewRemoteOK(testClient(srv), "custom-agent/1.0")
	if _, err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUA != "custom-agent/1.0" {
		t.Errorf("user-agent = %q, want custom-agent/1.0", gotUA)
	}
}
