package linkmeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPrefersOpenGraph(t *testing.T) {
	srv := serve(t, `<html><head>
		<title>Plain Title</title>
		<meta property="og:title" content="OG Title">
		<meta property="og:description" content="OG description here">
		<meta name="description" content="plain description">
	</head><body></body></html>`)

	f := NewFetcher(2*time.Second, 0, zap.NewNop())
	p, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "OG Title" {
		t.Errorf("title = %q, want OG Title", p.Title)
	}
	if p.Description != "OG description here" {
		t.Errorf("description = %q", p.Description)
	}
}

func TestFetchFallsBackToHTMLTags(t *testing.T) {
	srv := serve(t, `<html><head>
		<title>  My Creator Page </title>
		<meta name="description" content="Support my work">
	</head><body></body></html>`)

	f := NewFetcher(2*time.Second, 0, zap.NewNop())
	p, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "My Creator Page" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Description != "Support my work" {
		t.Errorf("description = %q", p.Description)
	}
}

func TestFetchNoMetadata(t *testing.T) {
	srv := serve(t, `<html><head></head><body>nothing here</body></html>`)

	f := NewFetcher(2*time.Second, 0, zap.NewNop())
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for page without metadata")
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(2*time.Second, 1, zap.NewNop())
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestClamp(t *testing.T) {
	long := strings.Repeat("x", 300)
	if got := clamp(long, 200); len([]rune(got)) != 200 {
		t.Errorf("clamp length = %d, want 200", len([]rune(got)))
	}
	if got := clamp("short", 200); got != "short" {
		t.Errorf("clamp(short) = %q", got)
	}
}
