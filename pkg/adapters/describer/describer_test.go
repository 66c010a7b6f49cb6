package describer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "meta description wins",
			page: `<html><head>
				<meta property="og:description" content="Open graph text">
				<meta name="description" content="  Plain   description ">
			</head></html>`,
			want: "Plain description",
		},
		{
			name: "open graph fallback",
			page: `<head><meta property="og:description" content="Open graph text"><meta name="twitter:description" content="Tweet"></head>`,
			want: "Open graph text",
		},
		{
			name: "twitter fallback",
			page: `<head><meta name="description" content="   "><meta name="twitter:description" content="Tweet text"></head>`,
			want: "Tweet text",
		},
		{
			name: "nothing",
			page: `<html><head><title>Only a title</title></head><body><p>Hi</p></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := html.Parse(strings.NewReader(tt.page))
			require.NoError(t, err)
			assert.Equal(t, tt.want, Extract(doc))
		})
	}
}

func TestExtract_Truncates(t *testing.T) {
	long := strings.Repeat("a", maxDescription+50)
	doc, err := html.Parse(strings.NewReader(`<meta name="description" content="` + long + `">`))
	require.NoError(t, err)

	got := Extract(doc)
	assert.Len(t, got, maxDescription)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestPageDescriber_Describe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><meta name="description" content="A page about Go"></head></html>`))
		case "/bare":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>no meta</body></html>`))
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"description":"nope"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := NewPageDescriber(2 * time.Second)
	ctx := context.Background()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"meta found", "/page", "A page about Go"},
		{"no meta", "/bare", "Go Docs: a curated resource in the dev tools collection."},
		{"not html", "/json", "Go Docs: a curated resource in the dev tools collection."},
		{"http error", "/missing", "Go Docs: a curated resource in the dev tools collection."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := &domain.Link{ID: "lnk-1", Title: "Go Docs", URL: srv.URL + tt.path, Category: "dev-tools"}
			got, err := d.Describe(ctx, link)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageDescriber_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`<meta name="description" content="late">`))
	}))
	defer srv.Close()

	d := NewPageDescriber(50 * time.Millisecond)
	got, err := d.Describe(context.Background(), &domain.Link{Title: "Slow", URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "Slow: a curated resource in the tools collection.", got)
}
