package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"muses/internal/database"
	"muses/internal/lastfm"
	"muses/internal/letterboxd"
	"muses/internal/muses"
	"muses/internal/upstream"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDashboard struct {
	sections []muses.Section
	calls    int
}

func (f *fakeDashboard) Dashboard(ctx context.Context, configs []muses.SectionConfig) []muses.Section {
	f.calls++
	return f.sections
}

type testServer struct {
	server    *Server
	db        *database.DB
	dashboard *fakeDashboard
	handler   http.Handler
	logs      *bytes.Buffer
}

const helloPost = `---
title: Hello World
publishedAt: 2024-03-01
summary: The first post.
---
Some **bold** words.
`

const olderPost = `---
title: Older Notes
publishedAt: 2023-11-20
summary: Written earlier.
---
Plain text.
`

const quotesYAML = `quotes:
  - text: "Nothing in life is to be feared, it is only to be understood."
    author: Marie Curie
  - text: "The unexamined life is not worth living."
    author: Socrates
    work: Apology
`

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.NewDB(":memory:", database.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	content := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(content, "posts"), 0o755))
	writeFile(t, filepath.Join(content, "posts", "hello-world.md"), helloPost)
	writeFile(t, filepath.Join(content, "posts", "older-notes.md"), olderPost)
	writeFile(t, filepath.Join(content, "quotes.yaml"), quotesYAML)

	logs := &bytes.Buffer{}
	logger := log.New(logs, "", 0)
	dash := &fakeDashboard{}

	srv, err := NewServer(db, logger, dash, upstream.New(upstream.Config{AllowLoopback: true}), Config{
		ContentDir: content,
		SiteURL:    "https://example.com",
		Sections:   muses.DefaultSections(),
	})
	require.NoError(t, err)

	return &testServer{server: srv, db: db, dashboard: dash, handler: srv.Routes(), logs: logs}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func (ts *testServer) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func parseHTML(t *testing.T, rr *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	return doc
}

func TestHandleIndex_RendersSectionsInOrder(t *testing.T) {
	ts := newTestServer(t)
	sections := muses.DefaultSections()
	ts.dashboard.sections = []muses.Section{
		{
			Config: sections[0],
			Books: []muses.Book{
				{Title: "Dune", Authors: []string{"Frank Herbert"}, Cover: "https://i.gr-assets.com/images/dune.jpg"},
				{Title: "Local Cover", Cover: "/static/images/cover-placeholder.svg"},
			},
		},
		{
			Config: sections[1],
			Artists: []lastfm.Artist{
				{Name: "Radiohead", PlayCount: 200, URL: "https://www.last.fm/music/Radiohead"},
				{Name: "Björk", PlayCount: 50},
			},
		},
		{
			Config: sections[2],
			Films:  []letterboxd.Film{{Title: "Arrival, 2016", Rating: 4, Poster: "https://a.ltrbxd.com/p.jpg", Link: "https://letterboxd.com/x/film/arrival/"}},
		},
	}

	rr := ts.get(t, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))

	doc := parseHTML(t, rr)
	titles := doc.Find(".muses-section h2").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	assert.Equal(t, []string{"Recently Read Books", "Top Artists This Month", "Recently Watched Films"}, titles)

	covers := doc.Find(".book img").Map(func(_ int, s *goquery.Selection) string { return s.AttrOr("src", "") })
	assert.Equal(t, []string{
		"/img?src=https%3A%2F%2Fi.gr-assets.com%2Fimages%2Fdune.jpg",
		"/static/images/cover-placeholder.svg",
	}, covers)

	bars := doc.Find(".artist progress").Map(func(_ int, s *goquery.Selection) string { return s.AttrOr("value", "") })
	assert.Equal(t, []string{"100", "25"}, bars)

	assert.Equal(t, "★★★★", doc.Find(".film .rating").Text())
	assert.Zero(t, doc.Find(".no-results").Length())
	assert.Equal(t, "muses", strings.TrimSpace(doc.Find(".site-title").Text()))
}

func TestHandleIndex_OmitsEmptySections(t *testing.T) {
	ts := newTestServer(t)
	sections := muses.DefaultSections()
	ts.dashboard.sections = []muses.Section{
		{Config: sections[0], Err: errors.New("goodreads down")},
		{Config: sections[1], Artists: []lastfm.Artist{{Name: "Low", PlayCount: 3}}},
		{Config: sections[2]},
	}

	doc := parseHTML(t, ts.get(t, "/"))
	assert.Equal(t, 1, doc.Find(".muses-section").Length())
	assert.Equal(t, "Top Artists This Month", doc.Find(".muses-section h2").Text())
}

func TestHandleIndex_NoResults(t *testing.T) {
	ts := newTestServer(t)
	ts.dashboard.sections = []muses.Section{{Config: muses.DefaultSections()[0]}}

	rr := ts.get(t, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(t, rr)
	assert.Equal(t, "No results", doc.Find(".no-results").Text())
	assert.Zero(t, doc.Find(".muses-section").Length())
}

func TestHandleBlog_ListsNewestFirst(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get(t, "/blog")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(t, rr)

	links := doc.Find(".post-item a").Map(func(_ int, s *goquery.Selection) string { return s.AttrOr("href", "") })
	assert.Equal(t, []string{"/blog/hello-world", "/blog/older-notes"}, links)
	assert.Equal(t, "March 1, 2024", doc.Find(".post-item time").First().Text())
	assert.Equal(t, "active", doc.Find(`nav a[href="/blog"]`).AttrOr("class", ""))
}

func TestHandlePost(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get(t, "/blog/hello-world")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(t, rr)
	assert.Equal(t, "Hello World", doc.Find("article.post h1").Text())
	assert.Equal(t, "bold", doc.Find(".post-body strong").Text())
	assert.Equal(t, "Hello World | muses", doc.Find("title").Text())
}

func TestHandlePost_NotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/blog/missing", "/blog/Not_A_Slug", "/nowhere"} {
		rr := ts.get(t, path)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		assert.Contains(t, rr.Body.String(), "Not found", path)
	}
}

func TestHandleQuotes(t *testing.T) {
	ts := newTestServer(t)

	doc := parseHTML(t, ts.get(t, "/quotes"))
	require.Equal(t, 2, doc.Find("figure.quote").Length())
	assert.Equal(t, "Socrates, Apology", strings.TrimSpace(doc.Find("figure.quote figcaption").Last().Text()))
}

func TestHandleQuotes_MissingFile(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, os.Remove(ts.server.quotesPath()))

	rr := ts.get(t, "/quotes")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, parseHTML(t, rr).Find("figure.quote").Length())
}

func TestHandleRSS(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get(t, "/rss.xml")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", rr.Header().Get("Content-Type"))

	feed, err := gofeed.NewParser().ParseString(rr.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "muses", feed.Title)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "https://example.com/blog/hello-world", feed.Items[0].Link)
}

func TestHandleHealthz(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	ts.db.Close()
	rr = ts.get(t, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHandleStatus(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.db.RecordFetch(ctx, database.FetchRecord{Source: "lastfm", OK: false, Error: "connection refused", Duration: 30 * time.Millisecond}))
	require.NoError(t, ts.db.RecordFetch(ctx, database.FetchRecord{Source: "letterboxd", OK: true, ItemCount: 8}))

	rr := ts.get(t, "/status")
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]*SourceStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Contains(t, got, "goodreads")
	assert.Nil(t, got["goodreads"])
	require.NotNil(t, got["lastfm"])
	assert.False(t, got["lastfm"].OK)
	assert.Equal(t, "connection refused", got["lastfm"].Error)
	assert.Equal(t, int64(30), got["lastfm"].DurationMS)
	assert.Equal(t, 8, got["letterboxd"].ItemCount)
}

func TestSettingsRenderedInLayout(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.db.UpdateSetting(ctx, "site_title", "Reading Room"))
	require.NoError(t, ts.db.UpdateSetting(ctx, "footer_text", "Made slowly."))

	doc := parseHTML(t, ts.get(t, "/quotes"))
	assert.Equal(t, "Reading Room", strings.TrimSpace(doc.Find(".site-title").Text()))
	assert.Equal(t, "Made slowly.", doc.Find(".site-footer p").First().Text())
}

func TestGzipResponses(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/blog", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
}

func TestAccessLogAndRequestID(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/blog", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, "req-123", rr.Header().Get(requestIDHeader))
	assert.Contains(t, ts.logs.String(), "access method=GET path=/blog status=200")
	assert.Contains(t, ts.logs.String(), "request_id=req-123")
}

func TestRecoveryMiddleware(t *testing.T) {
	ts := newTestServer(t)
	h := requestIDMiddleware(ts.server.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, ts.logs.String(), "panic recovered")
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.get(t, "/blog")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "img-src 'self'")
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.get(t, "/static/css/site.css")
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), ".muses-section")
}
