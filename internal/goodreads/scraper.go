// Package goodreads scrapes a member's public "read" shelf page.
//
// The page markup is not a contract: if it changes shape the scraper finds
// no rows and returns an empty list rather than an error.
package goodreads

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"muses/internal/upstream"

	"github.com/PuerkitoBio/goquery"
)

const (
	rowSelector    = "tr.bookalike.review"
	titleSelector  = "td.field.title div.value a"
	coverSelector  = "td.field.cover div.value img"
	authorSelector = "td.field.author div.value a"
)

// Book is the reduced record the shelf page exposes.
type Book struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Cover   string   `json:"cover"`
}

// Options holds the data-quality workarounds applied to scraped rows. These
// patch specific known-bad rows and cover URLs and are not general rules.
type Options struct {
	// ExcludeTitles drops any row whose title contains one of these substrings.
	ExcludeTitles []string
	// CoverStripTokens are removed from cover URLs; stripping the size token
	// makes the image host serve the full-resolution cover.
	CoverStripTokens []string
	// PlaceholderCover is used when a row has no cover image.
	PlaceholderCover string
}

func DefaultOptions() Options {
	return Options{
		ExcludeTitles:    []string{"Plato", "Wabi-Sabi"},
		CoverStripTokens: []string{"_SY75_."},
		PlaceholderCover: "/static/images/cover-placeholder.svg",
	}
}

type Scraper struct {
	listURL string
	opts    Options
	http    *upstream.Client
	logger  *log.Logger
}

func NewScraper(listURL string, opts Options, httpClient *upstream.Client, logger *log.Logger) *Scraper {
	return &Scraper{listURL: listURL, opts: opts, http: httpClient, logger: logger}
}

// GetRecentBooks fetches the shelf page and returns its books in page order.
func (s *Scraper) GetRecentBooks(ctx context.Context) ([]Book, error) {
	if s.listURL == "" {
		return nil, fmt.Errorf("goodreads: no list URL configured")
	}
	body, err := s.http.Get(ctx, s.listURL, "text/html")
	if err != nil {
		return nil, fmt.Errorf("goodreads: fetching list: %w", err)
	}
	books, err := s.Parse(body)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		s.logger.Printf("No book rows matched %q on %s; page layout may have changed", rowSelector, s.listURL)
	}
	return books, nil
}

// Parse extracts books from a shelf page document.
func (s *Scraper) Parse(doc []byte) ([]Book, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("goodreads: parsing page: %w", err)
	}

	books := make([]Book, 0)
	d.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		title := normalizeTitle(row.Find(titleSelector).First().Text())
		if title == "" || s.excluded(title) {
			return
		}

		cover, ok := row.Find(coverSelector).First().Attr("src")
		if !ok || strings.TrimSpace(cover) == "" {
			cover = s.opts.PlaceholderCover
		}
		for _, token := range s.opts.CoverStripTokens {
			cover = strings.ReplaceAll(cover, token, "")
		}

		authors := row.Find(authorSelector).Map(func(_ int, a *goquery.Selection) string {
			return strings.TrimSpace(a.Text())
		})

		books = append(books, Book{Title: title, Authors: authors, Cover: strings.TrimSpace(cover)})
	})
	return books, nil
}

// normalizeTitle collapses whitespace and keeps only the part before the
// first colon, which drops subtitles.
func normalizeTitle(raw string) string {
	title := strings.Join(strings.Fields(raw), " ")
	if i := strings.Index(title, ":"); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

func (s *Scraper) excluded(title string) bool {
	for _, bad := range s.opts.ExcludeTitles {
		if bad != "" && strings.Contains(title, bad) {
			return true
		}
	}
	return false
}
