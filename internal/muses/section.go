// Package muses builds the dashboard: it pulls normalized records from the
// book, film and music adapters and applies each section's sort, filter and
// limit rules.
package muses

import (
	"fmt"
	"strings"
	"time"

	"muses/internal/lastfm"
	"muses/internal/letterboxd"
)

// Source names the adapter behind a section.
type Source string

const (
	SourceLiteral    Source = "literal"
	SourceGoodreads  Source = "goodreads"
	SourceLetterboxd Source = "letterboxd"
	SourceLastFM     Source = "lastfm"
)

var sources = []Source{SourceLiteral, SourceGoodreads, SourceLetterboxd, SourceLastFM}

// ParseSource accepts a source name in any case.
func ParseSource(s string) (Source, error) {
	for _, src := range sources {
		if strings.EqualFold(s, string(src)) {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// SectionConfig is one dashboard section. Limit is applied after filtering;
// FetchLimit is how many items to request from sources that take a count
// (zero means Limit). A nil MinRating disables the rating filter.
type SectionConfig struct {
	Source     Source
	Title      string
	Limit      int
	FetchLimit int
	MinRating  *float64
}

func (c SectionConfig) fetchLimit() int {
	if c.FetchLimit > 0 {
		return c.FetchLimit
	}
	return c.Limit
}

// DefaultSections is the dashboard used when none is configured.
func DefaultSections() []SectionConfig {
	four := 4.0
	return []SectionConfig{
		{Source: SourceGoodreads, Title: "Recently Read Books", Limit: 8},
		{Source: SourceLastFM, Title: "Top Artists This Month", Limit: 7, FetchLimit: 16},
		{Source: SourceLetterboxd, Title: "Recently Watched Films", Limit: 8, MinRating: &four},
	}
}

// Section is the tagged outcome of one section fetch. Err is set when the
// source failed, in which case every list is empty; callers that only read
// the lists see the same thing as a source with no data.
type Section struct {
	Config   SectionConfig
	Books    []Book
	Films    []letterboxd.Film
	Artists  []lastfm.Artist
	Err      error
	Duration time.Duration
}

func (s Section) Title() string {
	if s.Config.Title != "" {
		return s.Config.Title
	}
	return string(s.Config.Source)
}

func (s Section) Len() int {
	return len(s.Books) + len(s.Films) + len(s.Artists)
}

func (s Section) Empty() bool { return s.Len() == 0 }

// ArtistBar is an artist with its play count relative to the top artist.
type ArtistBar struct {
	lastfm.Artist
	Percent int
}

// ArtistBars scales each play count against the first artist, which the
// music service returns as the most played.
func (s Section) ArtistBars() []ArtistBar {
	bars := make([]ArtistBar, 0, len(s.Artists))
	if len(s.Artists) == 0 {
		return bars
	}
	top := s.Artists[0].PlayCount
	for _, a := range s.Artists {
		pct := 0
		if top > 0 {
			pct = a.PlayCount * 100 / top
		}
		if pct > 100 {
			pct = 100
		}
		bars = append(bars, ArtistBar{Artist: a, Percent: pct})
	}
	return bars
}

// AllEmpty reports whether no section produced anything.
func AllEmpty(sections []Section) bool {
	for _, s := range sections {
		if !s.Empty() {
			return false
		}
	}
	return true
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
