// internal/server/types.go
package server

import (
	"html/template"
	"time"

	"muses/internal/blog"
	"muses/internal/lastfm"
	"muses/internal/letterboxd"
	"muses/internal/muses"
	"muses/internal/quotes"
)

// BaseTemplateData is embedded in every page.
type BaseTemplateData struct {
	Site   SiteSettings
	Title  string
	Active string
}

type BookView struct {
	Title   string
	Authors string
	Cover   string
	Reading bool
}

type FilmView struct {
	Title  string
	Rating int
	Poster string
	Link   string
	Review string
}

type ArtistView struct {
	Name      string
	PlayCount int
	Percent   int
	URL       string
}

// SectionView is one non-empty dashboard section. Exactly one list is set.
type SectionView struct {
	Title   string
	Books   []BookView
	Films   []FilmView
	Artists []ArtistView
}

type MusesPageData struct {
	BaseTemplateData
	Sections  []SectionView
	NoResults bool
}

type PostView struct {
	Slug    string
	Title   string
	Date    string
	Summary string
}

type BlogPageData struct {
	BaseTemplateData
	Posts []PostView
}

type PostPageData struct {
	BaseTemplateData
	Post PostView
	Body template.HTML
}

type QuotesPageData struct {
	BaseTemplateData
	Quotes []quotes.Quote
}

// SourceStatus is the /status view of a source's last fetch.
type SourceStatus struct {
	OK         bool      `json:"ok"`
	ItemCount  int       `json:"item_count"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FetchedAt  time.Time `json:"fetched_at"`
}

func sectionViews(sections []muses.Section) []SectionView {
	views := make([]SectionView, 0, len(sections))
	for _, sec := range sections {
		if sec.Empty() {
			continue
		}
		v := SectionView{Title: sec.Title()}
		for _, b := range sec.Books {
			v.Books = append(v.Books, BookView{
				Title:   b.Title,
				Authors: joinNames(b.Authors),
				Cover:   b.Cover,
				Reading: b.Reading(),
			})
		}
		for _, f := range sec.Films {
			v.Films = append(v.Films, filmView(f))
		}
		for _, a := range sec.ArtistBars() {
			v.Artists = append(v.Artists, artistView(a.Artist, a.Percent))
		}
		views = append(views, v)
	}
	return views
}

func filmView(f letterboxd.Film) FilmView {
	return FilmView{Title: f.Title, Rating: f.Rating, Poster: f.Poster, Link: f.Link, Review: f.Review}
}

func artistView(a lastfm.Artist, percent int) ArtistView {
	return ArtistView{Name: a.Name, PlayCount: a.PlayCount, Percent: percent, URL: a.URL}
}

func postView(p blog.Post) PostView {
	return PostView{Slug: p.Slug, Title: p.Title, Date: p.Date(), Summary: p.Summary}
}
