package letterboxd

import "time"

// Film is one diary entry from the feed.
type Film struct {
	// Title is the display title with the rating glyphs removed, e.g. "Dune, 2021".
	Title string `json:"title"`
	// Rating is the whole-star count; half stars are dropped.
	Rating      int        `json:"rating"`
	FilmTitle   string     `json:"filmTitle"`
	FilmYear    string     `json:"filmYear"`
	Poster      string     `json:"poster"`
	Link        string     `json:"link"`
	GUID        string     `json:"guid"`
	WatchedDate *time.Time `json:"watchedDate,omitempty"`
	PublishedAt *time.Time `json:"pubDate,omitempty"`
	Rewatch     bool       `json:"rewatch"`
	TMDBID      string     `json:"tmdbId"`
	Creator     string     `json:"creator"`
	Review      string     `json:"review"`
	Description string     `json:"description"`
}
