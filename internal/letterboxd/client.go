// Package letterboxd reads a member's diary RSS feed into Film records.
package letterboxd

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"muses/internal/upstream"

	"github.com/mmcdole/gofeed"
)

type Client struct {
	feedURL string
	http    *upstream.Client
	parser  *gofeed.Parser
}

func NewClient(feedURL string, httpClient *upstream.Client) *Client {
	return &Client{
		feedURL: feedURL,
		http:    httpClient,
		parser:  gofeed.NewParser(),
	}
}

// GetMovies fetches the feed and returns its films, newest watched first.
func (c *Client) GetMovies(ctx context.Context) ([]Film, error) {
	if c.feedURL == "" {
		return nil, fmt.Errorf("letterboxd: no feed URL configured")
	}
	body, err := c.http.Get(ctx, c.feedURL, "application/rss+xml, application/xml, text/xml")
	if err != nil {
		return nil, fmt.Errorf("letterboxd: fetching feed: %w", err)
	}
	films, err := c.Parse(body)
	if err != nil {
		return nil, err
	}
	SortByWatched(films)
	return films, nil
}

// Parse maps a raw feed document to films in feed order.
func (c *Client) Parse(doc []byte) ([]Film, error) {
	feed, err := c.parser.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("letterboxd: parsing feed: %w", err)
	}
	if feed == nil {
		return nil, fmt.Errorf("letterboxd: parsing feed: empty document")
	}

	films := make([]Film, 0, len(feed.Items))
	for _, item := range feed.Items {
		films = append(films, filmFromItem(item))
	}
	return films, nil
}

func filmFromItem(item *gofeed.Item) Film {
	title, stars := SplitTitle(strings.TrimSpace(item.Title))
	poster, review := parseDescription(item.Description)

	f := Film{
		Title:       title,
		Rating:      ParseRating(stars),
		FilmTitle:   extension(item, "letterboxd", "filmTitle"),
		FilmYear:    extension(item, "letterboxd", "filmYear"),
		Poster:      poster,
		Link:        item.Link,
		GUID:        item.GUID,
		WatchedDate: parseWatchedDate(extension(item, "letterboxd", "watchedDate")),
		PublishedAt: item.PublishedParsed,
		Rewatch:     strings.EqualFold(extension(item, "letterboxd", "rewatch"), "yes"),
		TMDBID:      extension(item, "tmdb", "movieId"),
		Creator:     extension(item, "dc", "creator"),
		Review:      review,
		Description: item.Description,
	}
	return f
}

// extension returns the trimmed text of the first <prefix:name> element.
func extension(item *gofeed.Item, prefix, name string) string {
	if item.Extensions == nil {
		return ""
	}
	values := item.Extensions[prefix][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

// SortByWatched orders films newest watched first. Films without a watched
// date go after dated ones; ties keep feed order.
func SortByWatched(films []Film) {
	sort.SliceStable(films, func(i, j int) bool {
		a, b := films[i].WatchedDate, films[j].WatchedDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// FilterMinRating keeps films rated at least minRating.
func FilterMinRating(films []Film, minRating float64) []Film {
	out := make([]Film, 0, len(films))
	for _, f := range films {
		if float64(f.Rating) >= minRating {
			out = append(out, f)
		}
	}
	return out
}
