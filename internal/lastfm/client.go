// Package lastfm reads a user's top artists from the music-scrobbling API.
package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"muses/internal/upstream"
)

const (
	DefaultEndpoint = "https://ws.audioscrobbler.com/2.0/"
	DefaultLimit    = 8
	// PeriodOneMonth is the trailing listening window used for top artists.
	PeriodOneMonth = "1month"
)

var ErrMissingAPIKey = errors.New("lastfm: no API key configured")

// APIError is the service's in-body error object.
type APIError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lastfm: error %d: %s", e.Code, e.Message)
}

type Image struct {
	Size string `json:"size"`
	URL  string `json:"url"`
}

type Artist struct {
	Name      string  `json:"name"`
	PlayCount int     `json:"playcount"`
	Rank      int     `json:"rank"`
	MBID      string  `json:"mbid"`
	URL       string  `json:"url"`
	Images    []Image `json:"images"`
}

// Image returns the URL of the variant with the given size, or "".
func (a Artist) Image(size string) string {
	for _, img := range a.Images {
		if img.Size == size {
			return img.URL
		}
	}
	return ""
}

// wire shapes; numbers arrive as strings
type topArtistsResponse struct {
	TopArtists *struct {
		Artist []struct {
			Name      string `json:"name"`
			PlayCount string `json:"playcount"`
			MBID      string `json:"mbid"`
			URL       string `json:"url"`
			Image     []struct {
				Text string `json:"#text"`
				Size string `json:"size"`
			} `json:"image"`
			Attr struct {
				Rank string `json:"rank"`
			} `json:"@attr"`
		} `json:"artist"`
	} `json:"topartists"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

type Client struct {
	endpoint string
	apiKey   string
	http     *upstream.Client
	logger   *log.Logger
}

func NewClient(endpoint, apiKey string, httpClient *upstream.Client, logger *log.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, http: httpClient, logger: logger}
}

// GetTopArtists returns the user's top artists over the last month in the
// order the service sends them. Any failure is logged and yields an empty
// list.
func (c *Client) GetTopArtists(ctx context.Context, username string, limit int) []Artist {
	artists, err := c.FetchTopArtists(ctx, username, limit)
	if err != nil {
		c.logger.Printf("Error fetching top artists for %s: %v", username, err)
		return []Artist{}
	}
	return artists
}

// FetchTopArtists is GetTopArtists with the error exposed. A limit of zero
// or less uses DefaultLimit.
func (c *Client) FetchTopArtists(ctx context.Context, username string, limit int) ([]Artist, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := url.Values{}
	q.Set("method", "user.gettopartists")
	q.Set("user", username)
	q.Set("api_key", c.apiKey)
	q.Set("period", PeriodOneMonth)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("format", "json")

	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	body, err := c.http.Get(ctx, c.endpoint+sep+q.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("lastfm: fetching top artists: %w", err)
	}

	var resp topArtistsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("lastfm: decoding top artists: %w", err)
	}
	if resp.Error != 0 {
		return nil, &APIError{Code: resp.Error, Message: resp.Message}
	}
	if resp.TopArtists == nil {
		return nil, fmt.Errorf("lastfm: response has no topartists")
	}

	artists := make([]Artist, 0, len(resp.TopArtists.Artist))
	for _, a := range resp.TopArtists.Artist {
		artist := Artist{
			Name:      a.Name,
			PlayCount: atoi(a.PlayCount),
			Rank:      atoi(a.Attr.Rank),
			MBID:      a.MBID,
			URL:       a.URL,
		}
		for _, img := range a.Image {
			artist.Images = append(artist.Images, Image{Size: img.Size, URL: img.Text})
		}
		artists = append(artists, artist)
	}
	return artists, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
