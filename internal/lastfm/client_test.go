package lastfm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"muses/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topArtistsJSON = `{"topartists":{"artist":[
 {"name":"Radiohead","playcount":"120","mbid":"a74b1b7f","url":"https://www.last.fm/music/Radiohead",
  "image":[{"#text":"https://lastfm.freetls.fastly.net/i/u/34s/r.png","size":"small"},{"#text":"https://lastfm.freetls.fastly.net/i/u/300x300/r.png","size":"extralarge"}],
  "@attr":{"rank":"1"}},
 {"name":"Björk","playcount":"64","mbid":"","url":"https://www.last.fm/music/Bj%C3%B6rk","image":[],"@attr":{"rank":"2"}}
],"@attr":{"user":"someone","page":"1","perPage":"8","totalPages":"1","total":"2"}}}`

func TestClient_FetchTopArtists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "user.gettopartists", q.Get("method"))
		assert.Equal(t, "someone", q.Get("user"))
		assert.Equal(t, "key-1", q.Get("api_key"))
		assert.Equal(t, "1month", q.Get("period"))
		assert.Equal(t, "8", q.Get("limit"))
		assert.Equal(t, "json", q.Get("format"))
		w.Write([]byte(topArtistsJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", upstream.New(upstream.Config{AllowLoopback: true}), log.New(io.Discard, "", 0))
	artists, err := c.FetchTopArtists(context.Background(), "someone", 0)
	require.NoError(t, err)
	require.Len(t, artists, 2)

	assert.Equal(t, "Radiohead", artists[0].Name)
	assert.Equal(t, 120, artists[0].PlayCount)
	assert.Equal(t, 1, artists[0].Rank)
	assert.Equal(t, "a74b1b7f", artists[0].MBID)
	assert.Equal(t, "https://lastfm.freetls.fastly.net/i/u/300x300/r.png", artists[0].Image("extralarge"))
	assert.Empty(t, artists[0].Image("mega"))
	assert.Equal(t, 64, artists[1].PlayCount)
}

func TestClient_GetTopArtistsNetworkErrorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var logs bytes.Buffer
	c := NewClient(url, "key-1", upstream.New(upstream.Config{AllowLoopback: true}), log.New(&logs, "", 0))
	artists := c.GetTopArtists(context.Background(), "someone", 16)
	assert.NotNil(t, artists)
	assert.Empty(t, artists)
	assert.Contains(t, logs.String(), "Error fetching top artists")
}

func TestClient_APIErrorInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":10,"message":"Invalid API key - You must be granted a valid key by last.fm"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad", upstream.New(upstream.Config{AllowLoopback: true}), log.New(io.Discard, "", 0))
	_, err := c.FetchTopArtists(context.Background(), "someone", 5)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 10, apiErr.Code)

	assert.Empty(t, c.GetTopArtists(context.Background(), "someone", 5))
}

func TestClient_MissingAPIKey(t *testing.T) {
	c := NewClient("", "", upstream.New(upstream.Config{AllowLoopback: true}), log.New(io.Discard, "", 0))
	_, err := c.FetchTopArtists(context.Background(), "someone", 5)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}
