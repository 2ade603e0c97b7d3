package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	securitynet "muses/internal/security/netutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetSetsUserAgentAndAccept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "muses-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "text/html", r.Header.Get("Accept"))
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New(Config{UserAgent: "muses-test/1.0", AllowLoopback: true})
	body, err := c.Get(context.Background(), srv.URL, "text/html")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestClient_GetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(Config{AllowLoopback: true}).Get(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestClient_GetTruncatesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	body, err := New(Config{MaxBodyBytes: 4, AllowLoopback: true}).Get(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "0123", string(body))
}

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer srv.Close()

	var out map[string]string
	header := http.Header{"Authorization": []string{"Bearer abc"}}
	err := New(Config{AllowLoopback: true}).PostJSON(context.Background(), srv.URL, header, map[string]string{"msg": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestClient_BlocksPrivateAddress(t *testing.T) {
	_, err := New(Config{}).Get(context.Background(), "http://10.0.0.1/feed", "")
	require.Error(t, err)
}

func TestClient_LoopbackRefusedByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("local"))
	}))
	defer srv.Close()

	_, err := New(Config{}).Get(context.Background(), srv.URL, "")
	assert.True(t, errors.Is(err, securitynet.ErrPrivateAddress))
}

func TestClient_RedirectToPrivateAddressBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://10.0.0.1/admin", http.StatusFound)
	}))
	defer srv.Close()

	_, err := New(Config{AllowLoopback: true}).Get(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, securitynet.ErrPrivateAddress))
}

func TestClient_WithRedirectPolicy(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("target"))
	}))
	defer target.Close()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/final", http.StatusFound)
	}))
	defer origin.Close()

	refused := errors.New("refused")
	var hops []string
	base := New(Config{AllowLoopback: true})
	strict := base.WithRedirectPolicy(func(req *http.Request) error {
		hops = append(hops, req.URL.Path)
		return refused
	})

	_, err := strict.Get(context.Background(), origin.URL, "")
	assert.True(t, errors.Is(err, refused))
	assert.Equal(t, []string{"/final"}, hops)

	body, err := base.Get(context.Background(), origin.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "target", string(body))
	assert.Equal(t, base.MaxBodyBytes(), strict.MaxBodyBytes())
}
