// internal/server/image_handler.go
package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	securitynet "muses/internal/security/netutil"
	"muses/internal/upstream"
)

var errRedirectNotAllowed = errors.New("redirect target not allowed")

// ImageHost is one allow-listed origin. Hostname is compared against the URL
// host, so an explicit port must be listed to be accepted.
type ImageHost struct {
	Scheme   string
	Hostname string
}

func (h ImageHost) key() string {
	return strings.ToLower(h.Scheme) + "://" + strings.ToLower(h.Hostname)
}

// ImageProxy serves remote cover, poster and artist images from allow-listed
// hosts only. Nothing else on the site loads third-party images directly.
type ImageProxy struct {
	allowed        map[string]bool
	client         *upstream.Client
	logger         *log.Logger
	productionMode bool
	// allowLoopback lets tests point the proxy at httptest servers.
	allowLoopback bool
}

func NewImageProxy(hosts []ImageHost, client *upstream.Client, logger *log.Logger, productionMode bool) *ImageProxy {
	allowed := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		if h.Scheme == "" || h.Hostname == "" {
			continue
		}
		allowed[h.key()] = true
	}
	p := &ImageProxy{
		allowed:        allowed,
		logger:         logger,
		productionMode: productionMode,
	}
	p.client = client.WithRedirectPolicy(p.checkRedirect)
	return p
}

// checkRedirect holds every redirect hop to the same rules as the first URL.
func (p *ImageProxy) checkRedirect(req *http.Request) error {
	if _, ok := p.Allowed(req.URL.String()); !ok {
		return fmt.Errorf("%w: %s", errRedirectNotAllowed, req.URL.Redacted())
	}
	return securitynet.CheckHost(req.Context(), req.URL.Hostname(), p.allowLoopback)
}

// Allowed reports whether src may be proxied, returning the parsed URL.
func (p *ImageProxy) Allowed(src string) (*url.URL, bool) {
	u, err := url.Parse(src)
	if err != nil || !u.IsAbs() || u.Host == "" || u.User != nil {
		return nil, false
	}
	if !p.allowed[ImageHost{Scheme: u.Scheme, Hostname: u.Host}.key()] {
		return u, false
	}
	return u, true
}

func (p *ImageProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" {
		http.Error(w, "Missing src parameter", http.StatusBadRequest)
		return
	}

	u, ok := p.Allowed(src)
	if u == nil {
		http.Error(w, "Invalid image URL", http.StatusBadRequest)
		return
	}
	if !ok {
		if !p.productionMode {
			p.logger.Printf("Refusing image from host not on allow-list: %s", u.Redacted())
		}
		http.Error(w, "Image host not allowed", http.StatusForbidden)
		return
	}

	if err := securitynet.CheckHost(r.Context(), u.Hostname(), p.allowLoopback); err != nil {
		p.logger.Printf("Refusing image %s: %v", u.Redacted(), err)
		if errors.Is(err, securitynet.ErrPrivateAddress) {
			http.Error(w, "Image host not allowed", http.StatusForbidden)
			return
		}
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		http.Error(w, "Invalid image URL", http.StatusBadRequest)
		return
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Printf("Error fetching image %s: %v", u.Redacted(), err)
		if errors.Is(err, errRedirectNotAllowed) || errors.Is(err, securitynet.ErrPrivateAddress) {
			http.Error(w, "Image host not allowed", http.StatusForbidden)
			return
		}
		http.Error(w, "Failed to fetch image", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	// SVG can carry script, so only raster formats are passed through.
	if err != nil || !strings.HasPrefix(mediaType, "image/") || mediaType == "image/svg+xml" {
		p.logger.Printf("Refusing image %s with content type %q", u.Redacted(), contentType)
		http.Error(w, "Upstream response is not an image", http.StatusBadGateway)
		return
	}

	maxBody := p.client.MaxBodyBytes()
	if resp.ContentLength > maxBody {
		p.logger.Printf("Refusing image %s: %d bytes exceeds limit", u.Redacted(), resp.ContentLength)
		http.Error(w, "Image too large", http.StatusBadGateway)
		return
	}

	h := w.Header()
	h.Set("Content-Type", mediaType)
	h.Set("Cache-Control", "public, max-age=31536000, immutable")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Security-Policy", "default-src 'none'; sandbox")
	if resp.ContentLength >= 0 {
		h.Set("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, io.LimitReader(resp.Body, maxBody)); err != nil && !p.productionMode {
		p.logger.Printf("Error streaming image %s: %v", u.Redacted(), err)
	}
}
