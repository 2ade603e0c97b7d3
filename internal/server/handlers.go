// internal/server/handlers.go
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"muses/internal/blog"
	"muses/internal/muses"
	"muses/internal/quotes"
	"muses/internal/rss"
)

func postsDir(contentDir string) string {
	return filepath.Join(contentDir, "posts")
}

func (s *Server) quotesPath() string {
	return filepath.Join(s.config.ContentDir, "quotes.yaml")
}

func (s *Server) baseData(ctx context.Context, title, active string) BaseTemplateData {
	return BaseTemplateData{Site: s.getSettings(ctx), Title: title, Active: active}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sections := s.dashboard.Dashboard(r.Context(), s.config.Sections)
	if !s.config.ProductionMode {
		s.logger.Printf("Built dashboard with %d sections in %v", len(sections), time.Since(start))
	}

	data := MusesPageData{
		BaseTemplateData: s.baseData(r.Context(), "", "muses"),
		Sections:         sectionViews(sections),
		NoResults:        muses.AllEmpty(sections),
	}
	s.renderTemplate(w, r, "muses.html", http.StatusOK, data)
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.Posts()
	if err != nil {
		s.logger.Printf("Error loading posts: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := BlogPageData{
		BaseTemplateData: s.baseData(r.Context(), "Blog", "blog"),
		Posts:            make([]PostView, 0, len(posts)),
	}
	for _, p := range posts {
		data.Posts = append(data.Posts, postView(p))
	}
	s.renderTemplate(w, r, "blog.html", http.StatusOK, data)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.Post(r.PathValue("slug"))
	if errors.Is(err, blog.ErrNotFound) {
		s.handle404(w, r)
		return
	}
	if err != nil {
		s.logger.Printf("Error loading post %q: %v", r.PathValue("slug"), err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	body, err := s.posts.Render(post)
	if err != nil {
		s.logger.Printf("Error rendering post %q: %v", post.Slug, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := PostPageData{
		BaseTemplateData: s.baseData(r.Context(), post.Title, "blog"),
		Post:             postView(post),
		Body:             body,
	}
	s.renderTemplate(w, r, "post.html", http.StatusOK, data)
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	list, err := quotes.Load(s.quotesPath())
	if err != nil {
		s.logger.Printf("Error loading quotes: %v", err)
		list = []quotes.Quote{}
	}

	data := QuotesPageData{
		BaseTemplateData: s.baseData(r.Context(), "Quotes", "quotes"),
		Quotes:           list,
	}
	s.renderTemplate(w, r, "quotes.html", http.StatusOK, data)
}

func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.Posts()
	if err != nil {
		s.logger.Printf("Error loading posts for feed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	settings := s.getSettings(r.Context())
	site := rss.Site{
		Title:       settings.Title,
		URL:         s.siteURL(r, settings),
		Description: settings.MetaDescription,
	}

	var buf bytes.Buffer
	if err := rss.FromPosts(site, posts).Write(&buf); err != nil {
		s.logger.Printf("Error encoding feed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(buf.Bytes())
}

// siteURL prefers configuration, then the stored setting, then the request host.
func (s *Server) siteURL(r *http.Request, settings SiteSettings) string {
	if s.config.SiteURL != "" {
		return s.config.SiteURL
	}
	if settings.SiteURL != "" {
		return settings.SiteURL
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Printf("Health check failed: %v", err)
		RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports the most recent fetch outcome of each configured source.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := s.db.LatestFetchBySource(r.Context())
	if err != nil {
		s.logger.Printf("Error reading fetch log: %v", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to read fetch log")
		return
	}

	status := make(map[string]*SourceStatus, len(s.config.Sections))
	for _, sec := range s.config.Sections {
		status[string(sec.Source)] = nil
	}
	for source, rec := range latest {
		status[source] = &SourceStatus{
			OK:         rec.OK,
			ItemCount:  rec.ItemCount,
			Error:      rec.Error,
			DurationMS: rec.Duration.Milliseconds(),
			FetchedAt:  rec.FetchedAt,
		}
	}
	RespondWithJSON(w, http.StatusOK, status)
}

func (s *Server) handle404(w http.ResponseWriter, r *http.Request) {
	data := s.baseData(r.Context(), "Not found", "")
	s.renderTemplate(w, r, "404.html", http.StatusNotFound, data)
}

// renderTemplate executes the page into a buffer first so a template error
// can still produce a clean 500.
func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, name string, status int, data any) {
	tmpl, ok := s.templateCache[name]
	if !ok {
		s.logger.Printf("Template %s not found in cache", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Printf("Error executing template %s for %s: %v", name, r.URL.Path, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
