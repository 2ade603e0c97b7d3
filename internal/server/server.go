// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"muses/internal/blog"
	"muses/internal/database"
	"muses/internal/muses"
	"muses/internal/upstream"
)

type Config struct {
	ProductionMode bool
	// ContentDir holds posts/ and quotes.yaml.
	ContentDir string
	// SiteURL is the public base URL used in the RSS feed; empty derives it
	// from the request.
	SiteURL    string
	Sections   []muses.SectionConfig
	ImageHosts []ImageHost
	// ImageRate is the per-client request rate allowed on the image proxy.
	ImageRate  float64
	ImageBurst int
}

// Dashboard is the aggregation the index page renders.
type Dashboard interface {
	Dashboard(ctx context.Context, configs []muses.SectionConfig) []muses.Section
}

type Server struct {
	db            *database.DB
	logger        *log.Logger
	dashboard     Dashboard
	posts         *blog.Store
	images        *ImageProxy
	config        Config
	templateCache map[string]*template.Template
}

func NewServer(db *database.DB, logger *log.Logger, dashboard Dashboard, httpClient *upstream.Client, config Config) (*Server, error) {
	if config.ImageRate <= 0 {
		config.ImageRate = 20
	}
	if config.ImageBurst <= 0 {
		config.ImageBurst = 40
	}

	s := &Server{
		db:        db,
		logger:    logger,
		dashboard: dashboard,
		posts:     blog.NewStore(postsDir(config.ContentDir), logger),
		images:    NewImageProxy(config.ImageHosts, httpClient, logger, config.ProductionMode),
		config:    config,
	}

	templates, err := LoadTemplates(webContent, s.registerTemplateFuncs())
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	s.templateCache = templates
	if !s.config.ProductionMode {
		s.logger.Printf("Successfully loaded and cached %d templates.", len(s.templateCache))
		s.logger.Printf("Server initialized successfully")
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(webContent, "static")
	if err != nil {
		panic(fmt.Sprintf("static assets missing from embedded content: %v", err))
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	limiter := newRateLimiter(s.config.ImageRate, s.config.ImageBurst)
	mux.Handle("GET /img", limiter.Middleware(s.images))

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /rss.xml", s.handleRSS)
	mux.HandleFunc("GET /quotes", s.handleQuotes)
	mux.HandleFunc("GET /blog", s.handleBlog)
	mux.HandleFunc("GET /blog/{slug}", s.handlePost)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("/", s.handle404)

	var h http.Handler = mux
	h = gzipMiddleware(h)
	h = securityHeadersMiddleware(h)
	h = s.recoveryMiddleware(h)
	h = s.accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Printf("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
