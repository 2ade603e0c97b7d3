package main

import (
	"log"

	"muses/internal/config"
	"muses/internal/goodreads"
	"muses/internal/lastfm"
	"muses/internal/letterboxd"
	"muses/internal/literal"
	"muses/internal/muses"
	"muses/internal/server"
	"muses/internal/upstream"
)

// newAggregator builds one adapter per configured source. Sources without
// their required settings are left nil and report as unavailable.
func newAggregator(cfg *config.Config, httpClient *upstream.Client, recorder muses.FetchRecorder, logger *log.Logger) (*muses.Aggregator, error) {
	statuses, err := cfg.BookStatuses()
	if err != nil {
		return nil, err
	}

	var src muses.Sources
	if cfg.Literal.Email != "" {
		src.Books = literal.NewClient(cfg.Literal.Endpoint, httpClient)
	}
	if cfg.Goodreads.ListURL != "" {
		src.BookList = goodreads.NewScraper(cfg.Goodreads.ListURL, cfg.GoodreadsOptions(), httpClient, logger)
	}
	if cfg.Letterboxd.FeedURL != "" {
		src.Films = letterboxd.NewClient(cfg.Letterboxd.FeedURL, httpClient)
	}
	if cfg.LastFM.Username != "" {
		src.Music = lastfm.NewClient(cfg.LastFM.Endpoint, cfg.LastFM.APIKey, httpClient, logger)
	}

	opts := muses.Options{
		LiteralEmail:        cfg.Literal.Email,
		LiteralPassword:     cfg.Literal.Password,
		LastFMUser:          cfg.LastFM.Username,
		BookStatuses:        statuses,
		ReadDateConcurrency: cfg.Literal.ReadDateConcurrency,
		ProductionMode:      cfg.Server.ProductionMode,
	}
	return muses.NewAggregator(src, opts, recorder, logger), nil
}

func imageHosts(cfg *config.Config) []server.ImageHost {
	hosts := make([]server.ImageHost, 0, len(cfg.Images.Allowed))
	for _, h := range cfg.Images.Allowed {
		hosts = append(hosts, server.ImageHost{Scheme: h.Scheme, Hostname: h.Hostname})
	}
	return hosts
}
