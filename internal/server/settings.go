// internal/server/settings.go
package server

import (
	"context"

	"muses/internal/database"
)

// SiteSettings are the layout values stored in the settings table.
type SiteSettings struct {
	Title           string
	AuthorName      string
	Bio             string
	FooterText      string
	SiteURL         string
	MetaDescription string
}

func settingsFromMap(m map[string]string) SiteSettings {
	get := func(key string) string {
		if v, ok := m[key]; ok {
			return v
		}
		return database.DefaultSettings[key]
	}
	return SiteSettings{
		Title:           get("site_title"),
		AuthorName:      get("author_name"),
		Bio:             get("bio"),
		FooterText:      get("footer_text"),
		SiteURL:         get("site_url"),
		MetaDescription: get("meta_description"),
	}
}

// getSettings falls back to the defaults when the table cannot be read, so a
// database hiccup never takes the pages down.
func (s *Server) getSettings(ctx context.Context) SiteSettings {
	m, err := s.db.GetSettings(ctx)
	if err != nil {
		s.logger.Printf("Error getting settings: %v", err)
		return settingsFromMap(nil)
	}
	return settingsFromMap(m)
}
