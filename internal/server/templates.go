// internal/server/templates.go
package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"time"
)

//go:embed web/templates web/static
var rawContent embed.FS

// webContent holds the virtual filesystem for web assets.
var webContent fs.FS

func init() {
	var err error
	webContent, err = fs.Sub(rawContent, "web")
	if err != nil {
		panic(fmt.Sprintf("failed to create virtual filesystem for web content: %v", err))
	}
}

const layoutFile = "layout.html"

// LoadTemplates parses every page under templates/ together with the shared
// layout, keyed by file name. Pages define "content"; the layout is executed.
func LoadTemplates(content fs.FS, funcMap template.FuncMap) (map[string]*template.Template, error) {
	pages, err := fs.Glob(content, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("error listing templates: %w", err)
	}

	layoutPath := path.Join("templates", layoutFile)
	if _, err := fs.Stat(content, layoutPath); err != nil {
		return nil, fmt.Errorf("layout template not found at %s: %w", layoutPath, err)
	}

	templates := make(map[string]*template.Template)
	for _, page := range pages {
		name := path.Base(page)
		if name == layoutFile {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(content, layoutPath, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s with layout: %w", page, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

// registerTemplateFuncs defines functions available to templates.
func (s *Server) registerTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"imgURL": imageURL,
		"join":   strings.Join,
		"stars": func(n int) string {
			return strings.Repeat("★", n)
		},
		"truncate": truncateText,
		"year":     func() int { return time.Now().Year() },
	}
}

// imageURL routes remote images through the proxy; local paths pass through.
func imageURL(src string) string {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return src
	}
	return "/img?src=" + url.QueryEscape(src)
}
