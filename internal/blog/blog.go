// Package blog reads markdown posts with YAML front matter from a directory.
package blog

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

const (
	DateLayout    = "2006-01-02"
	DisplayLayout = "January 2, 2006"
	postExt       = ".md"
)

var (
	ErrNotFound       = errors.New("post not found")
	ErrNoFrontMatter  = errors.New("post has no front matter")
	validSlug         = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	frontMatterMarker = []byte("---")
)

type Post struct {
	Slug        string
	Title       string
	PublishedAt time.Time
	Summary     string
	Image       string
	Body        []byte
}

type frontMatter struct {
	Title       string `yaml:"title"`
	PublishedAt string `yaml:"publishedAt"`
	Summary     string `yaml:"summary"`
	Image       string `yaml:"image"`
}

// Date formats PublishedAt for display.
func (p Post) Date() string {
	return p.PublishedAt.Format(DisplayLayout)
}

type Store struct {
	dir    string
	md     goldmark.Markdown
	logger *log.Logger
}

func NewStore(dir string, logger *log.Logger) *Store {
	return &Store{
		dir:    dir,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Typographer)),
		logger: logger,
	}
}

// Posts returns every readable post, newest first. A missing directory yields
// no posts; a malformed post is logged and skipped.
func (s *Store) Posts() ([]Post, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Post{}, nil
		}
		return nil, fmt.Errorf("reading posts directory: %w", err)
	}

	posts := make([]Post, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != postExt {
			continue
		}
		slug := strings.TrimSuffix(e.Name(), postExt)
		if !validSlug.MatchString(slug) {
			s.logger.Printf("Skipping post with invalid slug %q", e.Name())
			continue
		}
		post, err := s.load(slug)
		if err != nil {
			s.logger.Printf("Skipping post %s: %v", slug, err)
			continue
		}
		posts = append(posts, post)
	}

	SortPosts(posts)
	return posts, nil
}

// Post returns a single post by slug.
func (s *Store) Post(slug string) (Post, error) {
	if !validSlug.MatchString(slug) {
		return Post{}, ErrNotFound
	}
	post, err := s.load(slug)
	if errors.Is(err, os.ErrNotExist) {
		return Post{}, ErrNotFound
	}
	return post, err
}

func (s *Store) load(slug string) (Post, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, slug+postExt))
	if err != nil {
		return Post{}, err
	}
	return ParsePost(slug, data)
}

// Render converts the post body to HTML.
func (s *Store) Render(p Post) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.md.Convert(p.Body, &buf); err != nil {
		return "", fmt.Errorf("rendering %s: %w", p.Slug, err)
	}
	return template.HTML(buf.String()), nil
}

// ParsePost splits a file into front matter and markdown body.
func ParsePost(slug string, data []byte) (Post, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, append(frontMatterMarker, '\n')) {
		return Post{}, ErrNoFrontMatter
	}
	rest := data[len(frontMatterMarker)+1:]
	end := bytes.Index(rest, append([]byte("\n"), frontMatterMarker...))
	if end < 0 {
		return Post{}, ErrNoFrontMatter
	}
	head, body := rest[:end], rest[end+len(frontMatterMarker)+1:]
	body = bytes.TrimLeft(body, "\n")

	var fm frontMatter
	if err := yaml.Unmarshal(head, &fm); err != nil {
		return Post{}, fmt.Errorf("parsing front matter: %w", err)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return Post{}, fmt.Errorf("front matter has no title")
	}
	published, err := time.Parse(DateLayout, strings.TrimSpace(fm.PublishedAt))
	if err != nil {
		return Post{}, fmt.Errorf("invalid publishedAt %q: %w", fm.PublishedAt, err)
	}

	return Post{
		Slug:        slug,
		Title:       strings.TrimSpace(fm.Title),
		PublishedAt: published,
		Summary:     strings.TrimSpace(fm.Summary),
		Image:       strings.TrimSpace(fm.Image),
		Body:        body,
	}, nil
}

// SortPosts orders posts newest first, breaking ties by slug.
func SortPosts(posts []Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].PublishedAt.Equal(posts[j].PublishedAt) {
			return posts[i].PublishedAt.After(posts[j].PublishedAt)
		}
		return posts[i].Slug < posts[j].Slug
	})
}
