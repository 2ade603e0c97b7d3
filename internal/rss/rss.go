// Package rss builds the site's outgoing RSS 2.0 feed of blog posts.
package rss

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"muses/internal/blog"
)

const atomNS = "http://www.w3.org/2005/Atom"

// RSS is the root element of an RSS feed.
type RSS struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	XMLNSAtom string   `xml:"xmlns:atom,attr"`
	Channel   Channel  `xml:"channel"`
}

// Channel represents the channel element in an RSS feed.
type Channel struct {
	XMLName       xml.Name  `xml:"channel"`
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"` // RFC1123Z
	AtomLink      *AtomLink `xml:"atom:link,omitempty"`
	Items         []Item    `xml:"item"`
}

// AtomLink is the self reference feed validators expect.
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// Item represents an item element in an RSS feed.
type Item struct {
	XMLName     xml.Name `xml:"item"`
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description,omitempty"`
	PubDate     string   `xml:"pubDate,omitempty"` // RFC1123Z
	GUID        string   `xml:"guid,omitempty"`
}

// Site describes the channel.
type Site struct {
	Title       string
	URL         string
	Description string
}

// FromPosts builds a feed from posts, which are expected newest first.
func FromPosts(site Site, posts []blog.Post) RSS {
	base := strings.TrimRight(site.URL, "/")
	ch := Channel{
		Title:       site.Title,
		Link:        base + "/",
		Description: site.Description,
		Language:    "en",
		AtomLink:    &AtomLink{Href: base + "/rss.xml", Rel: "self", Type: "application/rss+xml"},
		Items:       make([]Item, 0, len(posts)),
	}
	if len(posts) > 0 {
		ch.LastBuildDate = posts[0].PublishedAt.Format(time.RFC1123Z)
	}
	for _, p := range posts {
		link := fmt.Sprintf("%s/blog/%s", base, p.Slug)
		ch.Items = append(ch.Items, Item{
			Title:       p.Title,
			Link:        link,
			Description: p.Summary,
			PubDate:     p.PublishedAt.Format(time.RFC1123Z),
			GUID:        link,
		})
	}
	return RSS{Version: "2.0", XMLNSAtom: atomNS, Channel: ch}
}

// Write encodes the feed with an XML header.
func (r RSS) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding rss: %w", err)
	}
	return enc.Flush()
}
