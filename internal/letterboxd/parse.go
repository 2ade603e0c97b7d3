package letterboxd

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	fullStar          = '★'
	halfStar          = '½'
	maxRating         = 5
	titleSep          = " - "
	watchedDateLayout = "2006-01-02"
)

// SplitTitle separates "Title, Year - ★★★★½" into the display title and the
// glyph suffix. The suffix is only taken when it is made of star glyphs, so
// titles that contain " - " themselves stay intact. No separator yields an
// empty rating string.
func SplitTitle(raw string) (title, stars string) {
	idx := strings.LastIndex(raw, titleSep)
	if idx < 0 {
		return raw, ""
	}
	tail := strings.TrimSpace(raw[idx+len(titleSep):])
	if tail == "" || strings.TrimFunc(tail, isStarGlyph) != "" {
		return raw, ""
	}
	return strings.TrimSpace(raw[:idx]), tail
}

func isStarGlyph(r rune) bool {
	return r == fullStar || r == halfStar
}

// ParseRating counts whole stars after dropping half-star glyphs, clamped to
// [0, 5]: "★★★★½" is 4, "" is 0.
func ParseRating(stars string) int {
	n := strings.Count(strings.ReplaceAll(stars, string(halfStar), ""), string(fullStar))
	if n > maxRating {
		return maxRating
	}
	return n
}

func parseWatchedDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(watchedDateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return nil
		}
	}
	return &t
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// parseDescription walks the HTML embedded in the item description and
// returns the first <img> src plus the remaining text.
func parseDescription(description string) (poster, text string) {
	if description == "" {
		return "", ""
	}
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(description))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return poster, strings.TrimSpace(whitespaceRun.ReplaceAllString(sb.String(), " "))
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "img" && poster == "" {
				for _, attr := range tok.Attr {
					if attr.Key == "src" {
						poster = attr.Val
						break
					}
				}
			}
			if tok.Data == "p" || tok.Data == "br" {
				sb.WriteByte(' ')
			}
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
