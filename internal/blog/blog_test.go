package blog

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePost(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestStore(t *testing.T) (*Store, string) {
	dir := t.TempDir()
	return NewStore(dir, log.New(io.Discard, "", 0)), dir
}

func TestParsePost(t *testing.T) {
	post, err := ParsePost("hello", []byte("---\r\ntitle: \"Hello: World\"\r\npublishedAt: 2024-03-05\r\nsummary: First post.\r\n---\r\n\r\n# Hi\r\n"))
	require.NoError(t, err)

	assert.Equal(t, "hello", post.Slug)
	assert.Equal(t, "Hello: World", post.Title)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), post.PublishedAt)
	assert.Equal(t, "March 5, 2024", post.Date())
	assert.Equal(t, "First post.", post.Summary)
	assert.Equal(t, "# Hi\n", string(post.Body))
}

func TestParsePost_Invalid(t *testing.T) {
	tests := map[string]string{
		"no front matter": "# just markdown\n",
		"unterminated":    "---\ntitle: x\n",
		"missing title":   "---\npublishedAt: 2024-01-01\n---\nbody",
		"bad date":        "---\ntitle: x\npublishedAt: yesterday\n---\nbody",
		"malformed yaml":  "---\ntitle: [unclosed\n---\nbody",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePost("x", []byte(content))
			assert.Error(t, err)
		})
	}
}

func TestStore_PostsSortedNewestFirst(t *testing.T) {
	store, dir := newTestStore(t)
	writePost(t, dir, "older.md", "---\ntitle: Older\npublishedAt: 2023-12-31\n---\nold")
	writePost(t, dir, "b-newest.md", "---\ntitle: B\npublishedAt: 2024-02-01\n---\nb")
	writePost(t, dir, "a-newest.md", "---\ntitle: A\npublishedAt: 2024-02-01\n---\na")
	writePost(t, dir, "broken.md", "no front matter")
	writePost(t, dir, "notes.txt", "ignored")
	writePost(t, dir, "Bad Slug.md", "---\ntitle: Bad\npublishedAt: 2024-01-01\n---\n")

	posts, err := store.Posts()
	require.NoError(t, err)

	var slugs []string
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	assert.Equal(t, []string{"a-newest", "b-newest", "older"}, slugs)
}

func TestStore_MissingDirectory(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"), log.New(io.Discard, "", 0))
	posts, err := store.Posts()
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestStore_PostAndRender(t *testing.T) {
	store, dir := newTestStore(t)
	writePost(t, dir, "intro.md", "---\ntitle: Intro\npublishedAt: 2024-01-01\n---\n## Section\n\nSome *emphasis* and a [link](https://example.com).\n")

	post, err := store.Post("intro")
	require.NoError(t, err)
	html, err := store.Render(post)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h2>Section</h2>")
	assert.Contains(t, string(html), "<em>emphasis</em>")
	assert.Contains(t, string(html), `<a href="https://example.com">link</a>`)

	_, err = store.Post("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Post("../intro")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RenderOmitsRawHTML(t *testing.T) {
	store, _ := newTestStore(t)
	html, err := store.Render(Post{Slug: "x", Body: []byte("<script>alert(1)</script>\n\ntext")})
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(html), "<script>"))
}
