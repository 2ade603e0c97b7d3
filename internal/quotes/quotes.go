// Package quotes loads the quotes page from a YAML file.
package quotes

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Quote struct {
	Text   string `yaml:"text"`
	Author string `yaml:"author"`
	Work   string `yaml:"work,omitempty"`
}

type file struct {
	Quotes []Quote `yaml:"quotes"`
}

// Load reads quotes in file order. A missing file yields an empty list.
func Load(path string) ([]Quote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Quote{}, nil
		}
		return nil, fmt.Errorf("reading quotes: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]Quote, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing quotes: %w", err)
	}
	out := make([]Quote, 0, len(f.Quotes))
	for i, q := range f.Quotes {
		q.Text = strings.TrimSpace(q.Text)
		q.Author = strings.TrimSpace(q.Author)
		q.Work = strings.TrimSpace(q.Work)
		if q.Text == "" || q.Author == "" {
			return nil, fmt.Errorf("parsing quotes: entry %d needs text and author", i)
		}
		out = append(out, q)
	}
	return out, nil
}
