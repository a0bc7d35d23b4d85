package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/olgkv/readmecheck/internal/domain"
)

// Options controls how a document is turned into events.
type Options struct {
	// RawHTML also extracts <a href> and <img src> from inline and block HTML.
	RawHTML bool
}

// Parse extracts headers, links and link lists from markdown source.
func Parse(source []byte, opts Options) (*domain.Document, error) {
	return Fold(Events(source, opts))
}

func ParseFile(path string, opts Options) (*domain.Document, error) {
	source, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(source, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
