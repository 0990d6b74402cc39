package parsers

import (
	"bytes"
	"context"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// pageBreak is the form feed separating pages in plain text files
const pageBreak = "\f"

// TextParser splits plain text into pages at form feeds
type TextParser struct{}

// NewTextParser creates a TextParser
func NewTextParser() *TextParser {
	return &TextParser{}
}

func (p *TextParser) Name() string { return "text" }

func (p *TextParser) SupportedTypes() []string {
	return []string{"text/plain", "text/csv", "text/markdown"}
}

func (p *TextParser) Parse(ctx context.Context, content []byte) ([]string, error) {
	if !utf8.Valid(content) {
		return nil, errors.New("content is not valid UTF-8")
	}
	parts := bytes.Split(content, []byte(pageBreak))
	pages := make([]string, len(parts))
	for i, part := range parts {
		pages[i] = string(part)
	}
	return pages, nil
}

func (p *TextParser) PageCount(ctx context.Context, content []byte) (int, error) {
	return bytes.Count(content, []byte(pageBreak)) + 1, nil
}
