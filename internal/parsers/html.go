package parsers

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// HTMLParser extracts the visible text of an HTML document as one page
type HTMLParser struct{}

// NewHTMLParser creates an HTMLParser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

func (p *HTMLParser) Name() string { return "html" }

func (p *HTMLParser) SupportedTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (p *HTMLParser) Parse(ctx context.Context, content []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create document from HTML content")
	}

	doc.Find("script, style, noscript, template").Remove()

	lines := make([]string, 0)
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return []string{strings.Join(lines, "\n")}, nil
}
