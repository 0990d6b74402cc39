package parsers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// PDFParser extracts the plain text of every page of a PDF
type PDFParser struct{}

// NewPDFParser creates a PDFParser
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) Name() string { return "pdf" }

func (p *PDFParser) SupportedTypes() []string {
	return []string{"application/pdf"}
}

func (p *PDFParser) open(content []byte) (r *pdf.Reader, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, errors.Wrap(err, "open pdf")
	}
	return r, nil
}

func (p *PDFParser) Parse(ctx context.Context, content []byte) (pages []string, err error) {
	r, err := p.open(content)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	total := r.NumPage()
	pages = make([]string, 0, total)
	for pageIndex := 1; pageIndex <= total; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(pageIndex)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, errors.Wrapf(err, "page %d", pageIndex)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func (p *PDFParser) PageCount(ctx context.Context, content []byte) (int, error) {
	r, err := p.open(content)
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
