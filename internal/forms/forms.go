// Package forms builds the read-only content forms served for documents and
// document pages.
package forms

import (
	"fmt"
	"strings"

	"github.com/localnerve/docsdb/internal/models"
)

// pageDivider follows the text of every page in the document content form
const pageDivider = "\n\n\n<hr/><div class=\"document-page-content-divider\">- Page %d -</div><hr/>\n\n\n"

// escaper writes ' as &#x27;, where html.EscapeString would emit &#39;
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// Escape makes page text safe to embed in HTML
func Escape(text string) string {
	return escaper.Replace(text)
}

// Widget describes how a client should render a field
type Widget struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs"`
}

// Field is a single form field with its initial value
type Field struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Initial string `json:"initial"`
	Widget  Widget `json:"widget"`
}

// Form is an ordered set of fields
type Form struct {
	Fields []Field `json:"fields"`
}

// Field returns the field called name
func (f *Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

func contentsField(initial string) Field {
	return Field{
		Name:    "contents",
		Label:   "Contents",
		Initial: initial,
		Widget: Widget{
			Type: "text_area_div",
			Attrs: map[string]interface{}{
				"class":                  "text_area_div full-height",
				"data-height-difference": 360,
			},
		},
	}
}

// NewDocumentContentForm concatenates the escaped text of pages, each
// followed by a page divider. Pages are expected in page order with their
// content preloaded; pages without content are skipped.
func NewDocumentContentForm(pages []models.DocumentPage) *Form {
	var b strings.Builder
	for _, page := range pages {
		if page.Content == nil {
			continue
		}
		b.WriteString(Escape(page.Content.Content))
		fmt.Fprintf(&b, pageDivider, page.PageNumber)
	}
	return &Form{Fields: []Field{contentsField(b.String())}}
}

// NewDocumentPageContentForm holds the escaped text of a single page
func NewDocumentPageContentForm(page *models.DocumentPage) *Form {
	initial := ""
	if page != nil && page.Content != nil {
		initial = Escape(page.Content.Content)
	}
	return &Form{Fields: []Field{contentsField(initial)}}
}
