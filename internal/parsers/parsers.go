// Package parsers extracts the text of each page of a document file.
package parsers

import (
	"context"
	stderrors "errors"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// ErrNoParser is returned when no parser is registered for a mimetype
var ErrNoParser = stderrors.New("no parser available")

// Parser extracts page texts from file content
type Parser interface {
	Name() string
	SupportedTypes() []string
	Parse(ctx context.Context, content []byte) ([]string, error)
}

// PageCounter is implemented by parsers that can count pages without
// extracting their text.
type PageCounter interface {
	PageCount(ctx context.Context, content []byte) (int, error)
}

var (
	parserRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsdb_parser_runs_total",
			Help: "Total number of parser runs by parser and outcome",
		},
		[]string{"parser", "status"},
	)

	parserDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docsdb_parser_duration_seconds",
			Help:    "Time spent extracting text",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"parser"},
	)
)

// NormalizeMimeType lowercases a mimetype and drops its parameters
func NormalizeMimeType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}

// Registry maps mimetypes to the parsers able to process them, in
// registration order.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string][]Parser
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{parsers: map[string][]Parser{}}
}

// NewDefaultRegistry registers the built-in parsers
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPDFParser())
	r.Register(NewHTMLParser())
	r.Register(NewTextParser())
	return r
}

// Register adds p for each of its supported types
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range p.SupportedTypes() {
		t = NormalizeMimeType(t)
		r.parsers[t] = append(r.parsers[t], p)
	}
}

// ForMimeType returns the parsers for mimeType
func (r *Registry) ForMimeType(mimeType string) []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Parser(nil), r.parsers[NormalizeMimeType(mimeType)]...)
}

// Parse runs the parsers of mimeType in order until one succeeds. When all
// fail the last error is returned.
func (r *Registry) Parse(ctx context.Context, mimeType string, content []byte) ([]string, error) {
	candidates := r.ForMimeType(mimeType)
	if len(candidates) == 0 {
		return nil, errors.Wrapf(ErrNoParser, "mimetype %s", mimeType)
	}

	var lastErr error
	for _, p := range candidates {
		start := time.Now()
		pages, err := p.Parse(ctx, content)
		parserDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
		if err == nil {
			parserRuns.WithLabelValues(p.Name(), "success").Inc()
			return pages, nil
		}

		parserRuns.WithLabelValues(p.Name(), "failure").Inc()
		logrus.WithFields(logrus.Fields{
			"parser":   p.Name(),
			"mimetype": mimeType,
		}).WithError(err).Warn("parser failed, trying next")
		lastErr = errors.Wrapf(err, "parser %s", p.Name())
	}
	return nil, lastErr
}

// PageCount asks the first page counting parser of mimeType for the number
// of pages, defaulting to one.
func (r *Registry) PageCount(ctx context.Context, mimeType string, content []byte) int {
	for _, p := range r.ForMimeType(mimeType) {
		counter, ok := p.(PageCounter)
		if !ok {
			continue
		}
		count, err := counter.PageCount(ctx, content)
		if err != nil || count < 1 {
			continue
		}
		return count
	}
	return 1
}
