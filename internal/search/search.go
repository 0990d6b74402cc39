// Package search runs term queries over the field paths registered for a
// model.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/hints"

	"github.com/localnerve/docsdb/internal/catalog"
)

// Field is a searchable field of a model
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Model is a searchable model, e.g. documents
type Model struct {
	Name        string
	Label       string
	ContentType string

	catalog *catalog.Registry
	mu      sync.RWMutex
	fields  []Field
}

// AddModelField makes a registered catalog field searchable
func (m *Model) AddModelField(field, label string) error {
	if _, ok := m.catalog.Field(m.ContentType, field); !ok {
		return fmt.Errorf("search model %s: unknown field %s", m.Name, field)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.fields {
		if f.Name == field {
			return nil
		}
	}
	m.fields = append(m.fields, Field{Name: field, Label: label})
	return nil
}

// Fields returns the searchable fields
func (m *Model) Fields() []Field {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Field(nil), m.fields...)
}

// Search returns the ids of the rows where any searchable field contains
// term, case-insensitively, in ascending order.
func (m *Model) Search(ctx context.Context, db *gorm.DB, term string) ([]uint64, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []uint64{}, nil
	}
	pattern := "%" + strings.ToLower(term) + "%"

	matches := mapset.NewThreadUnsafeSet[uint64]()
	for _, f := range m.Fields() {
		field, ok := m.catalog.Field(m.ContentType, f.Name)
		if !ok {
			continue
		}

		var ids []uint64
		err := field.Query(db.WithContext(ctx)).
			Clauses(hints.CommentBefore("select", "search:"+m.Name)).
			Distinct(field.Table+".id").
			Where(fmt.Sprintf("LOWER(%s) LIKE ?", field.Column), pattern).
			Pluck(field.Table+".id", &ids).Error
		if err != nil {
			return nil, errors.Wrapf(err, "search %s by %s", m.Name, f.Name)
		}
		matches.Append(ids...)
	}

	result := matches.ToSlice()
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

// Registry holds the search models by name
type Registry struct {
	catalog *catalog.Registry
	mu      sync.RWMutex
	models  map[string]*Model
}

// NewRegistry creates a registry resolving fields through reg
func NewRegistry(reg *catalog.Registry) *Registry {
	return &Registry{catalog: reg, models: map[string]*Model{}}
}

// Register adds or returns the search model called name
func (r *Registry) Register(name, label, contentType string) *Model {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.models[name]; ok {
		return m
	}
	m := &Model{Name: name, Label: label, ContentType: contentType, catalog: r.catalog}
	r.models[name] = m
	return m
}

// Get looks up a search model
func (r *Registry) Get(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}
