// Package catalog registers the attributes and field paths other apps may
// reference on a model: attributes feed templates, fields feed queries.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// AttributeGetter computes the value of an attribute for an instance
type AttributeGetter func(ctx context.Context, db *gorm.DB, instance interface{}) (interface{}, error)

// ModelAttribute is a value exposed to templates, e.g. a document's content
type ModelAttribute struct {
	Model       string
	Name        string
	Description string
	Get         AttributeGetter
}

// ModelField is a queryable field path such as
// versions__pages__content__content, resolved to a column through joins
// from the model's base table.
type ModelField struct {
	Model  string
	Name   string
	Label  string
	Table  string
	Joins  []string
	Column string
}

// Registry holds the attributes and fields of every model
type Registry struct {
	mu         sync.RWMutex
	attributes map[string][]*ModelAttribute
	fields     map[string][]*ModelField
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		attributes: map[string][]*ModelAttribute{},
		fields:     map[string][]*ModelField{},
	}
}

// AddAttribute registers an attribute; a later registration with the same
// name replaces the earlier one.
func (r *Registry) AddAttribute(attr *ModelAttribute) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attrs := r.attributes[attr.Model]
	for i, existing := range attrs {
		if existing.Name == attr.Name {
			attrs[i] = attr
			return
		}
	}
	r.attributes[attr.Model] = append(attrs, attr)
}

// Attributes returns the attributes of a model sorted by name
func (r *Registry) Attributes(model string) []*ModelAttribute {
	r.mu.RLock()
	defer r.mu.RUnlock()

	attrs := append([]*ModelAttribute(nil), r.attributes[model]...)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	return attrs
}

// AddField registers a field path
func (r *Registry) AddField(field *ModelField) error {
	if field.Table == "" || field.Column == "" {
		return fmt.Errorf("field %s.%s needs a table and a column", field.Model, field.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.fields[field.Model] {
		if existing.Name == field.Name {
			return fmt.Errorf("field %s.%s already registered", field.Model, field.Name)
		}
	}
	r.fields[field.Model] = append(r.fields[field.Model], field)
	return nil
}

// Field looks up a field path of a model
func (r *Registry) Field(model, name string) (*ModelField, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.fields[model] {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Fields returns the fields of a model in registration order
func (r *Registry) Fields(model string) []*ModelField {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*ModelField(nil), r.fields[model]...)
}

// Query starts a query over the field's base table with its joins applied
func (f *ModelField) Query(db *gorm.DB) *gorm.DB {
	q := db.Table(f.Table)
	for _, join := range f.Joins {
		q = q.Joins(join)
	}
	return q
}

// Values returns, per base row id, every value the field path yields.
// Rows without a value (missing join rows) are absent from the map.
func (f *ModelField) Values(ctx context.Context, db *gorm.DB, ids []uint64) (map[uint64][]string, error) {
	type row struct {
		ID    uint64
		Value *string
	}
	var rows []row

	q := f.Query(db.WithContext(ctx)).
		Select(fmt.Sprintf("%s.id AS id, %s AS value", f.Table, f.Column))
	if ids != nil {
		q = q.Where(fmt.Sprintf("%s.id IN ?", f.Table), ids)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("read field %s: %w", f.Name, err)
	}

	values := make(map[uint64][]string, len(rows))
	for _, r := range rows {
		if r.Value == nil {
			continue
		}
		values[r.ID] = append(values[r.ID], *r.Value)
	}
	return values, nil
}

// Context evaluates every attribute of model for instance into a template
// context map. Attributes that fail to evaluate are left out.
func (r *Registry) Context(ctx context.Context, db *gorm.DB, model string, instance interface{}) map[string]interface{} {
	data := map[string]interface{}{}
	for _, attr := range r.Attributes(model) {
		value, err := attr.Get(ctx, db, instance)
		if err != nil {
			continue
		}
		data[attr.Name] = value
	}
	return data
}
