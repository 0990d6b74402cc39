// Package navigation registers menus, the links bound to them, and the
// columns shown for objects in lists.
package navigation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/localnerve/docsdb/internal/permissions"
)

// Link is an action or view reachable from a menu. View is a route pattern;
// ":id" is replaced with the primary key of the object the menu is shown for.
type Link struct {
	Name        string
	Text        string
	View        string
	Method      string
	Permissions []*permissions.Permission
}

// ResolvedLink is a link the current user is allowed to follow
type ResolvedLink struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	URL    string `json:"url"`
	Method string `json:"method"`
}

type binding struct {
	link     *Link
	source   string
	position int
	order    int
}

// Menu is a named group of links bound to sources. A source is a content
// type, a view name, or "" for links shown everywhere.
type Menu struct {
	Name  string
	Label string

	mu       sync.RWMutex
	bindings []binding
	counter  int
}

// BindLinks binds links to each of sources at position. Links bound with a
// lower position come first; equal positions keep binding order.
func (m *Menu) BindLinks(links []*Link, sources []string, position int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(sources) == 0 {
		sources = []string{""}
	}
	for _, source := range sources {
		for _, link := range links {
			if m.bound(link, source) {
				continue
			}
			m.counter++
			m.bindings = append(m.bindings, binding{link: link, source: source, position: position, order: m.counter})
		}
	}
}

func (m *Menu) bound(link *Link, source string) bool {
	for _, b := range m.bindings {
		if b.link == link && b.source == source {
			return true
		}
	}
	return false
}

// LinksFor returns the links bound to source plus the global links
func (m *Menu) LinksFor(source string) []*Link {
	m.mu.RLock()
	matched := make([]binding, 0)
	for _, b := range m.bindings {
		if b.source == source || b.source == "" {
			matched = append(matched, b)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].position != matched[j].position {
			return matched[i].position < matched[j].position
		}
		return matched[i].order < matched[j].order
	})

	links := make([]*Link, len(matched))
	for i, b := range matched {
		links[i] = b.link
	}
	return links
}

// Resolve returns the links of source the user may follow. With obj set,
// link permissions are checked against the object's access control list.
func (m *Menu) Resolve(ctx context.Context, checker *permissions.Checker, user *permissions.User, source string, obj permissions.Object) ([]ResolvedLink, error) {
	resolved := make([]ResolvedLink, 0)
	for _, link := range m.LinksFor(source) {
		allowed, err := allowed(ctx, checker, user, link, obj)
		if err != nil {
			return nil, err
		}
		if !allowed {
			continue
		}

		url := link.View
		if obj != nil {
			url = strings.ReplaceAll(url, ":id", strconv.FormatUint(obj.PrimaryKey(), 10))
		}
		method := link.Method
		if method == "" {
			method = "GET"
		}
		resolved = append(resolved, ResolvedLink{Name: link.Name, Text: link.Text, URL: url, Method: method})
	}
	return resolved, nil
}

func allowed(ctx context.Context, checker *permissions.Checker, user *permissions.User, link *Link, obj permissions.Object) (bool, error) {
	if len(link.Permissions) == 0 {
		return true, nil
	}

	var err error
	if obj == nil {
		err = checker.CheckPermissions(ctx, user, link.Permissions...)
	} else {
		for _, perm := range link.Permissions {
			if err = checker.CheckAccess(ctx, user, perm, obj); err == nil {
				break
			}
		}
	}

	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, permissions.ErrPermissionDenied) {
		return false, nil
	}
	return false, err
}

// SourceColumn is a column shown when listing objects of a source. Either
// Attribute, a gjson path into the object's JSON form, or Func is set.
type SourceColumn struct {
	Source    string
	Label     string
	Attribute string
	Func      func(obj interface{}) interface{}
}

// ColumnValue is a rendered column
type ColumnValue struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

// Registry holds menus and source columns
type Registry struct {
	mu      sync.RWMutex
	menus   map[string]*Menu
	columns map[string][]*SourceColumn
}

// NewRegistry creates a registry
func NewRegistry() *Registry {
	return &Registry{menus: map[string]*Menu{}, columns: map[string][]*SourceColumn{}}
}

// Menu returns the menu called name, creating it on first use
func (r *Registry) Menu(name, label string) *Menu {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.menus[name]; ok {
		return m
	}
	m := &Menu{Name: name, Label: label}
	r.menus[name] = m
	return m
}

// GetMenu looks up a menu without creating it
func (r *Registry) GetMenu(name string) (*Menu, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.menus[name]
	return m, ok
}

// AddSourceColumn registers a column for its source
func (r *Registry) AddSourceColumn(col *SourceColumn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.columns[col.Source] = append(r.columns[col.Source], col)
}

// Columns returns the columns registered for source
func (r *Registry) Columns(source string) []*SourceColumn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*SourceColumn(nil), r.columns[source]...)
}

// Render evaluates the columns of source for obj
func (r *Registry) Render(source string, obj interface{}) []ColumnValue {
	columns := r.Columns(source)
	values := make([]ColumnValue, 0, len(columns))

	var raw []byte
	for _, col := range columns {
		var value interface{}
		switch {
		case col.Func != nil:
			value = col.Func(obj)
		case col.Attribute != "":
			if raw == nil {
				raw, _ = json.Marshal(obj)
			}
			value = gjson.GetBytes(raw, col.Attribute).Value()
		}
		values = append(values, ColumnValue{Label: col.Label, Value: value})
	}
	return values
}
