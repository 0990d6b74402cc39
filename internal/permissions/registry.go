// Package permissions holds the permission registry and evaluates role
// grants and object access control lists.
package permissions

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Permission is a named capability within a namespace
type Permission struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Label     string `json:"label"`
}

// PK is the stored identifier, e.g. linking.smart_link_view
func (p *Permission) PK() string {
	return fmt.Sprintf("%s.%s", p.Namespace, p.Name)
}

// Namespace groups the permissions of an app
type Namespace struct {
	Name  string
	Label string
}

// ParentResolver returns the object an object inherits its access control
// list from, e.g. document type settings inherit from the document type.
type ParentResolver func(ctx context.Context, db *gorm.DB, objectID uint64) (contentType string, parentID uint64, err error)

var (
	mu           sync.RWMutex
	namespaces   = map[string]*Namespace{}
	permissions  = map[string]*Permission{}
	modelPerms   = map[string][]*Permission{}
	inheritances = map[string]ParentResolver{}
)

// NewNamespace registers a namespace
func NewNamespace(name, label string) *Namespace {
	mu.Lock()
	defer mu.Unlock()

	if ns, ok := namespaces[name]; ok {
		return ns
	}
	ns := &Namespace{Name: name, Label: label}
	namespaces[name] = ns
	return ns
}

// AddPermission registers a permission in the namespace. Adding an existing
// permission returns the registered instance.
func (n *Namespace) AddPermission(name, label string) *Permission {
	mu.Lock()
	defer mu.Unlock()

	p := &Permission{Namespace: n.Name, Name: name, Label: label}
	if existing, ok := permissions[p.PK()]; ok {
		return existing
	}
	permissions[p.PK()] = p
	return p
}

// Get looks up a permission by its PK
func Get(pk string) (*Permission, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := permissions[pk]
	return p, ok
}

// All returns every registered permission sorted by PK
func All() []*Permission {
	mu.RLock()
	defer mu.RUnlock()

	all := make([]*Permission, 0, len(permissions))
	for _, p := range permissions {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PK() < all[j].PK() })
	return all
}

// RegisterModel declares which permissions can be granted on objects of a
// content type through access control lists.
func RegisterModel(contentType string, perms ...*Permission) {
	mu.Lock()
	defer mu.Unlock()

	existing := modelPerms[contentType]
	for _, p := range perms {
		found := false
		for _, e := range existing {
			if e.PK() == p.PK() {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, p)
		}
	}
	modelPerms[contentType] = existing
}

// ForModel returns the permissions registered for a content type
func ForModel(contentType string) []*Permission {
	mu.RLock()
	defer mu.RUnlock()

	perms := make([]*Permission, len(modelPerms[contentType]))
	copy(perms, modelPerms[contentType])
	return perms
}

// IsRegisteredFor reports whether perm may be granted on contentType,
// directly or through its inheritance chain.
func IsRegisteredFor(contentType string, perm *Permission) bool {
	for _, p := range ForModel(contentType) {
		if p.PK() == perm.PK() {
			return true
		}
	}
	mu.RLock()
	_, inherits := inheritances[contentType]
	mu.RUnlock()
	return inherits
}

// RegisterInheritance makes objects of contentType inherit the access
// control list of the object returned by resolver.
func RegisterInheritance(contentType string, resolver ParentResolver) {
	mu.Lock()
	defer mu.Unlock()
	inheritances[contentType] = resolver
}

func inheritanceFor(contentType string) (ParentResolver, bool) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := inheritances[contentType]
	return r, ok
}
