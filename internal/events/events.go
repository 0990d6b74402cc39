// Package events records what happened to documents in the action log.
package events

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/models"
)

// Object is anything that can be referenced by an action
type Object interface {
	ContentType() string
	PrimaryKey() uint64
}

// Type is a registered event type, e.g. document_parsing.document_version_submit
type Type struct {
	Namespace string
	Name      string
	Label     string
}

// ID is the dotted verb stored in the action log
func (t *Type) ID() string {
	return fmt.Sprintf("%s.%s", t.Namespace, t.Name)
}

// Commit stores an action for this event type. actor may be empty for
// actions performed by background tasks.
func (t *Type) Commit(ctx context.Context, db *gorm.DB, actor string, target, actionObject Object, data map[string]interface{}) error {
	action := models.Action{
		Verb:  t.ID(),
		Actor: actor,
	}
	if target != nil {
		action.TargetType = target.ContentType()
		action.TargetID = target.PrimaryKey()
	}
	if actionObject != nil {
		action.ActionObjectType = actionObject.ContentType()
		action.ActionObjectID = actionObject.PrimaryKey()
	}
	if len(data) > 0 {
		action.Data = models.JSONMap{JSONMap: datatypes.JSONMap(data)}
	}

	if err := db.WithContext(ctx).Create(&action).Error; err != nil {
		return errors.Wrapf(err, "commit event %s", t.ID())
	}
	return nil
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Type{}
)

// Register adds an event type to the registry and returns it. Registering
// the same id twice returns the first instance.
func Register(namespace, name, label string) *Type {
	registryMu.Lock()
	defer registryMu.Unlock()

	t := &Type{Namespace: namespace, Name: name, Label: label}
	if existing, ok := registry[t.ID()]; ok {
		return existing
	}
	registry[t.ID()] = t
	return t
}

// All returns the registered event types sorted by id
func All() []*Type {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]*Type, 0, len(registry))
	for _, t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID() < types[j].ID() })
	return types
}

// ForTarget returns the actions recorded against a target, newest first
func ForTarget(ctx context.Context, db *gorm.DB, target Object) ([]models.Action, error) {
	var actions []models.Action
	err := db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", target.ContentType(), target.PrimaryKey()).
		Order("timestamp DESC, id DESC").
		Find(&actions).Error
	return actions, errors.Wrap(err, "list actions")
}
