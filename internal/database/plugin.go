package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/signals"
)

const pluginName = "docsdb:signals"

// signalsPlugin turns GORM create/update callbacks into post-save signals
type signalsPlugin struct{}

// Name implements gorm.Plugin
func (signalsPlugin) Name() string {
	return pluginName
}

// Initialize implements gorm.Plugin
func (p signalsPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register(pluginName+":after_create", p.afterCreate); err != nil {
		return err
	}
	return db.Callback().Update().After("gorm:update").Register(pluginName+":after_update", p.afterUpdate)
}

// Use registers the signals plugin once per *gorm.DB
func Use(db *gorm.DB) error {
	if _, ok := db.Config.Plugins[pluginName]; ok {
		return nil
	}
	return db.Use(signalsPlugin{})
}

func (p signalsPlugin) afterCreate(db *gorm.DB) {
	p.dispatch(db, true)
}

func (p signalsPlugin) afterUpdate(db *gorm.DB) {
	p.dispatch(db, false)
}

func (p signalsPlugin) dispatch(db *gorm.DB, created bool) {
	if db.Error != nil || db.Statement.Schema == nil {
		return
	}
	if db.Statement.Schema.Table != (models.DocumentType{}).TableName() {
		return
	}
	// Association upserts of existing rows insert nothing.
	if created && db.Statement.RowsAffected == 0 {
		return
	}

	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	// Receivers write through the same connection/transaction as the statement,
	// on a fresh statement so chaining never replays the in-flight insert.
	tx := db.Session(&gorm.Session{NewDB: true}).Scopes().Session(&gorm.Session{NewDB: true})

	for _, instance := range documentTypes(db.Statement.Dest) {
		if instance.ID == 0 {
			continue
		}
		errs := signals.PostDocumentTypeSave.Send(ctx, signals.ModelEvent[*models.DocumentType]{
			DB:       tx,
			Instance: instance,
			Created:  created,
		})
		if len(errs) > 0 {
			_ = db.AddError(errs[0])
			return
		}
	}
}

func documentTypes(dest interface{}) []*models.DocumentType {
	switch v := dest.(type) {
	case *models.DocumentType:
		return []*models.DocumentType{v}
	case []models.DocumentType:
		out := make([]*models.DocumentType, len(v))
		for i := range v {
			out[i] = &v[i]
		}
		return out
	case *[]models.DocumentType:
		out := make([]*models.DocumentType, len(*v))
		for i := range *v {
			out[i] = &(*v)[i]
		}
		return out
	case []*models.DocumentType:
		return v
	}
	return nil
}
