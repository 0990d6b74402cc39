package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/localnerve/docsdb/internal/config"
	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/signals"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Use(db))
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestPostDocumentTypeSaveSignal(t *testing.T) {
	db := setupTestDB(t)

	var events []signals.ModelEvent[*models.DocumentType]
	signals.PostDocumentTypeSave.Connect("test_post_save", func(ctx context.Context, ev signals.ModelEvent[*models.DocumentType]) error {
		events = append(events, ev)
		if !ev.Created {
			return nil
		}
		// Receivers can write through the event handle while the create is in flight.
		return ev.DB.Create(&models.DocumentTypeSettings{DocumentTypeID: ev.Instance.ID, AutoParsing: true}).Error
	})
	t.Cleanup(func() { signals.PostDocumentTypeSave.Disconnect("test_post_save") })

	docType := models.DocumentType{Label: "invoice"}
	require.NoError(t, db.Create(&docType).Error)

	docType.Label = "invoices"
	require.NoError(t, db.Save(&docType).Error)

	require.Len(t, events, 2)
	assert.True(t, events[0].Created)
	assert.False(t, events[1].Created)

	var count int64
	db.Model(&models.DocumentTypeSettings{}).Where("document_type_id = ?", docType.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPostSaveReceiverCanQuery(t *testing.T) {
	db := setupTestDB(t)

	var found []models.DocumentType
	signals.PostDocumentTypeSave.Connect("test_query", func(ctx context.Context, ev signals.ModelEvent[*models.DocumentType]) error {
		return ev.DB.WithContext(ctx).Where("label = ?", ev.Instance.Label).Find(&found).Error
	})
	t.Cleanup(func() { signals.PostDocumentTypeSave.Disconnect("test_query") })

	docType := models.DocumentType{Label: "invoice"}
	require.NoError(t, db.Create(&docType).Error)
	require.Len(t, found, 1)
	assert.Equal(t, docType.ID, found[0].ID)

	var count int64
	require.NoError(t, db.Model(&models.DocumentType{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A second type still inserts once
	require.NoError(t, db.Create(&models.DocumentType{Label: "receipt"}).Error)
	require.NoError(t, db.Model(&models.DocumentType{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestPluginIgnoresOtherModels(t *testing.T) {
	db := setupTestDB(t)

	called := false
	signals.PostDocumentTypeSave.Connect("test_ignore", func(ctx context.Context, ev signals.ModelEvent[*models.DocumentType]) error {
		called = true
		return nil
	})
	t.Cleanup(func() { signals.PostDocumentTypeSave.Disconnect("test_ignore") })

	require.NoError(t, db.Create(&models.RolePermission{Role: "user", Permission: "linking.smart_link_view"}).Error)
	assert.False(t, called)
}

func TestDialectorRejectsUnknownType(t *testing.T) {
	_, err := Dialector(&config.Config{DBType: "oracle"})
	assert.EqualError(t, err, "unsupported database type: oracle")
}

func TestDialectorKnownTypes(t *testing.T) {
	for _, dbType := range []string{"mysql", "mariadb", "postgres", "sqlite", "sqlserver"} {
		d, err := Dialector(&config.Config{DBType: dbType, DBHost: "db", DBPort: "1", DBDatabase: "docs", DBUser: "u"})
		require.NoError(t, err, dbType)
		assert.NotNil(t, d, dbType)
	}
}
