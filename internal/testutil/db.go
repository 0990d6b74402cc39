// Package testutil provides a throwaway database, fixtures and response
// assertions for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/localnerve/docsdb/internal/database"
	"github.com/localnerve/docsdb/internal/models"
)

// NewTestDB opens a migrated in-memory sqlite database with the signals
// plugin installed. A single connection keeps every query on the same
// in-memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Use(db))
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateDocumentType inserts a document type
func CreateDocumentType(t *testing.T, db *gorm.DB, label string) *models.DocumentType {
	t.Helper()
	docType := &models.DocumentType{Label: label}
	require.NoError(t, db.Create(docType).Error)
	return docType
}

// CreateDocument inserts a document with one version whose pages carry the
// given contents. An empty string leaves that page without a content row.
func CreateDocument(t *testing.T, db *gorm.DB, docType *models.DocumentType, label string, pages ...string) *models.Document {
	t.Helper()

	doc := &models.Document{
		UUID:           uuid.NewString(),
		DocumentTypeID: docType.ID,
		Label:          label,
		Language:       "eng",
	}
	require.NoError(t, db.Create(doc).Error)
	AddVersion(t, db, doc, time.Now(), pages...)
	return doc
}

// AddVersion inserts a text/plain version of doc with a page per entry
func AddVersion(t *testing.T, db *gorm.DB, doc *models.Document, timestamp time.Time, pages ...string) *models.DocumentVersion {
	t.Helper()

	version := &models.DocumentVersion{
		DocumentID: doc.ID,
		Timestamp:  timestamp,
		MimeType:   "text/plain",
		Encoding:   "utf-8",
		File:       fmt.Sprintf("documents/%s/%d", doc.UUID, timestamp.UnixNano()),
	}
	require.NoError(t, db.Create(version).Error)

	for i, content := range pages {
		page := &models.DocumentPage{DocumentVersionID: version.ID, PageNumber: i + 1}
		require.NoError(t, db.Create(page).Error)
		if content == "" {
			continue
		}
		require.NoError(t, db.Create(&models.DocumentPageContent{DocumentPageID: page.ID, Content: content}).Error)
	}
	return version
}
