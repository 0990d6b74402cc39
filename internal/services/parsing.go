// parsing.go
//
// A document parsing and smart link data service built on the jam-build data service stack
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of docsdb.
// docsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// docsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with docsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/parsers"
	"github.com/localnerve/docsdb/internal/signals"
	"github.com/localnerve/docsdb/internal/storage"
	"github.com/localnerve/docsdb/internal/tasks"
)

// ParsingOptions are the settings of the parsing service
type ParsingOptions struct {
	// SubmitDelay postpones parsing so the submitting transaction is
	// visible to the workers.
	SubmitDelay        time.Duration
	AutoParsingDefault bool
}

// ParsingService extracts document text and tracks parsing settings and
// errors.
type ParsingService struct {
	db        *gorm.DB
	broker    *tasks.Broker
	storage   storage.FileStorage
	parsers   *parsers.Registry
	documents *DocumentService
	opts      ParsingOptions
	log       *logrus.Entry
}

// NewParsingService creates a ParsingService
func NewParsingService(db *gorm.DB, broker *tasks.Broker, fs storage.FileStorage, reg *parsers.Registry, documents *DocumentService, opts ParsingOptions) *ParsingService {
	return &ParsingService{
		db:        db,
		broker:    broker,
		storage:   fs,
		parsers:   reg,
		documents: documents,
		opts:      opts,
		log:       logrus.WithField("service", "document_parsing"),
	}
}

// SubmitDocument submits the latest version of a document. A document
// without versions is skipped and reported as not submitted.
func (s *ParsingService) SubmitDocument(ctx context.Context, actor string, doc *models.Document) (bool, error) {
	version, err := s.documents.LatestVersion(ctx, doc.ID)
	if err != nil {
		return false, err
	}
	if version == nil {
		return false, nil
	}
	version.Document = doc
	return true, s.SubmitVersion(ctx, actor, version)
}

// SubmitVersion records the submit event and schedules the parse task
func (s *ParsingService) SubmitVersion(ctx context.Context, actor string, version *models.DocumentVersion) error {
	doc := version.Document
	if doc == nil {
		doc = &models.Document{ID: version.DocumentID}
	}
	if err := EventParsingDocumentVersionSubmit.Commit(ctx, s.db, actor, version, doc, nil); err != nil {
		return err
	}

	err := s.broker.ApplyAsync(ctx, TaskParseDocumentVersion,
		tasks.Kwargs{"document_version_pk": version.ID},
		tasks.WithETA(time.Now().Add(s.opts.SubmitDelay)),
	)
	return errors.Wrap(err, "schedule parsing")
}

// SubmitDocumentType submits every document of a document type and returns
// how many were submitted.
func (s *ParsingService) SubmitDocumentType(ctx context.Context, actor string, docTypeID uint64) (int, error) {
	var docs []models.Document
	if err := s.db.WithContext(ctx).Where("document_type_id = ?", docTypeID).Order("id").Find(&docs).Error; err != nil {
		return 0, errors.Wrap(err, "list documents of type")
	}

	submitted := 0
	for i := range docs {
		ok, err := s.SubmitDocument(ctx, actor, &docs[i])
		if err != nil {
			return submitted, err
		}
		if ok {
			submitted++
		}
	}
	return submitted, nil
}

// ParseDocumentVersion is the body of the parse task. Parser failures are
// stored as parse errors; database failures are returned for retry.
func (s *ParsingService) ParseDocumentVersion(ctx context.Context, versionID uint64) error {
	log := s.log.WithField("document_version_id", versionID)

	var version models.DocumentVersion
	err := s.db.WithContext(ctx).
		Preload("Document").
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("page_number") }).
		First(&version, versionID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("document version no longer exists, dropping parse task")
		return nil
	}
	if err != nil {
		return tasks.Retry(errors.Wrap(err, "load document version"))
	}

	log.Info("starting parsing for document version")
	texts, parseErr := s.extract(ctx, &version)
	if parseErr != nil {
		log.WithError(parseErr).Error("parsing document version error")
		result := models.DocumentVersionParseError{DocumentVersionID: version.ID, Result: parseErr.Error()}
		if err := s.db.WithContext(ctx).Create(&result).Error; err != nil {
			return tasks.Retry(errors.Wrap(err, "store parse error"))
		}
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, page := range version.Pages {
			text := ""
			if i < len(texts) {
				text = texts[i]
			}
			content := models.DocumentPageContent{DocumentPageID: page.ID, Content: text}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "document_page_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"content"}),
			}).Create(&content).Error
			if err != nil {
				return errors.Wrapf(err, "store content of page %d", page.PageNumber)
			}
		}

		if err := tx.Where("document_version_id = ?", version.ID).Delete(&models.DocumentVersionParseError{}).Error; err != nil {
			return errors.Wrap(err, "clear parse errors")
		}
		return EventParsingDocumentVersionFinish.Commit(ctx, tx, "", &version, version.Document, nil)
	})
	if err != nil {
		return tasks.Retry(err)
	}

	log.WithField("pages", len(version.Pages)).Info("parsing complete for document version")
	signals.PostDocumentVersionParsing.Send(ctx, signals.ModelEvent[*models.DocumentVersion]{
		DB:       s.db.WithContext(ctx),
		Instance: &version,
	})
	return nil
}

func (s *ParsingService) extract(ctx context.Context, version *models.DocumentVersion) ([]string, error) {
	content, err := storage.ReadAll(ctx, s.storage, version.File)
	if err != nil {
		return nil, errors.Wrap(err, "read document file")
	}
	return s.parsers.Parse(ctx, version.MimeType, content)
}

// VersionPages returns the pages of a version in page order with their
// content loaded.
func (s *ParsingService) VersionPages(ctx context.Context, versionID uint64) ([]models.DocumentPage, error) {
	pages := make([]models.DocumentPage, 0)
	err := s.db.WithContext(ctx).
		Preload("Content").
		Where("document_version_id = ?", versionID).
		Order("page_number").
		Find(&pages).Error
	return pages, errors.Wrap(err, "load version pages")
}

// DocumentPages returns the pages of the latest version of a document
func (s *ParsingService) DocumentPages(ctx context.Context, documentID uint64) ([]models.DocumentPage, error) {
	version, err := s.documents.LatestVersion(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return []models.DocumentPage{}, nil
	}
	return s.VersionPages(ctx, version.ID)
}

// VersionContent returns the text of each page that has content
func (s *ParsingService) VersionContent(ctx context.Context, versionID uint64) ([]string, error) {
	pages, err := s.VersionPages(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return pageTexts(pages), nil
}

// DocumentContent returns the text of the latest version, one page per line
// block. Documents without versions have no content.
func (s *ParsingService) DocumentContent(ctx context.Context, documentID uint64) (string, error) {
	pages, err := s.DocumentPages(ctx, documentID)
	if err != nil {
		return "", err
	}
	return strings.Join(pageTexts(pages), "\n"), nil
}

func pageTexts(pages []models.DocumentPage) []string {
	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		if page.Content != nil {
			texts = append(texts, page.Content.Content)
		}
	}
	return texts
}

// InitializeSettings creates the parsing settings of a new document type
// with the configured auto parsing default.
func (s *ParsingService) InitializeSettings(ctx context.Context, db *gorm.DB, docTypeID uint64) (*models.DocumentTypeSettings, error) {
	var existing []models.DocumentTypeSettings
	if err := db.WithContext(ctx).Where("document_type_id = ?", docTypeID).Limit(1).Find(&existing).Error; err != nil {
		return nil, errors.Wrap(err, "load parsing settings")
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	settings := &models.DocumentTypeSettings{DocumentTypeID: docTypeID, AutoParsing: s.opts.AutoParsingDefault}
	if err := db.WithContext(ctx).Omit("DocumentType").Create(settings).Error; err != nil {
		return nil, errors.Wrap(err, "create parsing settings")
	}
	return settings, nil
}

// GetSettings returns the parsing settings of a document type
func (s *ParsingService) GetSettings(ctx context.Context, docTypeID uint64) (*models.DocumentTypeSettings, error) {
	if _, err := s.documents.GetDocumentType(ctx, docTypeID); err != nil {
		return nil, err
	}
	return s.InitializeSettings(ctx, s.db, docTypeID)
}

// UpdateSettings changes the auto parsing flag of a document type
func (s *ParsingService) UpdateSettings(ctx context.Context, settings *models.DocumentTypeSettings, autoParsing bool) error {
	settings.AutoParsing = autoParsing
	err := s.db.WithContext(ctx).Model(settings).Update("auto_parsing", autoParsing).Error
	return errors.Wrap(err, "update parsing settings")
}

// ListErrors returns parse errors in submission order, optionally limited
// to the versions of one document.
func (s *ParsingService) ListErrors(ctx context.Context, documentID uint64) ([]models.DocumentVersionParseError, error) {
	q := s.db.WithContext(ctx).
		Preload("DocumentVersion.Document").
		Order("datetime_submitted, id")
	if documentID != 0 {
		q = q.Where("document_version_id IN (?)",
			s.db.Model(&models.DocumentVersion{}).Select("id").Where("document_id = ?", documentID))
	}

	parseErrors := make([]models.DocumentVersionParseError, 0)
	err := q.Find(&parseErrors).Error
	return parseErrors, errors.Wrap(err, "list parse errors")
}

// HandleIndexDocument schedules indexing of a freshly parsed document
func (s *ParsingService) HandleIndexDocument(ctx context.Context, ev signals.ModelEvent[*models.DocumentVersion]) error {
	return s.broker.ApplyAsync(ctx, TaskIndexDocument, tasks.Kwargs{"document_id": ev.Instance.DocumentID})
}

// HandleInitializeSettings creates parsing settings for new document types
func (s *ParsingService) HandleInitializeSettings(ctx context.Context, ev signals.ModelEvent[*models.DocumentType]) error {
	if !ev.Created {
		return nil
	}
	_, err := s.InitializeSettings(ctx, ev.DB, ev.Instance.ID)
	return err
}

// HandleParseDocumentVersion submits uploaded versions whose document type
// has auto parsing enabled.
func (s *ParsingService) HandleParseDocumentVersion(ctx context.Context, ev signals.ModelEvent[*models.DocumentVersion]) error {
	version := ev.Instance
	doc := version.Document
	if doc == nil {
		var err error
		if doc, err = s.documents.GetDocument(ctx, version.DocumentID); err != nil {
			return err
		}
		version.Document = doc
	}

	settings, err := s.InitializeSettings(ctx, s.db, doc.DocumentTypeID)
	if err != nil {
		return err
	}
	if !settings.AutoParsing {
		return nil
	}
	return s.SubmitVersion(ctx, "", version)
}
