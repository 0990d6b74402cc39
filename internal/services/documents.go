package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/parsers"
	"github.com/localnerve/docsdb/internal/signals"
	"github.com/localnerve/docsdb/internal/storage"
)

// Upload is a file received for a new document or version
type Upload struct {
	FileName string
	MimeType string
	Content  []byte
	Comment  string
}

// NewDocumentInput describes a document to create
type NewDocumentInput struct {
	DocumentTypeID uint64
	Label          string
	Description    string
	Language       string
	Upload         Upload
}

// DocumentService manages documents, their versions and pages
type DocumentService struct {
	db      *gorm.DB
	storage storage.FileStorage
	parsers *parsers.Registry
	log     *logrus.Entry
}

// NewDocumentService creates a DocumentService
func NewDocumentService(db *gorm.DB, fs storage.FileStorage, reg *parsers.Registry) *DocumentService {
	return &DocumentService{
		db:      db,
		storage: fs,
		parsers: reg,
		log:     logrus.WithField("service", "documents"),
	}
}

// CreateDocumentType adds a document type. Saving it fires the post save
// signal, which initializes its parsing settings.
func (s *DocumentService) CreateDocumentType(ctx context.Context, label string) (*models.DocumentType, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fieldError("label", "This field is required.")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.DocumentType{}).Where("label = ?", label).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "check document type label")
	}
	if count > 0 {
		return nil, fieldError("label", "document type with this label already exists.")
	}

	docType := &models.DocumentType{Label: label}
	if err := s.db.WithContext(ctx).Create(docType).Error; err != nil {
		return nil, errors.Wrap(err, "create document type")
	}
	return docType, nil
}

// ListDocumentTypes returns every document type ordered by label
func (s *DocumentService) ListDocumentTypes(ctx context.Context) ([]models.DocumentType, error) {
	var docTypes []models.DocumentType
	err := s.db.WithContext(ctx).Order("label").Find(&docTypes).Error
	return docTypes, errors.Wrap(err, "list document types")
}

// GetDocumentType loads a document type
func (s *DocumentService) GetDocumentType(ctx context.Context, id uint64) (*models.DocumentType, error) {
	var docType models.DocumentType
	if err := s.db.WithContext(ctx).First(&docType, id).Error; err != nil {
		return nil, notFound(err, "document type")
	}
	return &docType, nil
}

// GetDocument loads a document with its type
func (s *DocumentService) GetDocument(ctx context.Context, id uint64) (*models.Document, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).Preload("DocumentType").First(&doc, id).Error; err != nil {
		return nil, notFound(err, "document")
	}
	return &doc, nil
}

// GetDocuments loads the documents with the given ids, ordered by id
func (s *DocumentService) GetDocuments(ctx context.Context, ids []uint64) ([]models.Document, error) {
	docs := make([]models.Document, 0)
	if len(ids) == 0 {
		return docs, nil
	}
	err := s.db.WithContext(ctx).Preload("DocumentType").Where("id IN ?", ids).Order("id").Find(&docs).Error
	return docs, errors.Wrap(err, "load documents")
}

// GetPage loads a page with its content, version and document
func (s *DocumentService) GetPage(ctx context.Context, id uint64) (*models.DocumentPage, error) {
	var page models.DocumentPage
	err := s.db.WithContext(ctx).
		Preload("Content").
		Preload("DocumentVersion.Document").
		First(&page, id).Error
	if err != nil {
		return nil, notFound(err, "document page")
	}
	return &page, nil
}

// LatestVersion returns the newest version of a document, or nil when the
// document has no versions.
func (s *DocumentService) LatestVersion(ctx context.Context, documentID uint64) (*models.DocumentVersion, error) {
	var versions []models.DocumentVersion
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("timestamp DESC, id DESC").
		Limit(1).
		Find(&versions).Error
	if err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return &versions[0], nil
}

// CreateDocument stores the upload and creates the document, its first
// version and the version's pages.
func (s *DocumentService) CreateDocument(ctx context.Context, actor string, input NewDocumentInput) (*models.Document, *models.DocumentVersion, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(input.Label) == "" {
		input.Label = input.Upload.FileName
	}
	if strings.TrimSpace(input.Label) == "" {
		verr.Add("label", "This field is required.")
	}
	if len(input.Upload.Content) == 0 {
		verr.Add("file", "The submitted file is empty.")
	}
	if input.DocumentTypeID == 0 {
		verr.Add("document_type_id", "This field is required.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}

	docType, err := s.GetDocumentType(ctx, input.DocumentTypeID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, nil, fieldError("document_type_id", fmt.Sprintf("Invalid pk %d - object does not exist.", input.DocumentTypeID))
		}
		return nil, nil, err
	}

	language := input.Language
	if language == "" {
		language = "eng"
	}
	doc := &models.Document{
		UUID:           uuid.NewString(),
		DocumentTypeID: docType.ID,
		DocumentType:   *docType,
		Label:          strings.TrimSpace(input.Label),
		Description:    input.Description,
		Language:       language,
	}

	var version *models.DocumentVersion
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("DocumentType").Create(doc).Error; err != nil {
			return errors.Wrap(err, "create document")
		}
		if err := EventDocumentCreate.Commit(ctx, tx, actor, doc, nil, nil); err != nil {
			return err
		}
		var err error
		version, err = s.createVersion(ctx, tx, actor, doc, input.Upload)
		return err
	})
	if err != nil {
		s.discardFile(ctx, version)
		return nil, nil, err
	}

	s.sendVersionUpload(ctx, version)
	return doc, version, nil
}

// NewVersion adds a version to an existing document
func (s *DocumentService) NewVersion(ctx context.Context, actor string, doc *models.Document, upload Upload) (*models.DocumentVersion, error) {
	if len(upload.Content) == 0 {
		return nil, fieldError("file", "The submitted file is empty.")
	}

	var version *models.DocumentVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		version, err = s.createVersion(ctx, tx, actor, doc, upload)
		return err
	})
	if err != nil {
		s.discardFile(ctx, version)
		return nil, err
	}

	s.sendVersionUpload(ctx, version)
	return version, nil
}

// discardFile removes the stored file of a version whose transaction was
// rolled back
func (s *DocumentService) discardFile(ctx context.Context, version *models.DocumentVersion) {
	if version == nil || version.File == "" {
		return
	}
	if err := s.storage.Delete(ctx, version.File); err != nil {
		s.log.WithError(err).WithField("file", version.File).Warn("failed to remove orphaned document file")
	}
}

// createVersion stores the file and creates the version rows. On error the
// stored file is removed again.
func (s *DocumentService) createVersion(ctx context.Context, tx *gorm.DB, actor string, doc *models.Document, upload Upload) (_ *models.DocumentVersion, err error) {
	mimeType := parsers.NormalizeMimeType(upload.MimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = parsers.NormalizeMimeType(http.DetectContentType(upload.Content))
	}

	sum := sha256.Sum256(upload.Content)
	key := fmt.Sprintf("documents/%s/%s", doc.UUID, uuid.NewString())
	if err := s.storage.Save(ctx, key, bytes.NewReader(upload.Content), int64(len(upload.Content)), mimeType); err != nil {
		return nil, errors.Wrap(err, "store document file")
	}
	defer func() {
		if err != nil {
			s.discardFile(ctx, &models.DocumentVersion{File: key})
		}
	}()

	version := &models.DocumentVersion{
		DocumentID: doc.ID,
		Document:   doc,
		Timestamp:  time.Now(),
		Comment:    upload.Comment,
		MimeType:   mimeType,
		Encoding:   "binary",
		Checksum:   hex.EncodeToString(sum[:]),
		File:       key,
	}
	if strings.HasPrefix(mimeType, "text/") {
		version.Encoding = "utf-8"
	}
	if err := tx.Omit("Document").Create(version).Error; err != nil {
		return nil, errors.Wrap(err, "create document version")
	}

	pageCount := s.parsers.PageCount(ctx, mimeType, upload.Content)
	pages := make([]models.DocumentPage, pageCount)
	for i := range pages {
		pages[i] = models.DocumentPage{DocumentVersionID: version.ID, PageNumber: i + 1}
	}
	if err := tx.Create(&pages).Error; err != nil {
		return nil, errors.Wrap(err, "create document pages")
	}
	version.Pages = pages

	if err := EventDocumentVersionNew.Commit(ctx, tx, actor, version, doc, nil); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"version_id":  version.ID,
		"mimetype":    mimeType,
		"pages":       pageCount,
	}).Info("document version created")
	return version, nil
}

func (s *DocumentService) sendVersionUpload(ctx context.Context, version *models.DocumentVersion) {
	signals.PostVersionUpload.Send(ctx, signals.ModelEvent[*models.DocumentVersion]{
		DB:       s.db.WithContext(ctx),
		Instance: version,
		Created:  true,
	})
}

// MarkIndexed stamps the time a document was last indexed
func (s *DocumentService) MarkIndexed(ctx context.Context, documentID uint64) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", documentID).
		Update("date_indexed", &now)
	if result.Error != nil {
		return errors.Wrap(result.Error, "mark document indexed")
	}
	if result.RowsAffected == 0 {
		s.log.WithField("document_id", documentID).Warn("document to index no longer exists")
	}
	return nil
}

func notFound(err error, what string) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(ErrNotFound, what)
	}
	return errors.Wrapf(err, "load %s", what)
}
