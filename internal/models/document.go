package models

import (
	"time"
)

// DocumentType groups documents that share parsing settings and smart links
type DocumentType struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Label     string    `gorm:"uniqueIndex;size:128;not null" json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is the user facing record; file data lives in its versions
type Document struct {
	ID             uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID           string            `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	DocumentTypeID uint64            `gorm:"not null;index" json:"document_type_id"`
	DocumentType   DocumentType      `json:"document_type"`
	Label          string            `gorm:"size:255;not null;index" json:"label"`
	Description    string            `gorm:"type:text" json:"description"`
	Language       string            `gorm:"size:8;not null;default:eng" json:"language"`
	DateAdded      time.Time         `gorm:"autoCreateTime" json:"date_added"`
	DateIndexed    *time.Time        `json:"date_indexed,omitempty"`
	Versions       []DocumentVersion `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// DocumentVersion is one uploaded file of a document
type DocumentVersion struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID uint64         `gorm:"not null;index" json:"document_id"`
	Document   *Document      `json:"-"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	Comment    string         `gorm:"type:text" json:"comment"`
	MimeType   string         `gorm:"column:mimetype;size:255" json:"mimetype"`
	Encoding   string         `gorm:"size:64" json:"encoding"`
	Checksum   string         `gorm:"size:64;index" json:"checksum"`
	File       string         `gorm:"size:255;not null" json:"-"`
	Pages      []DocumentPage `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// DocumentPage is a page of a document version, numbered from 1
type DocumentPage struct {
	ID                uint64               `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentVersionID uint64               `gorm:"not null;index:idx_version_page,unique" json:"document_version_id"`
	DocumentVersion   *DocumentVersion     `json:"-"`
	PageNumber        int                  `gorm:"not null;index:idx_version_page,unique" json:"page_number"`
	Content           *DocumentPageContent `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for DocumentType
func (DocumentType) TableName() string {
	return "document_types"
}

// TableName overrides the table name for Document
func (Document) TableName() string {
	return "documents"
}

// TableName overrides the table name for DocumentVersion
func (DocumentVersion) TableName() string {
	return "document_versions"
}

// TableName overrides the table name for DocumentPage
func (DocumentPage) TableName() string {
	return "document_pages"
}
