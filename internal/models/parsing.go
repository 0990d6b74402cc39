package models

import (
	"time"
)

// DocumentPageContent holds the text extracted from a single page
type DocumentPageContent struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentPageID uint64 `gorm:"uniqueIndex;not null" json:"document_page_id"`
	Content        string `gorm:"type:text" json:"content"`
}

// DocumentTypeSettings holds the per document type parsing options
type DocumentTypeSettings struct {
	ID             uint64       `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentTypeID uint64       `gorm:"uniqueIndex;not null" json:"document_type_id"`
	DocumentType   DocumentType `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AutoParsing    bool         `gorm:"not null" json:"auto_parsing"`
}

// DocumentVersionParseError records a failed parsing run
type DocumentVersionParseError struct {
	ID                uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentVersionID uint64          `gorm:"not null;index" json:"document_version_id"`
	DocumentVersion   DocumentVersion `json:"-"`
	DatetimeSubmitted time.Time       `gorm:"autoCreateTime;index" json:"datetime_submitted"`
	Result            string          `gorm:"type:text" json:"result"`
}

// TableName overrides the table name for DocumentPageContent
func (DocumentPageContent) TableName() string {
	return "document_parsing_page_contents"
}

// TableName overrides the table name for DocumentTypeSettings
func (DocumentTypeSettings) TableName() string {
	return "document_parsing_type_settings"
}

// TableName overrides the table name for DocumentVersionParseError
func (DocumentVersionParseError) TableName() string {
	return "document_parsing_version_errors"
}
