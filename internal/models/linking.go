package models

// Condition inclusion values
const (
	InclusionAnd = "&"
	InclusionOr  = "|"
)

// SmartLink is a rule based cross reference between documents. It applies to
// documents of its document types and resolves to the documents matching its
// conditions.
type SmartLink struct {
	ID            uint64               `gorm:"primaryKey;autoIncrement"`
	Label         string               `gorm:"uniqueIndex;size:128;not null"`
	DynamicLabel  string               `gorm:"size:96"`
	Enabled       bool                 `gorm:"not null"`
	DocumentTypes []DocumentType       `gorm:"many2many:linking_smart_link_document_types;joinForeignKey:smart_link_id;joinReferences:document_type_id"`
	Conditions    []SmartLinkCondition `gorm:"constraint:OnDelete:CASCADE"`
}

// SmartLinkCondition compares a field of the foreign documents against a
// templated expression evaluated for the source document.
type SmartLinkCondition struct {
	ID                  uint64 `gorm:"primaryKey;autoIncrement"`
	SmartLinkID         uint64 `gorm:"not null;index"`
	Inclusion           string `gorm:"size:16;not null;default:&"`
	ForeignDocumentData string `gorm:"size:128;not null"`
	Operator            string `gorm:"size:16;not null"`
	Expression          string `gorm:"type:text;not null"`
	Negated             bool   `gorm:"not null"`
	Enabled             bool   `gorm:"not null"`
}

// TableName overrides the table name for SmartLink
func (SmartLink) TableName() string {
	return "linking_smart_links"
}

// TableName overrides the table name for SmartLinkCondition
func (SmartLinkCondition) TableName() string {
	return "linking_smart_link_conditions"
}
