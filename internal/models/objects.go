package models

// Content types identify models in ACL entries and the action log
const (
	ContentTypeDocument             = "documents.document"
	ContentTypeDocumentType         = "documents.documenttype"
	ContentTypeDocumentVersion      = "documents.documentversion"
	ContentTypeDocumentPage         = "documents.documentpage"
	ContentTypeDocumentTypeSettings = "document_parsing.documenttypesettings"
	ContentTypeSmartLink            = "linking.smartlink"
	ContentTypeSmartLinkCondition   = "linking.smartlinkcondition"

	ContentTypeDocumentVersionParseError = "document_parsing.documentversionparseerror"
)

func (d *Document) ContentType() string { return ContentTypeDocument }
func (d *Document) PrimaryKey() uint64  { return d.ID }

func (t *DocumentType) ContentType() string { return ContentTypeDocumentType }
func (t *DocumentType) PrimaryKey() uint64  { return t.ID }

func (v *DocumentVersion) ContentType() string { return ContentTypeDocumentVersion }
func (v *DocumentVersion) PrimaryKey() uint64  { return v.ID }

func (p *DocumentPage) ContentType() string { return ContentTypeDocumentPage }
func (p *DocumentPage) PrimaryKey() uint64  { return p.ID }

func (s *DocumentTypeSettings) ContentType() string { return ContentTypeDocumentTypeSettings }
func (s *DocumentTypeSettings) PrimaryKey() uint64  { return s.ID }

func (l *SmartLink) ContentType() string { return ContentTypeSmartLink }
func (l *SmartLink) PrimaryKey() uint64  { return l.ID }

func (c *SmartLinkCondition) ContentType() string { return ContentTypeSmartLinkCondition }
func (c *SmartLinkCondition) PrimaryKey() uint64  { return c.ID }
