package services

import (
	"github.com/localnerve/docsdb/internal/events"
)

var (
	EventDocumentCreate     = events.Register("documents", "document_create", "Document created")
	EventDocumentVersionNew = events.Register("documents", "document_version_new", "New version uploaded")

	EventParsingDocumentVersionSubmit = events.Register("document_parsing", "document_version_submit", "Document version submitted for parsing")
	EventParsingDocumentVersionFinish = events.Register("document_parsing", "document_version_finish", "Document version parsing finished")
)

// Task names
const (
	TaskParseDocumentVersion = "document_parsing.task_parse_document_version"
	TaskIndexDocument        = "document_indexing.task_index_document"
)
