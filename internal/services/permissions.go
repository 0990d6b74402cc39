package services

import (
	"github.com/localnerve/docsdb/internal/permissions"
)

var (
	namespaceDocuments = permissions.NewNamespace("documents", "Documents")

	PermissionDocumentCreate     = namespaceDocuments.AddPermission("document_create", "Create documents")
	PermissionDocumentNewVersion = namespaceDocuments.AddPermission("document_new_version", "Create new document versions")
	PermissionDocumentView       = namespaceDocuments.AddPermission("document_view", "View documents")
	PermissionDocumentTypeCreate = namespaceDocuments.AddPermission("document_type_create", "Create document types")
	PermissionDocumentTypeView   = namespaceDocuments.AddPermission("document_type_view", "View document types")
)

var (
	namespaceParsing = permissions.NewNamespace("document_parsing", "Document parsing")

	PermissionContentView              = namespaceParsing.AddPermission("content_view", "View the content of a document")
	PermissionDocumentTypeParsingSetup = namespaceParsing.AddPermission("document_type_parsing_setup", "Change document type parsing settings")
	PermissionParseDocument            = namespaceParsing.AddPermission("parse_document", "Parse the content of a document")
)

var (
	namespaceLinking = permissions.NewNamespace("linking", "Smart links")

	PermissionSmartLinkCreate       = namespaceLinking.AddPermission("smart_link_create", "Create new smart links")
	PermissionSmartLinkDelete       = namespaceLinking.AddPermission("smart_link_delete", "Delete smart links")
	PermissionSmartLinkEdit         = namespaceLinking.AddPermission("smart_link_edit", "Edit smart links")
	PermissionSmartLinkView         = namespaceLinking.AddPermission("smart_link_view", "View existing smart links")
	PermissionSmartLinkInstanceView = namespaceLinking.AddPermission("smart_link_instance_view", "View resolved smart links")
)
