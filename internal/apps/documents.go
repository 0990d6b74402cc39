package apps

import (
	"context"

	"github.com/localnerve/docsdb/internal/catalog"
	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/navigation"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/tasks"
)

// QueueIndexing runs the document indexing task
const QueueIndexing = "indexing"

var (
	linkDocumentTypeList = &navigation.Link{
		Name: "documents:document_type_list", Text: "Document types", View: "/api/document_types",
		Permissions: []*permissions.Permission{services.PermissionDocumentTypeView},
	}
	linkDocumentNewVersion = &navigation.Link{
		Name: "documents:document_version_upload", Text: "Upload new version", View: "/api/documents/:id/versions", Method: "POST",
		Permissions: []*permissions.Permission{services.PermissionDocumentNewVersion},
	}
)

// documentFields are the Document field paths other apps may query
var documentFields = []*catalog.ModelField{
	{Model: models.ContentTypeDocument, Name: "label", Label: "Label", Table: "documents", Column: "documents.label"},
	{Model: models.ContentTypeDocument, Name: "description", Label: "Description", Table: "documents", Column: "documents.description"},
	{Model: models.ContentTypeDocument, Name: "uuid", Label: "UUID", Table: "documents", Column: "documents.uuid"},
	{Model: models.ContentTypeDocument, Name: "language", Label: "Language", Table: "documents", Column: "documents.language"},
	{
		Model: models.ContentTypeDocument, Name: "document_type__label", Label: "Document type", Table: "documents",
		Joins:  []string{"JOIN document_types ON document_types.id = documents.document_type_id"},
		Column: "document_types.label",
	},
	{
		Model: models.ContentTypeDocument, Name: "versions__mimetype", Label: "MIME type", Table: "documents",
		Joins:  []string{"JOIN document_versions ON document_versions.document_id = documents.id"},
		Column: "document_versions.mimetype",
	},
}

func (a *Apps) readyDocuments() error {
	permissions.RegisterModel(models.ContentTypeDocument,
		services.PermissionDocumentView, services.PermissionDocumentNewVersion)
	permissions.RegisterModel(models.ContentTypeDocumentType,
		services.PermissionDocumentTypeView, services.PermissionDocumentCreate)

	for _, field := range documentFields {
		if err := a.Catalog.AddField(field); err != nil {
			return err
		}
	}
	// Pages of the page search resolve to their own table
	err := a.Catalog.AddField(&catalog.ModelField{
		Model: models.ContentTypeDocumentPage, Name: "document_version__document__label", Label: "Document",
		Table: "document_pages",
		Joins: []string{
			"JOIN document_versions ON document_versions.id = document_pages.document_version_id",
			"JOIN documents ON documents.id = document_versions.document_id",
		},
		Column: "documents.label",
	})
	if err != nil {
		return err
	}

	documentSearch := a.Search.Register(SearchDocuments, "Documents", models.ContentTypeDocument)
	for _, name := range []string{"label", "description", "uuid", "document_type__label", "versions__mimetype"} {
		field, _ := a.Catalog.Field(models.ContentTypeDocument, name)
		if err := documentSearch.AddModelField(name, field.Label); err != nil {
			return err
		}
	}
	pageSearch := a.Search.Register(SearchDocumentPages, "Document pages", models.ContentTypeDocumentPage)
	if err := pageSearch.AddModelField("document_version__document__label", "Document"); err != nil {
		return err
	}

	_, _, object, _, tools := a.menus()
	object.BindLinks([]*navigation.Link{linkDocumentNewVersion}, []string{models.ContentTypeDocument}, 0)
	tools.BindLinks([]*navigation.Link{linkDocumentTypeList}, nil, 0)

	a.Broker.DeclareQueue(QueueIndexing, a.Config.IndexingWorkers)
	a.Broker.Register(&tasks.Task{
		Name:       services.TaskIndexDocument,
		MaxRetries: a.Config.ParsingTaskRetries,
		RetryDelay: a.Config.ParsingRetryBackoff,
		Handler: func(ctx context.Context, kwargs tasks.Kwargs) error {
			id, err := kwargs.Uint64("document_id")
			if err != nil {
				return err
			}
			return a.Documents.MarkIndexed(ctx, id)
		},
	})
	return a.Broker.Route(services.TaskIndexDocument, QueueIndexing)
}
