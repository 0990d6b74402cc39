package apps

import (
	"context"

	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/catalog"
	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/navigation"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/signals"
	"github.com/localnerve/docsdb/internal/tasks"
)

// QueueParsing runs the parse task
const QueueParsing = "parsing"

// Signal receiver dispatch UIDs
const (
	DispatchIndexDocument             = "document_parsing_handler_index_document"
	DispatchInitializeParsingSettings = "document_parsing_handler_initialize_new_parsing_settings"
	DispatchParseDocumentVersion      = "document_parsing_handler_parse_document_version"
)

const (
	viewDocumentContent          = "document_parsing:document_content"
	viewDocumentContentDownload  = "document_parsing:document_content_download"
	viewDocumentParsingErrorList = "document_parsing:document_parsing_error_list"

	documentContentField = "versions__pages__content__content"
	pageContentField     = "content__content"
)

var (
	contentView  = []*permissions.Permission{services.PermissionContentView}
	parseDocPerm = []*permissions.Permission{services.PermissionParseDocument}

	linkDocumentContent = &navigation.Link{
		Name: viewDocumentContent, Text: "Content", View: "/api/parsing/documents/:id/content", Permissions: contentView,
	}
	linkDocumentContentDownload = &navigation.Link{
		Name: viewDocumentContentDownload, Text: "Download content", View: "/api/parsing/documents/:id/content/download", Permissions: contentView,
	}
	linkDocumentPageContent = &navigation.Link{
		Name: "document_parsing:document_page_content", Text: "Content", View: "/api/parsing/document_pages/:id/content", Permissions: contentView,
	}
	linkDocumentParsingErrorsList = &navigation.Link{
		Name: viewDocumentParsingErrorList, Text: "Parsing errors", View: "/api/parsing/documents/:id/errors", Permissions: parseDocPerm,
	}
	linkDocumentSubmit = &navigation.Link{
		Name: "document_parsing:document_submit", Text: "Submit for parsing", View: "/api/parsing/documents/:id/submit", Method: "POST", Permissions: parseDocPerm,
	}
	linkDocumentSubmitMultiple = &navigation.Link{
		Name: "document_parsing:document_submit_multiple", Text: "Submit for parsing", View: "/api/parsing/documents/submit", Method: "POST", Permissions: parseDocPerm,
	}
	linkDocumentTypeParsingSettings = &navigation.Link{
		Name: "document_parsing:document_type_parsing_settings", Text: "Setup parsing", View: "/api/parsing/document_types/:id/settings",
		Permissions: []*permissions.Permission{services.PermissionDocumentTypeParsingSetup},
	}
	linkDocumentTypeSubmit = &navigation.Link{
		Name: "document_parsing:document_type_submit", Text: "Parse documents per type", View: "/api/parsing/document_types/:id/submit", Method: "POST", Permissions: parseDocPerm,
	}
	linkErrorList = &navigation.Link{
		Name: "document_parsing:error_list", Text: "Parsing error log", View: "/api/parsing/errors", Permissions: parseDocPerm,
	}
)

func (a *Apps) readyDocumentParsing() error {
	permissions.RegisterModel(models.ContentTypeDocument,
		services.PermissionContentView, services.PermissionParseDocument)
	permissions.RegisterModel(models.ContentTypeDocumentType,
		services.PermissionDocumentTypeParsingSetup)
	permissions.RegisterInheritance(models.ContentTypeDocumentTypeSettings, settingsParent)

	a.Catalog.AddAttribute(&catalog.ModelAttribute{
		Model:       models.ContentTypeDocument,
		Name:        "content",
		Description: "The parsed content of the document.",
		Get: func(ctx context.Context, db *gorm.DB, instance interface{}) (interface{}, error) {
			doc, ok := instance.(*models.Document)
			if !ok {
				return "", nil
			}
			return a.Parsing.DocumentContent(ctx, doc.ID)
		},
	})

	err := a.Catalog.AddField(&catalog.ModelField{
		Model: models.ContentTypeDocument, Name: documentContentField, Label: "Content", Table: "documents",
		Joins: []string{
			"JOIN document_versions ON document_versions.document_id = documents.id",
			"JOIN document_pages ON document_pages.document_version_id = document_versions.id",
			"JOIN document_parsing_page_contents ON document_parsing_page_contents.document_page_id = document_pages.id",
		},
		Column: "document_parsing_page_contents.content",
	})
	if err != nil {
		return err
	}
	err = a.Catalog.AddField(&catalog.ModelField{
		Model: models.ContentTypeDocumentPage, Name: pageContentField, Label: "Content", Table: "document_pages",
		Joins:  []string{"JOIN document_parsing_page_contents ON document_parsing_page_contents.document_page_id = document_pages.id"},
		Column: "document_parsing_page_contents.content",
	})
	if err != nil {
		return err
	}

	source := models.ContentTypeDocumentVersionParseError
	a.Navigation.AddSourceColumn(&navigation.SourceColumn{Source: source, Label: "Document", Func: parseErrorDocument})
	a.Navigation.AddSourceColumn(&navigation.SourceColumn{Source: source, Label: "Added", Attribute: "datetime_submitted"})
	a.Navigation.AddSourceColumn(&navigation.SourceColumn{Source: source, Label: "Result", Attribute: "result"})

	a.Broker.DeclareQueue(QueueParsing, a.Config.ParsingWorkers)
	a.Broker.Register(&tasks.Task{
		Name:       services.TaskParseDocumentVersion,
		MaxRetries: a.Config.ParsingTaskRetries,
		RetryDelay: a.Config.ParsingRetryBackoff,
		Handler: func(ctx context.Context, kwargs tasks.Kwargs) error {
			id, err := kwargs.Uint64("document_version_pk")
			if err != nil {
				return err
			}
			return a.Parsing.ParseDocumentVersion(ctx, id)
		},
	})
	if err := a.Broker.Route(services.TaskParseDocumentVersion, QueueParsing); err != nil {
		return err
	}

	documentSearch, _ := a.Search.Get(SearchDocuments)
	if err := documentSearch.AddModelField(documentContentField, "Content"); err != nil {
		return err
	}
	pageSearch, _ := a.Search.Get(SearchDocumentPages)
	if err := pageSearch.AddModelField(pageContentField, "Content"); err != nil {
		return err
	}

	facet, multiItem, object, secondary, tools := a.menus()
	facet.BindLinks([]*navigation.Link{linkDocumentContent}, []string{models.ContentTypeDocument}, 0)
	facet.BindLinks([]*navigation.Link{linkDocumentPageContent}, []string{models.ContentTypeDocumentPage}, 0)
	multiItem.BindLinks([]*navigation.Link{linkDocumentSubmitMultiple}, []string{models.ContentTypeDocument}, 0)
	object.BindLinks([]*navigation.Link{linkDocumentSubmit}, []string{models.ContentTypeDocument}, 0)
	object.BindLinks([]*navigation.Link{linkDocumentTypeParsingSettings}, []string{models.ContentTypeDocumentType}, 99)
	secondary.BindLinks(
		[]*navigation.Link{linkDocumentContent, linkDocumentParsingErrorsList, linkDocumentContentDownload},
		[]string{viewDocumentContent, viewDocumentContentDownload, viewDocumentParsingErrorList},
		0,
	)
	tools.BindLinks([]*navigation.Link{linkDocumentTypeSubmit, linkErrorList}, nil, 0)

	signals.PostDocumentVersionParsing.Connect(DispatchIndexDocument, a.Parsing.HandleIndexDocument)
	signals.PostDocumentTypeSave.Connect(DispatchInitializeParsingSettings, a.Parsing.HandleInitializeSettings)
	signals.PostVersionUpload.Connect(DispatchParseDocumentVersion, a.Parsing.HandleParseDocumentVersion)
	return nil
}

// settingsParent resolves document type settings to their document type
func settingsParent(ctx context.Context, db *gorm.DB, objectID uint64) (string, uint64, error) {
	var settings models.DocumentTypeSettings
	if err := db.WithContext(ctx).Select("id", "document_type_id").First(&settings, objectID).Error; err != nil {
		return "", 0, err
	}
	return models.ContentTypeDocumentType, settings.DocumentTypeID, nil
}

// parseErrorDocument renders the document a parse error belongs to
func parseErrorDocument(obj interface{}) interface{} {
	parseError, ok := obj.(*models.DocumentVersionParseError)
	if !ok || parseError.DocumentVersion.Document == nil {
		return nil
	}
	doc := parseError.DocumentVersion.Document
	return map[string]interface{}{"id": doc.ID, "label": doc.Label}
}
