package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/catalog"
	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/parsers"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/signals"
	"github.com/localnerve/docsdb/internal/storage"
	"github.com/localnerve/docsdb/internal/tasks"
	"github.com/localnerve/docsdb/internal/testutil"
)

type testEnv struct {
	db        *gorm.DB
	broker    *tasks.Broker
	catalog   *catalog.Registry
	checker   *permissions.Checker
	documents *DocumentService
	parsing   *ParsingService
	linking   *LinkingService
	mediaRoot string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	mediaRoot := t.TempDir()
	fs, err := storage.NewLocalStorage(mediaRoot)
	require.NoError(t, err)

	reg := catalog.NewRegistry()
	for _, f := range []*catalog.ModelField{
		{Model: models.ContentTypeDocument, Name: "label", Label: "Label", Table: "documents", Column: "documents.label"},
		{Model: models.ContentTypeDocument, Name: "description", Label: "Description", Table: "documents", Column: "documents.description"},
		{
			Model: models.ContentTypeDocument, Name: "versions__pages__content__content", Label: "Content", Table: "documents",
			Joins: []string{
				"JOIN document_versions ON document_versions.document_id = documents.id",
				"JOIN document_pages ON document_pages.document_version_id = document_versions.id",
				"JOIN document_parsing_page_contents ON document_parsing_page_contents.document_page_id = document_pages.id",
			},
			Column: "document_parsing_page_contents.content",
		},
	} {
		require.NoError(t, reg.AddField(f))
	}

	env := &testEnv{
		db:        db,
		broker:    tasks.NewBroker(tasks.Eager()),
		catalog:   reg,
		checker:   permissions.NewChecker(db),
		mediaRoot: mediaRoot,
	}
	parserRegistry := parsers.NewDefaultRegistry()
	env.documents = NewDocumentService(db, fs, parserRegistry)
	env.parsing = NewParsingService(db, env.broker, fs, parserRegistry, env.documents, ParsingOptions{AutoParsingDefault: true})
	env.linking = NewLinkingService(db, env.checker, reg, env.documents)

	env.broker.Register(&tasks.Task{Name: TaskParseDocumentVersion, MaxRetries: 3, Handler: func(ctx context.Context, kwargs tasks.Kwargs) error {
		id, err := kwargs.Uint64("document_version_pk")
		if err != nil {
			return err
		}
		return env.parsing.ParseDocumentVersion(ctx, id)
	}})
	env.broker.Register(&tasks.Task{Name: TaskIndexDocument, Handler: func(ctx context.Context, kwargs tasks.Kwargs) error {
		id, err := kwargs.Uint64("document_id")
		if err != nil {
			return err
		}
		return env.documents.MarkIndexed(ctx, id)
	}})
	return env
}

// connectHandlers wires the parsing signal receivers for the test
func (env *testEnv) connectHandlers(t *testing.T) {
	signals.PostDocumentTypeSave.Connect("services_test_settings", env.parsing.HandleInitializeSettings)
	signals.PostVersionUpload.Connect("services_test_parse", env.parsing.HandleParseDocumentVersion)
	signals.PostDocumentVersionParsing.Connect("services_test_index", env.parsing.HandleIndexDocument)
	t.Cleanup(func() {
		signals.PostDocumentTypeSave.Disconnect("services_test_settings")
		signals.PostVersionUpload.Disconnect("services_test_parse")
		signals.PostDocumentVersionParsing.Disconnect("services_test_index")
	})
}

func ptr[T any](v T) *T {
	return &v
}

func TestValidationErrorMessage(t *testing.T) {
	v := &ValidationError{}
	assert.NoError(t, v.OrNil())

	v.Add("operator", "bad")
	v.Add("label", "required")
	v.Add("label", "too long")
	assert.EqualError(t, v.OrNil(), "validation failed: label: required, too long; operator: bad")
}
