package navigation_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/navigation"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/testutil"
)

var (
	navNamespace = permissions.NewNamespace("navigation_test", "Navigation test")
	permContent  = navNamespace.AddPermission("content_view", "View content")
	permParse    = navNamespace.AddPermission("parse", "Parse")
)

func TestLinksForOrdering(t *testing.T) {
	reg := navigation.NewRegistry()
	menu := reg.Menu("facet", "Facet")
	assert.Same(t, menu, reg.Menu("facet", "Other"))

	late := &navigation.Link{Name: "late", View: "/late"}
	early := &navigation.Link{Name: "early", View: "/early"}
	global := &navigation.Link{Name: "global", View: "/global"}
	other := &navigation.Link{Name: "other", View: "/other"}

	menu.BindLinks([]*navigation.Link{late}, []string{models.ContentTypeDocument}, 10)
	menu.BindLinks([]*navigation.Link{early}, []string{models.ContentTypeDocument}, 1)
	menu.BindLinks([]*navigation.Link{early}, []string{models.ContentTypeDocument}, 1)
	menu.BindLinks([]*navigation.Link{global}, nil, 10)
	menu.BindLinks([]*navigation.Link{other}, []string{models.ContentTypeSmartLink}, 0)

	links := menu.LinksFor(models.ContentTypeDocument)
	require.Len(t, links, 3)
	assert.Equal(t, []string{"early", "late", "global"}, []string{links[0].Name, links[1].Name, links[2].Name})

	_, ok := reg.GetMenu("tools")
	assert.False(t, ok)
}

func TestResolveChecksAccess(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	checker := permissions.NewChecker(db)

	docType := testutil.CreateDocumentType(t, db, "invoice")
	doc := testutil.CreateDocument(t, db, docType, "doc", "text")

	menu := navigation.NewRegistry().Menu("facet", "Facet")
	menu.BindLinks([]*navigation.Link{
		{Name: "content", Text: "Content", View: "/api/parsing/documents/:id/content", Permissions: []*permissions.Permission{permContent}},
		{Name: "submit", Text: "Submit", View: "/api/parsing/documents/:id/submit", Method: "POST", Permissions: []*permissions.Permission{permParse}},
		{Name: "help", Text: "Help", View: "/help"},
	}, []string{models.ContentTypeDocument}, 0)

	user := &permissions.User{ID: "2", Roles: []string{"reader"}}
	require.NoError(t, checker.GrantAccess(ctx, doc, "reader", permContent))

	links, err := menu.Resolve(ctx, checker, user, models.ContentTypeDocument, doc)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "content", links[0].Name)
	assert.Equal(t, "/api/parsing/documents/"+strconv.FormatUint(doc.ID, 10)+"/content", links[0].URL)
	assert.Equal(t, "GET", links[0].Method)
	assert.Equal(t, "help", links[1].Name)

	// Without an object only global grants count.
	links, err = menu.Resolve(ctx, checker, user, models.ContentTypeDocument, nil)
	require.NoError(t, err)
	require.Len(t, links, 1)

	admin := &permissions.User{ID: "1", Roles: []string{permissions.RoleAdmin}}
	links, err = menu.Resolve(ctx, checker, admin, models.ContentTypeDocument, doc)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "POST", links[1].Method)
}

func TestRenderColumns(t *testing.T) {
	reg := navigation.NewRegistry()
	reg.AddSourceColumn(&navigation.SourceColumn{Source: "errors", Label: "Result", Attribute: "result"})
	reg.AddSourceColumn(&navigation.SourceColumn{Source: "errors", Label: "Upper", Func: func(obj interface{}) interface{} {
		return obj.(*models.DocumentVersionParseError).DocumentVersionID * 10
	}})

	values := reg.Render("errors", &models.DocumentVersionParseError{DocumentVersionID: 3, Result: "bad pdf"})
	require.Len(t, values, 2)
	assert.Equal(t, navigation.ColumnValue{Label: "Result", Value: "bad pdf"}, values[0])
	assert.Equal(t, uint64(30), values[1].Value)

	assert.Empty(t, reg.Render("nothing", nil))
}
