package permissions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/testutil"
)

var (
	testNamespace = permissions.NewNamespace("checker_test", "Checker test")
	permView      = testNamespace.AddPermission("thing_view", "View things")
	permEdit      = testNamespace.AddPermission("thing_edit", "Edit things")
)

func init() {
	permissions.RegisterModel(models.ContentTypeDocumentType, permView, permEdit)
	permissions.RegisterInheritance(models.ContentTypeDocumentTypeSettings, func(ctx context.Context, db *gorm.DB, objectID uint64) (string, uint64, error) {
		var settings models.DocumentTypeSettings
		if err := db.First(&settings, objectID).Error; err != nil {
			return "", 0, err
		}
		return models.ContentTypeDocumentType, settings.DocumentTypeID, nil
	})
}

func TestCheckPermissions(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	checker := permissions.NewChecker(db)

	admin := &permissions.User{ID: "1", Roles: []string{"admin"}}
	editor := &permissions.User{ID: "2", Roles: []string{"editor"}}
	nobody := &permissions.User{ID: "3"}

	assert.NoError(t, checker.CheckPermissions(ctx, admin, permView))
	assert.ErrorIs(t, checker.CheckPermissions(ctx, editor, permView), permissions.ErrPermissionDenied)
	assert.ErrorIs(t, checker.CheckPermissions(ctx, nobody, permView), permissions.ErrPermissionDenied)
	assert.ErrorIs(t, checker.CheckPermissions(ctx, nil, permView), permissions.ErrPermissionDenied)

	require.NoError(t, checker.Grant(ctx, "editor", permView))
	require.NoError(t, checker.Grant(ctx, "editor", permView))
	assert.NoError(t, checker.CheckPermissions(ctx, editor, permEdit, permView))

	require.NoError(t, checker.Revoke(ctx, "editor", permView))
	assert.ErrorIs(t, checker.CheckPermissions(ctx, editor, permView), permissions.ErrPermissionDenied)
}

func TestCheckAccessFallsBackToACL(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	checker := permissions.NewChecker(db)

	docType := testutil.CreateDocumentType(t, db, "invoice")
	other := testutil.CreateDocumentType(t, db, "receipt")
	user := &permissions.User{ID: "2", Roles: []string{"clerk"}}

	assert.ErrorIs(t, checker.CheckAccess(ctx, user, permView, docType), permissions.ErrPermissionDenied)

	require.NoError(t, checker.GrantAccess(ctx, docType, "clerk", permView))
	assert.NoError(t, checker.CheckAccess(ctx, user, permView, docType))
	assert.ErrorIs(t, checker.CheckAccess(ctx, user, permEdit, docType), permissions.ErrPermissionDenied)
	assert.ErrorIs(t, checker.CheckAccess(ctx, user, permView, other), permissions.ErrPermissionDenied)

	entries, err := checker.EntriesFor(ctx, docType)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "checker_test.thing_view", entries[0].Permission)

	require.NoError(t, checker.RevokeAccess(ctx, docType, "clerk", permView))
	assert.ErrorIs(t, checker.CheckAccess(ctx, user, permView, docType), permissions.ErrPermissionDenied)
}

func TestCheckAccessInherited(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	checker := permissions.NewChecker(db)

	docType := testutil.CreateDocumentType(t, db, "invoice")
	settings := &models.DocumentTypeSettings{DocumentTypeID: docType.ID}
	require.NoError(t, db.Where("document_type_id = ?", docType.ID).FirstOrCreate(settings).Error)

	user := &permissions.User{ID: "2", Roles: []string{"clerk"}}
	assert.ErrorIs(t, checker.CheckAccess(ctx, user, permEdit, settings), permissions.ErrPermissionDenied)

	require.NoError(t, checker.GrantAccess(ctx, docType, "clerk", permEdit))
	assert.NoError(t, checker.CheckAccess(ctx, user, permEdit, settings))
}

func TestFilterAccessible(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	checker := permissions.NewChecker(db)

	a := testutil.CreateDocumentType(t, db, "a")
	b := testutil.CreateDocumentType(t, db, "b")
	testutil.CreateDocumentType(t, db, "c")

	ids := func(user *permissions.User) []uint64 {
		q, err := checker.FilterAccessible(ctx, user, permView, models.ContentTypeDocumentType, db.Model(&models.DocumentType{}), "id")
		require.NoError(t, err)
		var out []uint64
		require.NoError(t, q.Order("id").Pluck("id", &out).Error)
		return out
	}

	clerk := &permissions.User{ID: "2", Roles: []string{"clerk"}}
	assert.Empty(t, ids(clerk))
	assert.Empty(t, ids(&permissions.User{ID: "3"}))

	require.NoError(t, checker.GrantAccess(ctx, a, "clerk", permView))
	require.NoError(t, checker.GrantAccess(ctx, b, "clerk", permEdit))
	assert.Equal(t, []uint64{a.ID}, ids(clerk))

	assert.Len(t, ids(&permissions.User{ID: "1", Roles: []string{"admin"}}), 3)
}

func TestRegistry(t *testing.T) {
	p, ok := permissions.Get("checker_test.thing_view")
	require.True(t, ok)
	assert.Same(t, permView, p)
	assert.Same(t, permView, testNamespace.AddPermission("thing_view", "again"))

	assert.True(t, permissions.IsRegisteredFor(models.ContentTypeDocumentType, permEdit))
	assert.False(t, permissions.IsRegisteredFor(models.ContentTypeSmartLink, permEdit))
	assert.True(t, permissions.IsRegisteredFor(models.ContentTypeDocumentTypeSettings, permEdit))
	assert.Contains(t, permissions.All(), permView)
}
