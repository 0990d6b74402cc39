package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/testutil"
	"github.com/localnerve/docsdb/internal/types"
)

var admin = &permissions.User{ID: "admin-1", Roles: []string{permissions.RoleAdmin}}

func idList(ids ...uint64) *types.FlexIDList {
	list := make(types.FlexIDList, 0, len(ids))
	for _, id := range ids {
		list = append(list, types.FlexUint64(id))
	}
	return &list
}

func TestCreateSmartLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := testutil.CreateDocumentType(t, env.db, "invoice")
	receipt := testutil.CreateDocumentType(t, env.db, "receipt")

	link, err := env.linking.CreateSmartLink(ctx, SmartLinkInput{
		Label:               ptr("  same customer "),
		DynamicLabel:        ptr("Customer {{ .document.label }}"),
		DocumentTypesPKList: idList(receipt.ID, invoice.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "same customer", link.Label)
	assert.True(t, link.Enabled)

	loaded, err := env.linking.GetSmartLink(ctx, link.ID)
	require.NoError(t, err)
	require.Len(t, loaded.DocumentTypes, 2)
	assert.Equal(t, "invoice", loaded.DocumentTypes[0].Label)
	assert.Equal(t, "receipt", loaded.DocumentTypes[1].Label)
}

func TestCreateSmartLinkValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.linking.CreateSmartLink(ctx, SmartLinkInput{DocumentTypesPKList: idList(42)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"This field is required."}, verr.Fields["label"])
	assert.Equal(t, []string{`Invalid pk "42" - object does not exist.`}, verr.Fields["document_types_pk_list"])

	_, err = env.linking.CreateSmartLink(ctx, SmartLinkInput{Label: ptr("taken")})
	require.NoError(t, err)
	_, err = env.linking.CreateSmartLink(ctx, SmartLinkInput{Label: ptr("taken")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "label")
}

func TestUpdateSmartLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := testutil.CreateDocumentType(t, env.db, "invoice")

	link, err := env.linking.CreateSmartLink(ctx, SmartLinkInput{
		Label:               ptr("original"),
		DocumentTypesPKList: idList(invoice.ID),
	})
	require.NoError(t, err)

	// Partial update keeps the document types.
	require.NoError(t, env.linking.UpdateSmartLink(ctx, link, SmartLinkInput{Enabled: ptr(false)}, true))
	loaded, err := env.linking.GetSmartLink(ctx, link.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Enabled)
	assert.Equal(t, "original", loaded.Label)
	assert.Len(t, loaded.DocumentTypes, 1)

	// Full update requires the label.
	err = env.linking.UpdateSmartLink(ctx, loaded, SmartLinkInput{Enabled: ptr(true)}, false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// An empty list clears the document types.
	require.NoError(t, env.linking.UpdateSmartLink(ctx, loaded, SmartLinkInput{
		Label:               ptr("renamed"),
		DocumentTypesPKList: idList(),
	}, false))
	loaded, err = env.linking.GetSmartLink(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Label)
	assert.Empty(t, loaded.DocumentTypes)
}

func TestDeleteSmartLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := testutil.CreateDocumentType(t, env.db, "invoice")

	link, err := env.linking.CreateSmartLink(ctx, SmartLinkInput{Label: ptr("doomed"), DocumentTypesPKList: idList(invoice.ID)})
	require.NoError(t, err)
	_, err = env.linking.CreateCondition(ctx, link, SmartLinkConditionInput{
		ForeignDocumentData: ptr("label"), Operator: ptr("exact"), Expression: ptr("x"),
	})
	require.NoError(t, err)
	require.NoError(t, env.checker.GrantAccess(ctx, link, "editors", PermissionSmartLinkView))

	require.NoError(t, env.linking.DeleteSmartLink(ctx, link))

	_, err = env.linking.GetSmartLink(ctx, link.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var count int64
	env.db.Model(&models.SmartLinkCondition{}).Count(&count)
	assert.Zero(t, count)
	env.db.Model(&models.AccessControlEntry{}).Count(&count)
	assert.Zero(t, count)
	env.db.Table("linking_smart_link_document_types").Count(&count)
	assert.Zero(t, count)
}

func TestListSmartLinksFiltersByAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	visible, err := env.linking.CreateSmartLink(ctx, SmartLinkInput{Label: ptr("b visible")})
	require.NoError(t, err)
	_, err = env.linking.CreateSmartLink(ctx, SmartLinkInput{Label: ptr("a hidden")})
	require.NoError(t, err)

	all, err := env.linking.ListSmartLinks(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a hidden", all[0].Label)

	editor := &permissions.User{ID: "u1", Roles: []string{"editors"}}
	links, err := env.linking.ListSmartLinks(ctx, editor)
	require.NoError(t, err)
	assert.Empty(t, links)

	require.NoError(t, env.checker.GrantAccess(ctx, visible, "editors", PermissionSmartLinkView))
	links, err = env.linking.ListSmartLinks(ctx, editor)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, visible.ID, links[0].ID)

	require.NoError(t, env.checker.Grant(ctx, "editors", PermissionSmartLinkView))
	links, err = env.linking.ListSmartLinks(ctx, editor)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestConditionCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	link, err := env.linking.CreateSmartLink(ctx, SmartLinkInput{Label: ptr("first")})
	require.NoError(t, err)
	other, err := env.linking.CreateSmartLink(ctx, SmartLinkInput{Label: ptr("second")})
	require.NoError(t, err)

	condition, err := env.linking.CreateCondition(ctx, link, SmartLinkConditionInput{
		ForeignDocumentData: ptr("label"),
		Operator:            ptr("icontains"),
		Expression:          ptr("{{ .document.label }}"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.InclusionAnd, condition.Inclusion)
	assert.True(t, condition.Enabled)
	assert.False(t, condition.Negated)

	_, err = env.linking.GetCondition(ctx, other, condition.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.linking.UpdateCondition(ctx, condition, SmartLinkConditionInput{
		Inclusion: ptr(models.InclusionOr),
		Negated:   ptr(true),
	}, true))
	loaded, err := env.linking.GetCondition(ctx, link, condition.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InclusionOr, loaded.Inclusion)
	assert.True(t, loaded.Negated)
	assert.Equal(t, "icontains", loaded.Operator)

	conditions, err := env.linking.ListConditions(ctx, link)
	require.NoError(t, err)
	assert.Len(t, conditions, 1)
	conditions, err = env.linking.ListConditions(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, conditions)

	require.NoError(t, env.linking.DeleteCondition(ctx, loaded))
	_, err = env.linking.GetCondition(ctx, link, condition.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConditionValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	link, err := env.linking.CreateSmartLink(ctx, SmartLinkInput{Label: ptr("link")})
	require.NoError(t, err)

	_, err = env.linking.CreateCondition(ctx, link, SmartLinkConditionInput{
		Inclusion:           ptr("^"),
		ForeignDocumentData: ptr("uuid"),
		Operator:            ptr("like"),
		Expression:          ptr("{{ .document.label "),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{`"^" is not a valid choice.`}, verr.Fields["inclusion"])
	assert.Equal(t, []string{`"uuid" is not a valid choice.`}, verr.Fields["foreign_document_data"])
	assert.Equal(t, []string{`"like" is not a valid choice.`}, verr.Fields["operator"])
	assert.Len(t, verr.Fields["expression"], 1)

	_, err = env.linking.CreateCondition(ctx, link, SmartLinkConditionInput{})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}
