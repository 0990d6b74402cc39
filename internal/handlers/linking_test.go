package handlers_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/testutil"
)

func createSmartLink(t *testing.T, h *harness, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	resp := h.do(fiber.MethodPost, "/api/smart_links", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode(t, resp)
}

func TestSmartLinkCRUD(t *testing.T) {
	h := newHarness(t)
	invoices := testutil.CreateDocumentType(t, h.apps.DB, "invoices")
	testutil.CreateDocumentType(t, h.apps.DB, "receipts")

	link := createSmartLink(t, h, map[string]interface{}{
		"label":                  " Related invoices ",
		"dynamic_label":          "Invoices of {{ .document.label }}",
		"document_types_pk_list": "1,2",
	})
	assert.Equal(t, "Related invoices", link["label"])
	assert.Equal(t, true, link["enabled"])
	assert.Equal(t, "http://example.com/api/smart_links/1", link["url"])
	assert.Equal(t, "http://example.com/api/smart_links/1/conditions", link["conditions_url"])
	docTypes := link["document_types"].([]interface{})
	require.Len(t, docTypes, 2)
	assert.Equal(t, "invoices", docTypes[0].(map[string]interface{})["label"])

	items := results(t, h.do(fiber.MethodGet, "/api/smart_links", nil))
	assert.Len(t, items, 1)

	resp := h.do(fiber.MethodPatch, "/api/smart_links/1", map[string]interface{}{"enabled": false})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	patched := decode(t, resp)
	assert.Equal(t, false, patched["enabled"])
	assert.Equal(t, "Related invoices", patched["label"])
	assert.Len(t, patched["document_types"], 2)

	resp = h.do(fiber.MethodPut, "/api/smart_links/1", map[string]interface{}{"dynamic_label": ""})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	body := decode(t, resp)
	assert.Equal(t, "validation", body["type"])
	assert.Equal(t, []interface{}{"This field is required."}, body["errors"].(map[string]interface{})["label"])

	resp = h.do(fiber.MethodPut, "/api/smart_links/1", map[string]interface{}{
		"label":                  "Invoices",
		"document_types_pk_list": []interface{}{invoices.ID},
	})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Len(t, decode(t, resp)["document_types"], 1)

	resp = h.do(fiber.MethodDelete, "/api/smart_links/1", nil)
	testutil.AssertStatus(t, resp, fiber.StatusNoContent)
	testutil.AssertNoContent(t, resp)

	resp = h.do(fiber.MethodGet, "/api/smart_links/1", nil)
	testutil.AssertStatus(t, resp, fiber.StatusNotFound)
}

func TestSmartLinkCreateValidation(t *testing.T) {
	h := newHarness(t)

	resp := h.do(fiber.MethodPost, "/api/smart_links", map[string]interface{}{"document_types_pk_list": "42"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	errs := decode(t, resp)["errors"].(map[string]interface{})
	assert.Equal(t, []interface{}{"This field is required."}, errs["label"])
	assert.Equal(t, []interface{}{`Invalid pk "42" - object does not exist.`}, errs["document_types_pk_list"])
}

func TestSmartLinkObjectPermissions(t *testing.T) {
	h := newHarness(t)
	createSmartLink(t, h, map[string]interface{}{"label": "Related"})
	ctx := context.Background()

	h.as(clerk)
	assert.Empty(t, results(t, h.do(fiber.MethodGet, "/api/smart_links", nil)))
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/smart_links/1", nil), fiber.StatusNotFound)
	testutil.AssertStatus(t, h.do(fiber.MethodPost, "/api/smart_links", map[string]interface{}{"label": "Mine"}), fiber.StatusForbidden)

	link, err := h.apps.Linking.GetSmartLink(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, h.apps.Checker.GrantAccess(ctx, link, "clerks", services.PermissionSmartLinkView))

	assert.Len(t, results(t, h.do(fiber.MethodGet, "/api/smart_links", nil)), 1)
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/smart_links/1", nil), fiber.StatusOK)
	testutil.AssertStatus(t, h.do(fiber.MethodPatch, "/api/smart_links/1", map[string]interface{}{"enabled": false}), fiber.StatusNotFound)
	testutil.AssertStatus(t, h.do(fiber.MethodDelete, "/api/smart_links/1", nil), fiber.StatusNotFound)

	require.NoError(t, h.apps.Checker.GrantAccess(ctx, link, "clerks", services.PermissionSmartLinkEdit))
	testutil.AssertStatus(t, h.do(fiber.MethodPatch, "/api/smart_links/1", map[string]interface{}{"enabled": false}), fiber.StatusOK)

	require.NoError(t, h.apps.Checker.Grant(ctx, "clerks", services.PermissionSmartLinkCreate))
	testutil.AssertStatus(t, h.do(fiber.MethodPost, "/api/smart_links", map[string]interface{}{"label": "Mine"}), fiber.StatusCreated)
}

func TestConditionRoutes(t *testing.T) {
	h := newHarness(t)
	createSmartLink(t, h, map[string]interface{}{"label": "First"})
	createSmartLink(t, h, map[string]interface{}{"label": "Second"})

	resp := h.do(fiber.MethodPost, "/api/smart_links/1/conditions", map[string]interface{}{
		"foreign_document_data": "label",
		"operator":              "icontains",
		"expression":            "{{ .document.label }}",
	})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	condition := decode(t, resp)
	assert.Equal(t, "&", condition["inclusion"])
	assert.Equal(t, true, condition["enabled"])
	assert.Equal(t, "http://example.com/api/smart_links/1", condition["smart_link_url"])
	assert.Equal(t, "http://example.com/api/smart_links/1/conditions/1", condition["url"])

	assert.Len(t, results(t, h.do(fiber.MethodGet, "/api/smart_links/1/conditions", nil)), 1)
	assert.Empty(t, results(t, h.do(fiber.MethodGet, "/api/smart_links/2/conditions", nil)))

	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/smart_links/2/conditions/1", nil), fiber.StatusNotFound)
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/smart_links/9/conditions", nil), fiber.StatusNotFound)

	resp = h.do(fiber.MethodPatch, "/api/smart_links/1/conditions/1", map[string]interface{}{"negated": true, "inclusion": "|"})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	patched := decode(t, resp)
	assert.Equal(t, true, patched["negated"])
	assert.Equal(t, "|", patched["inclusion"])
	assert.Equal(t, "icontains", patched["operator"])

	resp = h.do(fiber.MethodPut, "/api/smart_links/1/conditions/1", map[string]interface{}{"operator": "^"})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
	errs := decode(t, resp)["errors"].(map[string]interface{})
	assert.Equal(t, []interface{}{`"^" is not a valid choice.`}, errs["operator"])
	assert.Contains(t, errs, "foreign_document_data")
	assert.Contains(t, errs, "expression")

	testutil.AssertStatus(t, h.do(fiber.MethodDelete, "/api/smart_links/1/conditions/1", nil), fiber.StatusNoContent)
	assert.Empty(t, results(t, h.do(fiber.MethodGet, "/api/smart_links/1/conditions", nil)))
}

func TestConditionRoutesRequireSmartLinkAccess(t *testing.T) {
	h := newHarness(t)
	createSmartLink(t, h, map[string]interface{}{"label": "Related"})
	ctx := context.Background()

	h.as(clerk)
	resp := h.do(fiber.MethodGet, "/api/smart_links/1/conditions", nil)
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)
	assert.Equal(t, "permission_denied", decode(t, resp)["type"])

	link, err := h.apps.Linking.GetSmartLink(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, h.apps.Checker.GrantAccess(ctx, link, "clerks", services.PermissionSmartLinkView))

	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/smart_links/1/conditions", nil), fiber.StatusOK)
	resp = h.do(fiber.MethodPost, "/api/smart_links/1/conditions", map[string]interface{}{
		"foreign_document_data": "label", "operator": "exact", "expression": "x",
	})
	testutil.AssertStatus(t, resp, fiber.StatusForbidden)
}

func TestDocumentSmartLinkResolution(t *testing.T) {
	h := newHarness(t)
	db := h.apps.DB
	invoices := testutil.CreateDocumentType(t, db, "invoices")
	other := testutil.CreateDocumentType(t, db, "other")
	source := testutil.CreateDocument(t, db, invoices, "ACME 2024")
	match := testutil.CreateDocument(t, db, invoices, "acme 2024")
	testutil.CreateDocument(t, db, invoices, "Globex")
	outsider := testutil.CreateDocument(t, db, other, "Other")

	createSmartLink(t, h, map[string]interface{}{
		"label":                  "Same label",
		"dynamic_label":          "Like {{ .document.label }}",
		"document_types_pk_list": []interface{}{invoices.ID},
	})
	resp := h.do(fiber.MethodPost, "/api/smart_links/1/conditions", map[string]interface{}{
		"foreign_document_data": "label", "operator": "iexact", "expression": "{{ .document.label }}",
	})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	createSmartLink(t, h, map[string]interface{}{
		"label": "Disabled", "enabled": false, "document_types_pk_list": []interface{}{invoices.ID},
	})

	items := results(t, h.do(fiber.MethodGet, "/api/documents/1/smart_links", nil))
	require.Len(t, items, 1)
	resolved := items[0].(map[string]interface{})
	assert.Equal(t, "Like ACME 2024", resolved["label"])
	assert.Equal(t, "http://example.com/api/documents/1/smart_links/1/documents", resolved["documents_url"])

	docs := results(t, h.do(fiber.MethodGet, "/api/documents/1/smart_links/1/documents", nil))
	require.Len(t, docs, 1)
	assert.EqualValues(t, match.ID, docs[0].(map[string]interface{})["id"])

	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/documents/1/smart_links/2/documents", nil), fiber.StatusNotFound)
	path := "/api/documents/" + itoa(outsider.ID) + "/smart_links/1/documents"
	testutil.AssertStatus(t, h.do(fiber.MethodGet, path, nil), fiber.StatusNotFound)

	h.as(clerk)
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/documents/"+itoa(source.ID)+"/smart_links", nil), fiber.StatusForbidden)
}

func TestLinkedDocumentsFilteredByDocumentView(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	db := h.apps.DB
	invoices := testutil.CreateDocumentType(t, db, "invoices")
	source := testutil.CreateDocument(t, db, invoices, "source")
	visible := testutil.CreateDocument(t, db, invoices, "sibling one")
	testutil.CreateDocument(t, db, invoices, "sibling two")

	createSmartLink(t, h, map[string]interface{}{"label": "Siblings", "document_types_pk_list": []interface{}{invoices.ID}})
	resp := h.do(fiber.MethodPost, "/api/smart_links/1/conditions", map[string]interface{}{
		"foreign_document_data": "document_type__label", "operator": "exact", "expression": "invoices",
	})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)

	assert.Len(t, results(t, h.do(fiber.MethodGet, "/api/documents/1/smart_links/1/documents", nil)), 2)

	link, err := h.apps.Linking.GetSmartLink(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, h.apps.Checker.GrantAccess(ctx, source, "clerks", services.PermissionSmartLinkInstanceView))
	require.NoError(t, h.apps.Checker.GrantAccess(ctx, link, "clerks", services.PermissionSmartLinkView))
	require.NoError(t, h.apps.Checker.GrantAccess(ctx, visible, "clerks", services.PermissionDocumentView))

	h.as(clerk)
	docs := results(t, h.do(fiber.MethodGet, "/api/documents/1/smart_links/1/documents", nil))
	require.Len(t, docs, 1)
	assert.Equal(t, "sibling one", docs[0].(map[string]interface{})["label"])

	var count int64
	require.NoError(t, db.Model(&models.AccessControlEntry{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}
