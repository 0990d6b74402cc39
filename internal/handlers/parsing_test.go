package handlers_test

import (
	"context"
	"io"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/testutil"
)

// uploadText creates the "letters" document type on first use and uploads a
// text document to it
func uploadText(t *testing.T, h *harness, fileName, content string) map[string]interface{} {
	t.Helper()
	if _, err := h.apps.Documents.GetDocumentType(context.Background(), 1); err != nil {
		testutil.AssertStatus(t, h.do(fiber.MethodPost, "/api/document_types", map[string]interface{}{"label": "letters"}), fiber.StatusCreated)
	}
	resp := h.upload("/api/documents", fileName, "text/plain", []byte(content), map[string]string{"document_type_id": "1"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decode(t, resp)
}

func formInitial(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	fields := body["fields"].([]interface{})
	require.Len(t, fields, 1)
	field := fields[0].(map[string]interface{})
	assert.Equal(t, "contents", field["name"])
	return field["initial"].(string)
}

func TestDocumentContentRoutes(t *testing.T) {
	h := newHarness(t)
	doc := uploadText(t, h, "letter.txt", "Dear <reader>\fPage two")
	assert.Equal(t, "letter.txt", doc["label"])

	resp := h.do(fiber.MethodGet, "/api/parsing/documents/1/content", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	initial := formInitial(t, decode(t, resp))
	assert.Contains(t, initial, "Dear &lt;reader&gt;")
	assert.Contains(t, initial, `<div class="document-page-content-divider">- Page 1 -</div>`)
	assert.Contains(t, initial, "- Page 2 -")

	resp = h.do(fiber.MethodGet, "/api/parsing/documents/1/content/download", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "letter.txt-content.txt")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Dear <reader>\nPage two", string(body))

	resp = h.do(fiber.MethodGet, "/api/parsing/document_pages/2/content", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Equal(t, "Page two", formInitial(t, decode(t, resp)))

	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/parsing/documents/9/content", nil), fiber.StatusNotFound)
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/parsing/documents/abc/content", nil), fiber.StatusNotFound)

	h.as(clerk)
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/parsing/documents/1/content", nil), fiber.StatusForbidden)
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/parsing/document_pages/1/content", nil), fiber.StatusForbidden)
}

func TestNewVersionReplacesContent(t *testing.T) {
	h := newHarness(t)
	uploadText(t, h, "memo.txt", "first draft")

	resp := h.upload("/api/documents/1/versions", "memo.txt", "text/plain", []byte("final text"), map[string]string{"comment": "final"})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	assert.Equal(t, "final", decode(t, resp)["comment"])

	resp = h.do(fiber.MethodGet, "/api/parsing/documents/1/content/download", nil)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "final text", string(body))

	resp = h.upload("/api/documents/1/versions", "empty.txt", "text/plain", nil, nil)
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)
}

func TestSubmitRoutes(t *testing.T) {
	h := newHarness(t)
	uploadText(t, h, "a.txt", "alpha")
	uploadText(t, h, "b.txt", "beta")

	resp := h.do(fiber.MethodPost, "/api/parsing/documents/1/submit", nil)
	testutil.AssertStatus(t, resp, fiber.StatusAccepted)
	assert.EqualValues(t, 1, decode(t, resp)["submitted"])

	resp = h.do(fiber.MethodPost, "/api/parsing/documents/submit", map[string]interface{}{"id_list": "1,2,99"})
	testutil.AssertStatus(t, resp, fiber.StatusAccepted)
	body := decode(t, resp)
	assert.EqualValues(t, 2, body["submitted"])
	assert.EqualValues(t, 1, body["denied"])

	resp = h.do(fiber.MethodPost, "/api/parsing/documents/submit?id_list=2", nil)
	testutil.AssertStatus(t, resp, fiber.StatusAccepted)
	assert.EqualValues(t, 1, decode(t, resp)["submitted"])

	resp = h.do(fiber.MethodPost, "/api/parsing/documents/submit", map[string]interface{}{})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = h.do(fiber.MethodPost, "/api/parsing/document_types/1/submit", nil)
	testutil.AssertStatus(t, resp, fiber.StatusAccepted)
	assert.EqualValues(t, 2, decode(t, resp)["submitted"])
	testutil.AssertStatus(t, h.do(fiber.MethodPost, "/api/parsing/document_types/7/submit", nil), fiber.StatusNotFound)

	h.as(clerk)
	testutil.AssertStatus(t, h.do(fiber.MethodPost, "/api/parsing/documents/1/submit", nil), fiber.StatusForbidden)
	testutil.AssertStatus(t, h.do(fiber.MethodPost, "/api/parsing/document_types/1/submit", nil), fiber.StatusForbidden)

	doc, err := h.apps.Documents.GetDocument(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, h.apps.Checker.GrantAccess(context.Background(), doc, "clerks", services.PermissionParseDocument))
	resp = h.do(fiber.MethodPost, "/api/parsing/documents/submit", map[string]interface{}{"id_list": []interface{}{1, 2}})
	testutil.AssertStatus(t, resp, fiber.StatusAccepted)
	body = decode(t, resp)
	assert.EqualValues(t, 1, body["submitted"])
	assert.EqualValues(t, 1, body["denied"])
}

func TestParseErrorRoutes(t *testing.T) {
	h := newHarness(t)
	uploadText(t, h, "fine.txt", "readable")
	resp := h.upload("/api/documents", "scan.png", "image/png", []byte("not text"), map[string]string{
		"document_type_id": "1", "label": "scan",
	})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)

	items := results(t, h.do(fiber.MethodGet, "/api/parsing/errors", nil))
	require.Len(t, items, 1)
	parseError := items[0].(map[string]interface{})
	assert.Contains(t, parseError["result"], "no parser available")
	columns := parseError["columns"].([]interface{})
	require.Len(t, columns, 3)
	document := columns[0].(map[string]interface{})
	assert.Equal(t, "Document", document["label"])
	assert.Equal(t, "scan", document["value"].(map[string]interface{})["label"])

	assert.Len(t, results(t, h.do(fiber.MethodGet, "/api/parsing/documents/2/errors", nil)), 1)
	assert.Empty(t, results(t, h.do(fiber.MethodGet, "/api/parsing/documents/1/errors", nil)))

	h.as(clerk)
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/parsing/errors", nil), fiber.StatusForbidden)
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/parsing/documents/2/errors", nil), fiber.StatusForbidden)
}

func TestSettingsRoutes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.AssertStatus(t, h.do(fiber.MethodPost, "/api/document_types", map[string]interface{}{"label": "letters"}), fiber.StatusCreated)

	resp := h.do(fiber.MethodGet, "/api/parsing/document_types/1/settings", nil)
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Equal(t, true, decode(t, resp)["auto_parsing"])

	resp = h.do(fiber.MethodPatch, "/api/parsing/document_types/1/settings", map[string]interface{}{})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Equal(t, true, decode(t, resp)["auto_parsing"])

	resp = h.do(fiber.MethodPut, "/api/parsing/document_types/1/settings", map[string]interface{}{})
	testutil.AssertStatus(t, resp, fiber.StatusBadRequest)

	resp = h.do(fiber.MethodPut, "/api/parsing/document_types/1/settings", map[string]interface{}{"auto_parsing": false})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Equal(t, false, decode(t, resp)["auto_parsing"])

	resp = h.upload("/api/documents", "later.txt", "text/plain", []byte("parse me later"), map[string]string{"document_type_id": "1"})
	testutil.AssertStatus(t, resp, fiber.StatusCreated)
	content, err := h.apps.Parsing.DocumentContent(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, content)

	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/parsing/document_types/5/settings", nil), fiber.StatusNotFound)

	h.as(clerk)
	testutil.AssertStatus(t, h.do(fiber.MethodGet, "/api/parsing/document_types/1/settings", nil), fiber.StatusForbidden)

	docType, err := h.apps.Documents.GetDocumentType(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, h.apps.Checker.GrantAccess(ctx, docType, "clerks", services.PermissionDocumentTypeParsingSetup))
	resp = h.do(fiber.MethodPatch, "/api/parsing/document_types/1/settings", map[string]interface{}{"auto_parsing": true})
	testutil.AssertStatus(t, resp, fiber.StatusOK)
	assert.Equal(t, true, decode(t, resp)["auto_parsing"])
}
