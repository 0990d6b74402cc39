package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/docsdb/internal/apps"
	"github.com/localnerve/docsdb/internal/config"
	"github.com/localnerve/docsdb/internal/handlers"
	"github.com/localnerve/docsdb/internal/middleware"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/signals"
	"github.com/localnerve/docsdb/internal/storage"
	"github.com/localnerve/docsdb/internal/tasks"
	"github.com/localnerve/docsdb/internal/testutil"
)

var (
	admin = &permissions.User{ID: "root", Roles: []string{permissions.RoleAdmin}}
	clerk = &permissions.User{ID: "clerk", Roles: []string{"clerks"}}
)

// harness serves the API over an in-memory database as the current user
type harness struct {
	t    *testing.T
	apps *apps.Apps
	app  *fiber.App
	user *permissions.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewTestDB(t)
	fs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		ParsingWorkers:     1,
		IndexingWorkers:    1,
		ParsingTaskRetries: 1,
		AutoParsingDefault: true,
	}
	a := apps.New(cfg, db, fs, tasks.NewBroker(tasks.Eager()))
	require.NoError(t, a.Ready())
	t.Cleanup(func() {
		signals.PostDocumentVersionParsing.Disconnect(apps.DispatchIndexDocument)
		signals.PostDocumentTypeSave.Disconnect(apps.DispatchInitializeParsingSettings)
		signals.PostVersionUpload.Disconnect(apps.DispatchParseDocumentVersion)
	})

	h := &harness{t: t, apps: a, user: admin}
	h.app = fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	api := h.app.Group("/api", func(c *fiber.Ctx) error {
		return middleware.WithUser(h.user)(c)
	})
	handlers.Register(api, a)
	h.app.Use(handlers.NotFoundHandler)
	return h
}

func (h *harness) as(user *permissions.User) *harness {
	h.user = user
	return h
}

func (h *harness) request(req *http.Request) *http.Response {
	h.t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	return resp
}

// do sends body as JSON, or no body when it is nil
func (h *harness) do(method, path string, body interface{}) *http.Response {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.request(req)
}

// upload posts a multipart file with the extra form fields
func (h *harness) upload(path, fileName, mimeType string, content []byte, fields map[string]string) *http.Response {
	h.t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, w.WriteField(k, v))
	}
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + fileName + `"`}
	header["Content-Type"] = []string{mimeType}
	part, err := w.CreatePart(header)
	require.NoError(h.t, err)
	_, err = part.Write(content)
	require.NoError(h.t, err)
	require.NoError(h.t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return h.request(req)
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	testutil.ParseJSON(t, resp, &out)
	return out
}

// results returns the results of a list response
func results(t *testing.T, resp *http.Response) []interface{} {
	t.Helper()
	out := decode(t, resp)
	items, ok := out["results"].([]interface{})
	require.True(t, ok, "results missing from %v", out)
	require.EqualValues(t, len(items), out["count"])
	return items
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
