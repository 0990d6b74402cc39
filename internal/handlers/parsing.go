// parsing.go
//
// A document parsing and smart link data service built on the jam-build data service stack
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of docsdb.
// docsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// docsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with docsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/docsdb/internal/forms"
	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/navigation"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/types"
	"github.com/localnerve/docsdb/internal/utils"
)

// ParsingHandler handles the document parsing routes
type ParsingHandler struct {
	Documents  *services.DocumentService
	Parsing    *services.ParsingService
	Checker    *permissions.Checker
	Navigation *navigation.Registry
}

// SubmitMultipleInput lists the documents to submit for parsing
type SubmitMultipleInput struct {
	IDList types.FlexIDList `json:"id_list"`
}

// SettingsInput is the writable part of the parsing settings
type SettingsInput struct {
	AutoParsing *bool `json:"auto_parsing"`
}

// ParseErrorResponse is a parse error with its rendered list columns
type ParseErrorResponse struct {
	ID                uint64                   `json:"id"`
	DocumentVersionID uint64                   `json:"document_version_id"`
	DatetimeSubmitted time.Time                `json:"datetime_submitted"`
	Result            string                   `json:"result"`
	Columns           []navigation.ColumnValue `json:"columns"`
}

// document loads the :id document after checking perm on it
func (h *ParsingHandler) document(c *fiber.Ctx, perm *permissions.Permission) (*models.Document, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	doc, err := h.Documents.GetDocument(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if err := h.Checker.CheckAccess(c.UserContext(), currentUser(c), perm, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocumentContent handles GET /api/parsing/documents/:id/content
// @Summary Get the content form of a document
// @Description Returns the escaped text of every parsed page of the latest version, each followed by a page divider
// @Tags Parsing
// @Produce json
// @Param id path int true "Document id"
// @Success 200 {object} forms.Form
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/documents/{id}/content [get]
func (h *ParsingHandler) GetDocumentContent(c *fiber.Ctx) error {
	doc, err := h.document(c, services.PermissionContentView)
	if err != nil {
		return err
	}
	pages, err := h.Parsing.DocumentPages(c.UserContext(), doc.ID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, forms.NewDocumentContentForm(pages), fiber.StatusOK)
}

// DownloadDocumentContent handles GET /api/parsing/documents/:id/content/download
// @Summary Download the content of a document
// @Tags Parsing
// @Produce plain
// @Param id path int true "Document id"
// @Success 200 {string} string
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/documents/{id}/content/download [get]
func (h *ParsingHandler) DownloadDocumentContent(c *fiber.Ctx) error {
	doc, err := h.document(c, services.PermissionContentView)
	if err != nil {
		return err
	}
	content, err := h.Parsing.DocumentContent(c.UserContext(), doc.ID)
	if err != nil {
		return err
	}

	c.Attachment(fmt.Sprintf("%s-content.txt", doc.Label))
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(content)
}

// GetPageContent handles GET /api/parsing/document_pages/:id/content
// @Summary Get the content form of a document page
// @Tags Parsing
// @Produce json
// @Param id path int true "Document page id"
// @Success 200 {object} forms.Form
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/document_pages/{id}/content [get]
func (h *ParsingHandler) GetPageContent(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	page, err := h.Documents.GetPage(c.UserContext(), id)
	if err != nil {
		return err
	}
	if page.DocumentVersion == nil || page.DocumentVersion.Document == nil {
		return types.NewNotFound("Not found.", "not_found")
	}
	err = h.Checker.CheckAccess(c.UserContext(), currentUser(c), services.PermissionContentView, page.DocumentVersion.Document)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, forms.NewDocumentPageContentForm(page), fiber.StatusOK)
}

// SubmitDocument handles POST /api/parsing/documents/:id/submit
// @Summary Submit a document for parsing
// @Description Queues the latest version of the document. Documents without versions are accepted and skipped.
// @Tags Parsing
// @Produce json
// @Param id path int true "Document id"
// @Success 202 {object} utils.AcceptedResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/documents/{id}/submit [post]
func (h *ParsingHandler) SubmitDocument(c *fiber.Ctx) error {
	doc, err := h.document(c, services.PermissionParseDocument)
	if err != nil {
		return err
	}
	ok, err := h.Parsing.SubmitDocument(c.UserContext(), actorID(c), doc)
	if err != nil {
		return err
	}

	submitted := 0
	if ok {
		submitted = 1
	}
	return utils.AcceptedResponse(c, "Document submitted for parsing.", submitted, 0)
}

// SubmitDocuments handles POST /api/parsing/documents/submit
// @Summary Submit several documents for parsing
// @Description Documents are given in the id_list body field or query parameter. Documents the user may not parse are counted as denied.
// @Tags Parsing
// @Accept json
// @Produce json
// @Param body body SubmitMultipleInput false "Documents"
// @Param id_list query string false "Comma separated document ids"
// @Success 202 {object} utils.AcceptedResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/documents/submit [post]
func (h *ParsingHandler) SubmitDocuments(c *fiber.Ctx) error {
	var input SubmitMultipleInput
	if len(c.Body()) > 0 {
		if err := bodyParser(c, &input); err != nil {
			return err
		}
	}
	ids := input.IDList.Uint64s()
	if len(ids) == 0 {
		var err error
		if ids, err = parseIDList(c, "id_list"); err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		verr := &services.ValidationError{}
		verr.Add("id_list", "This field is required.")
		return verr
	}

	ctx := c.UserContext()
	user := currentUser(c)
	submitted, denied := 0, 0
	for _, id := range ids {
		doc, err := h.Documents.GetDocument(ctx, id)
		if errors.Is(err, services.ErrNotFound) {
			denied++
			continue
		}
		if err != nil {
			return err
		}

		err = h.Checker.CheckAccess(ctx, user, services.PermissionParseDocument, doc)
		if errors.Is(err, permissions.ErrPermissionDenied) {
			denied++
			continue
		}
		if err != nil {
			return err
		}

		ok, err := h.Parsing.SubmitDocument(ctx, actorID(c), doc)
		if err != nil {
			return err
		}
		if ok {
			submitted++
		}
	}
	return utils.AcceptedResponse(c, fmt.Sprintf("%d documents submitted for parsing.", submitted), submitted, denied)
}

// SubmitDocumentType handles POST /api/parsing/document_types/:id/submit
// @Summary Submit every document of a document type for parsing
// @Tags Parsing
// @Produce json
// @Param id path int true "Document type id"
// @Success 202 {object} utils.AcceptedResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/document_types/{id}/submit [post]
func (h *ParsingHandler) SubmitDocumentType(c *fiber.Ctx) error {
	if err := h.Checker.CheckPermissions(c.UserContext(), currentUser(c), services.PermissionParseDocument); err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	docType, err := h.Documents.GetDocumentType(c.UserContext(), id)
	if err != nil {
		return err
	}

	submitted, err := h.Parsing.SubmitDocumentType(c.UserContext(), actorID(c), docType.ID)
	if err != nil {
		return err
	}
	return utils.AcceptedResponse(c, fmt.Sprintf("%d documents of type %q submitted for parsing.", submitted, docType.Label), submitted, 0)
}

// GetSettings handles GET /api/parsing/document_types/:id/settings
// @Summary Get the parsing settings of a document type
// @Tags Parsing
// @Produce json
// @Param id path int true "Document type id"
// @Success 200 {object} models.DocumentTypeSettings
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/document_types/{id}/settings [get]
func (h *ParsingHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settings(c)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, settings, fiber.StatusOK)
}

// UpdateSettings handles PUT and PATCH /api/parsing/document_types/:id/settings
// @Summary Update the parsing settings of a document type
// @Tags Parsing
// @Accept json
// @Produce json
// @Param id path int true "Document type id"
// @Param body body SettingsInput true "Settings"
// @Success 200 {object} models.DocumentTypeSettings
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/document_types/{id}/settings [put]
// @Router /parsing/document_types/{id}/settings [patch]
func (h *ParsingHandler) UpdateSettings(c *fiber.Ctx) error {
	settings, err := h.settings(c)
	if err != nil {
		return err
	}

	var input SettingsInput
	if err := bodyParser(c, &input); err != nil {
		return err
	}
	if input.AutoParsing == nil {
		if isPartial(c) {
			return utils.SuccessResponse(c, settings, fiber.StatusOK)
		}
		verr := &services.ValidationError{}
		verr.Add("auto_parsing", "This field is required.")
		return verr
	}

	if err := h.Parsing.UpdateSettings(c.UserContext(), settings, *input.AutoParsing); err != nil {
		return err
	}
	return utils.SuccessResponse(c, settings, fiber.StatusOK)
}

func (h *ParsingHandler) settings(c *fiber.Ctx) (*models.DocumentTypeSettings, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	settings, err := h.Parsing.GetSettings(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	err = h.Checker.CheckAccess(c.UserContext(), currentUser(c), services.PermissionDocumentTypeParsingSetup, settings)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// ListErrors handles GET /api/parsing/errors
// @Summary List every parse error
// @Tags Parsing
// @Produce json
// @Success 200 {object} utils.ListResponseStruct[ParseErrorResponse]
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/errors [get]
func (h *ParsingHandler) ListErrors(c *fiber.Ctx) error {
	if err := h.Checker.CheckPermissions(c.UserContext(), currentUser(c), services.PermissionParseDocument); err != nil {
		return err
	}
	return h.listErrors(c, 0)
}

// ListDocumentErrors handles GET /api/parsing/documents/:id/errors
// @Summary List the parse errors of a document
// @Tags Parsing
// @Produce json
// @Param id path int true "Document id"
// @Success 200 {object} utils.ListResponseStruct[ParseErrorResponse]
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /parsing/documents/{id}/errors [get]
func (h *ParsingHandler) ListDocumentErrors(c *fiber.Ctx) error {
	doc, err := h.document(c, services.PermissionParseDocument)
	if err != nil {
		return err
	}
	return h.listErrors(c, doc.ID)
}

func (h *ParsingHandler) listErrors(c *fiber.Ctx, documentID uint64) error {
	parseErrors, err := h.Parsing.ListErrors(c.UserContext(), documentID)
	if err != nil {
		return err
	}

	results := make([]ParseErrorResponse, 0, len(parseErrors))
	for i := range parseErrors {
		parseError := &parseErrors[i]
		results = append(results, ParseErrorResponse{
			ID:                parseError.ID,
			DocumentVersionID: parseError.DocumentVersionID,
			DatetimeSubmitted: parseError.DatetimeSubmitted,
			Result:            parseError.Result,
			Columns:           h.Navigation.Render(models.ContentTypeDocumentVersionParseError, parseError),
		})
	}
	return utils.ListResponse(c, results)
}
