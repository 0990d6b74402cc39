package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/types"
	"github.com/localnerve/docsdb/internal/utils"
)

// ResolvedSmartLinkResponse is a smart link as shown for one document
type ResolvedSmartLinkResponse struct {
	ID           uint64 `json:"id"`
	Label        string `json:"label"`
	SmartLinkURL string `json:"smart_link_url"`
	DocumentsURL string `json:"documents_url"`
}

func (h *LinkingHandler) instanceDocument(c *fiber.Ctx) (*models.Document, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return nil, err
	}
	doc, err := h.Documents.GetDocument(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	err = h.Checker.CheckAccess(c.UserContext(), currentUser(c), services.PermissionSmartLinkInstanceView, doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocumentSmartLinks handles GET /api/documents/:id/smart_links
// @Summary List the smart links of a document
// @Description Enabled smart links bound to the document's type, with their dynamic label rendered for the document
// @Tags Linking
// @Produce json
// @Param id path int true "Document id"
// @Success 200 {object} utils.ListResponseStruct[ResolvedSmartLinkResponse]
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /documents/{id}/smart_links [get]
func (h *LinkingHandler) ListDocumentSmartLinks(c *fiber.Ctx) error {
	doc, err := h.instanceDocument(c)
	if err != nil {
		return err
	}
	resolved, err := h.Linking.SmartLinksForDocument(c.UserContext(), currentUser(c), doc)
	if err != nil {
		return err
	}

	results := make([]ResolvedSmartLinkResponse, 0, len(resolved))
	for _, r := range resolved {
		results = append(results, ResolvedSmartLinkResponse{
			ID:           r.SmartLink.ID,
			Label:        r.Label,
			SmartLinkURL: absoluteURL(c, "/api/smart_links/%d", r.SmartLink.ID),
			DocumentsURL: absoluteURL(c, "/api/documents/%d/smart_links/%d/documents", doc.ID, r.SmartLink.ID),
		})
	}
	return utils.ListResponse(c, results)
}

// ListLinkedDocuments handles GET /api/documents/:id/smart_links/:pk/documents
// @Summary Resolve a smart link for a document
// @Description Documents matching the enabled conditions of the smart link, limited to those the user may view
// @Tags Linking
// @Produce json
// @Param id path int true "Document id"
// @Param pk path int true "Smart link id"
// @Success 200 {object} utils.ListResponseStruct[models.Document]
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /documents/{id}/smart_links/{pk}/documents [get]
func (h *LinkingHandler) ListLinkedDocuments(c *fiber.Ctx) error {
	doc, err := h.instanceDocument(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "pk")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	link, err := h.Linking.GetSmartLink(ctx, id)
	if err != nil {
		return err
	}
	if !link.Enabled {
		return types.NewNotFound("Smart link is disabled.", "not_found")
	}
	applies, err := h.Linking.AppliesTo(ctx, link, doc)
	if err != nil {
		return err
	}
	if !applies {
		return types.NewNotFound("Smart link is not enabled for this document type.", "not_found")
	}
	err = h.Checker.CheckAccess(ctx, currentUser(c), services.PermissionSmartLinkView, link)
	if errors.Is(err, permissions.ErrPermissionDenied) {
		return types.NewNotFound("Not found.", "not_found")
	}
	if err != nil {
		return err
	}

	docs, err := h.Linking.LinkedDocuments(ctx, currentUser(c), link, doc)
	if err != nil {
		return err
	}
	return utils.ListResponse(c, docs)
}
