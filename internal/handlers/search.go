package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/search"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/types"
	"github.com/localnerve/docsdb/internal/utils"
)

// SearchHandler handles the search routes
type SearchHandler struct {
	DB      *gorm.DB
	Models  *search.Registry
	Checker *permissions.Checker
}

// SearchResult is a matched row of a search model
type SearchResult struct {
	ID            uint64 `json:"id"`
	Label         string `json:"label"`
	DocumentID    uint64 `json:"document_id"`
	PageNumber    int    `json:"page_number,omitempty"`
	DocumentLabel string `json:"document_label,omitempty"`
}

// SearchResponse lists the fields searched and the matches
type SearchResponse struct {
	Model   string         `json:"model"`
	Fields  []search.Field `json:"fields"`
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}

// Search handles GET /api/search/:model?q=
// @Summary Search documents or document pages
// @Description Matches the term against every searchable field of the model, case-insensitively. Results are limited to documents the user may view.
// @Tags Search
// @Produce json
// @Param model path string true "Search model, documents.document or documents.documentpage"
// @Param q query string true "Search term"
// @Success 200 {object} SearchResponse
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /search/{model} [get]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	model, ok := h.Models.Get(c.Params("model"))
	if !ok {
		return types.NewNotFound("Unknown search model "+c.Params("model"), "not_found")
	}

	ctx := c.UserContext()
	ids, err := model.Search(ctx, h.DB, c.Query("q"))
	if err != nil {
		return err
	}

	results := make([]SearchResult, 0, len(ids))
	if len(ids) > 0 {
		switch model.ContentType {
		case models.ContentTypeDocument:
			results, err = h.documents(c, ids)
		case models.ContentTypeDocumentPage:
			results, err = h.pages(c, ids)
		}
		if err != nil {
			return err
		}
	}

	return utils.SuccessResponse(c, SearchResponse{
		Model:   model.Name,
		Fields:  model.Fields(),
		Count:   len(results),
		Results: results,
	}, fiber.StatusOK)
}

// viewableDocuments is the id subquery of the documents the user may view
func (h *SearchHandler) viewableDocuments(c *fiber.Ctx) (*gorm.DB, error) {
	q := h.DB.WithContext(c.UserContext()).Model(&models.Document{}).Select("id")
	return h.Checker.FilterAccessible(c.UserContext(), currentUser(c), services.PermissionDocumentView, models.ContentTypeDocument, q, "id")
}

func (h *SearchHandler) documents(c *fiber.Ctx, ids []uint64) ([]SearchResult, error) {
	viewable, err := h.viewableDocuments(c)
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	err = h.DB.WithContext(c.UserContext()).
		Where("id IN ?", ids).
		Where("id IN (?)", viewable).
		Order("id").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, SearchResult{ID: doc.ID, Label: doc.Label, DocumentID: doc.ID})
	}
	return results, nil
}

func (h *SearchHandler) pages(c *fiber.Ctx, ids []uint64) ([]SearchResult, error) {
	viewable, err := h.viewableDocuments(c)
	if err != nil {
		return nil, err
	}

	var pages []models.DocumentPage
	err = h.DB.WithContext(c.UserContext()).
		Preload("DocumentVersion.Document").
		Joins("JOIN document_versions ON document_versions.id = document_pages.document_version_id").
		Where("document_pages.id IN ?", ids).
		Where("document_versions.document_id IN (?)", viewable).
		Order("document_pages.id").
		Find(&pages).Error
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(pages))
	for _, page := range pages {
		result := SearchResult{ID: page.ID, PageNumber: page.PageNumber}
		if page.DocumentVersion != nil && page.DocumentVersion.Document != nil {
			doc := page.DocumentVersion.Document
			result.DocumentID = doc.ID
			result.DocumentLabel = doc.Label
			result.Label = doc.Label
		}
		results = append(results, result)
	}
	return results, nil
}
