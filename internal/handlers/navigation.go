package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/navigation"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/types"
	"github.com/localnerve/docsdb/internal/utils"
)

// NavigationHandler resolves menus for the current user
type NavigationHandler struct {
	Navigation *navigation.Registry
	Checker    *permissions.Checker
	Documents  *services.DocumentService
	Linking    *services.LinkingService
}

// MenuResponse is a menu resolved for a source
type MenuResponse struct {
	Menu   string                    `json:"menu"`
	Source string                    `json:"source"`
	Links  []navigation.ResolvedLink `json:"links"`
}

// GetMenu handles GET /api/navigation/:menu?source=&object_id=
// @Summary Resolve a menu
// @Description Returns the links bound to source that the user may follow. With object_id, source must be a content type and link permissions are checked against that object.
// @Tags Navigation
// @Produce json
// @Param menu path string true "Menu name"
// @Param source query string false "Content type or view name"
// @Param object_id query int false "Object primary key"
// @Success 200 {object} MenuResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /navigation/{menu} [get]
func (h *NavigationHandler) GetMenu(c *fiber.Ctx) error {
	menu, ok := h.Navigation.GetMenu(c.Params("menu"))
	if !ok {
		return types.NewNotFound("Unknown menu "+c.Params("menu"), "not_found")
	}

	source := c.Query("source")
	var obj permissions.Object
	if raw := c.Query("object_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return types.NewBadRequest("Invalid object_id "+raw, "validation")
		}
		if obj, err = h.object(c, source, id); err != nil {
			return err
		}
	}

	links, err := menu.Resolve(c.UserContext(), h.Checker, currentUser(c), source, obj)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, MenuResponse{Menu: menu.Name, Source: source, Links: links}, fiber.StatusOK)
}

// object loads the menu object of a content type source
func (h *NavigationHandler) object(c *fiber.Ctx, source string, id uint64) (permissions.Object, error) {
	ctx := c.UserContext()
	switch source {
	case models.ContentTypeDocument:
		return h.Documents.GetDocument(ctx, id)
	case models.ContentTypeDocumentType:
		return h.Documents.GetDocumentType(ctx, id)
	case models.ContentTypeDocumentPage:
		return h.Documents.GetPage(ctx, id)
	case models.ContentTypeSmartLink:
		return h.Linking.GetSmartLink(ctx, id)
	}
	return nil, types.NewBadRequest("object_id is not supported for source "+source, "validation")
}
