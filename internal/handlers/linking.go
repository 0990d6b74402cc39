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

// LinkingHandler handles the smart link and smart link condition routes
type LinkingHandler struct {
	Documents *services.DocumentService
	Linking   *services.LinkingService
	Checker   *permissions.Checker
}

// DocumentTypeResponse is a document type as embedded in other resources
type DocumentTypeResponse struct {
	ID    uint64 `json:"id"`
	Label string `json:"label"`
}

// SmartLinkResponse is the serialized form of a smart link
type SmartLinkResponse struct {
	ID            uint64                 `json:"id"`
	Label         string                 `json:"label"`
	DynamicLabel  string                 `json:"dynamic_label"`
	Enabled       bool                   `json:"enabled"`
	DocumentTypes []DocumentTypeResponse `json:"document_types"`
	ConditionsURL string                 `json:"conditions_url"`
	URL           string                 `json:"url"`
}

// SmartLinkConditionResponse is the serialized form of a condition
type SmartLinkConditionResponse struct {
	ID                  uint64 `json:"id"`
	Inclusion           string `json:"inclusion"`
	ForeignDocumentData string `json:"foreign_document_data"`
	Operator            string `json:"operator"`
	Expression          string `json:"expression"`
	Negated             bool   `json:"negated"`
	Enabled             bool   `json:"enabled"`
	SmartLinkURL        string `json:"smart_link_url"`
	URL                 string `json:"url"`
}

func smartLinkResponse(c *fiber.Ctx, link *models.SmartLink) SmartLinkResponse {
	docTypes := make([]DocumentTypeResponse, 0, len(link.DocumentTypes))
	for _, dt := range link.DocumentTypes {
		docTypes = append(docTypes, DocumentTypeResponse{ID: dt.ID, Label: dt.Label})
	}
	return SmartLinkResponse{
		ID:            link.ID,
		Label:         link.Label,
		DynamicLabel:  link.DynamicLabel,
		Enabled:       link.Enabled,
		DocumentTypes: docTypes,
		ConditionsURL: absoluteURL(c, "/api/smart_links/%d/conditions", link.ID),
		URL:           absoluteURL(c, "/api/smart_links/%d", link.ID),
	}
}

func conditionResponse(c *fiber.Ctx, condition *models.SmartLinkCondition) SmartLinkConditionResponse {
	return SmartLinkConditionResponse{
		ID:                  condition.ID,
		Inclusion:           condition.Inclusion,
		ForeignDocumentData: condition.ForeignDocumentData,
		Operator:            condition.Operator,
		Expression:          condition.Expression,
		Negated:             condition.Negated,
		Enabled:             condition.Enabled,
		SmartLinkURL:        absoluteURL(c, "/api/smart_links/%d", condition.SmartLinkID),
		URL:                 absoluteURL(c, "/api/smart_links/%d/conditions/%d", condition.SmartLinkID, condition.ID),
	}
}

// smartLinkPermission is the object permission each method requires on a
// smart link
func smartLinkPermission(method string) *permissions.Permission {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return services.PermissionSmartLinkView
	case fiber.MethodDelete:
		return services.PermissionSmartLinkDelete
	}
	return services.PermissionSmartLinkEdit
}

// conditionPermission is the permission condition routes require on the
// parent smart link: view to read, edit for everything else
func conditionPermission(method string) *permissions.Permission {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return services.PermissionSmartLinkView
	}
	return services.PermissionSmartLinkEdit
}

// smartLink loads the :pk smart link. Smart links the user cannot access
// with the method's permission are reported as missing.
func (h *LinkingHandler) smartLink(c *fiber.Ctx) (*models.SmartLink, error) {
	id, err := parseID(c, "pk")
	if err != nil {
		return nil, err
	}
	link, err := h.Linking.GetSmartLink(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	err = h.Checker.CheckAccess(c.UserContext(), currentUser(c), smartLinkPermission(c.Method()), link)
	if errors.Is(err, permissions.ErrPermissionDenied) {
		return nil, types.NewNotFound("Not found.", "not_found")
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// conditionParent loads the :pk smart link of the condition routes: missing
// smart links are 404, inaccessible ones 403.
func (h *LinkingHandler) conditionParent(c *fiber.Ctx) (*models.SmartLink, error) {
	id, err := parseID(c, "pk")
	if err != nil {
		return nil, err
	}
	link, err := h.Linking.GetSmartLink(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if err := h.Checker.CheckAccess(c.UserContext(), currentUser(c), conditionPermission(c.Method()), link); err != nil {
		return nil, err
	}
	return link, nil
}

// ListSmartLinks handles GET /api/smart_links
// @Summary List smart links
// @Description Returns the smart links the user may view
// @Tags Linking
// @Produce json
// @Success 200 {object} utils.ListResponseStruct[SmartLinkResponse]
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links [get]
func (h *LinkingHandler) ListSmartLinks(c *fiber.Ctx) error {
	links, err := h.Linking.ListSmartLinks(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	results := make([]SmartLinkResponse, 0, len(links))
	for i := range links {
		results = append(results, smartLinkResponse(c, &links[i]))
	}
	return utils.ListResponse(c, results)
}

// CreateSmartLink handles POST /api/smart_links
// @Summary Create a smart link
// @Tags Linking
// @Accept json
// @Produce json
// @Param body body services.SmartLinkInput true "Smart link"
// @Success 201 {object} SmartLinkResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links [post]
func (h *LinkingHandler) CreateSmartLink(c *fiber.Ctx) error {
	if err := h.Checker.CheckPermissions(c.UserContext(), currentUser(c), services.PermissionSmartLinkCreate); err != nil {
		return err
	}

	var input services.SmartLinkInput
	if err := bodyParser(c, &input); err != nil {
		return err
	}
	link, err := h.Linking.CreateSmartLink(c.UserContext(), input)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, smartLinkResponse(c, link), fiber.StatusCreated)
}

// GetSmartLink handles GET /api/smart_links/:pk
// @Summary Get a smart link
// @Tags Linking
// @Produce json
// @Param pk path int true "Smart link id"
// @Success 200 {object} SmartLinkResponse
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links/{pk} [get]
func (h *LinkingHandler) GetSmartLink(c *fiber.Ctx) error {
	link, err := h.smartLink(c)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, smartLinkResponse(c, link), fiber.StatusOK)
}

// UpdateSmartLink handles PUT and PATCH /api/smart_links/:pk
// @Summary Update a smart link
// @Description PUT replaces every writable field, PATCH only the fields present
// @Tags Linking
// @Accept json
// @Produce json
// @Param pk path int true "Smart link id"
// @Param body body services.SmartLinkInput true "Smart link"
// @Success 200 {object} SmartLinkResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links/{pk} [put]
// @Router /smart_links/{pk} [patch]
func (h *LinkingHandler) UpdateSmartLink(c *fiber.Ctx) error {
	link, err := h.smartLink(c)
	if err != nil {
		return err
	}

	var input services.SmartLinkInput
	if err := bodyParser(c, &input); err != nil {
		return err
	}
	if err := h.Linking.UpdateSmartLink(c.UserContext(), link, input, isPartial(c)); err != nil {
		return err
	}
	return utils.SuccessResponse(c, smartLinkResponse(c, link), fiber.StatusOK)
}

// DeleteSmartLink handles DELETE /api/smart_links/:pk
// @Summary Delete a smart link
// @Tags Linking
// @Param pk path int true "Smart link id"
// @Success 204
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links/{pk} [delete]
func (h *LinkingHandler) DeleteSmartLink(c *fiber.Ctx) error {
	link, err := h.smartLink(c)
	if err != nil {
		return err
	}
	if err := h.Linking.DeleteSmartLink(c.UserContext(), link); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListConditions handles GET /api/smart_links/:pk/conditions
// @Summary List the conditions of a smart link
// @Tags Linking
// @Produce json
// @Param pk path int true "Smart link id"
// @Success 200 {object} utils.ListResponseStruct[SmartLinkConditionResponse]
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links/{pk}/conditions [get]
func (h *LinkingHandler) ListConditions(c *fiber.Ctx) error {
	link, err := h.conditionParent(c)
	if err != nil {
		return err
	}
	conditions, err := h.Linking.ListConditions(c.UserContext(), link)
	if err != nil {
		return err
	}
	results := make([]SmartLinkConditionResponse, 0, len(conditions))
	for i := range conditions {
		results = append(results, conditionResponse(c, &conditions[i]))
	}
	return utils.ListResponse(c, results)
}

// CreateCondition handles POST /api/smart_links/:pk/conditions
// @Summary Add a condition to a smart link
// @Tags Linking
// @Accept json
// @Produce json
// @Param pk path int true "Smart link id"
// @Param body body services.SmartLinkConditionInput true "Condition"
// @Success 201 {object} SmartLinkConditionResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links/{pk}/conditions [post]
func (h *LinkingHandler) CreateCondition(c *fiber.Ctx) error {
	link, err := h.conditionParent(c)
	if err != nil {
		return err
	}

	var input services.SmartLinkConditionInput
	if err := bodyParser(c, &input); err != nil {
		return err
	}
	condition, err := h.Linking.CreateCondition(c.UserContext(), link, input)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, conditionResponse(c, condition), fiber.StatusCreated)
}

func (h *LinkingHandler) condition(c *fiber.Ctx) (*models.SmartLinkCondition, error) {
	link, err := h.conditionParent(c)
	if err != nil {
		return nil, err
	}
	id, err := parseID(c, "condition_pk")
	if err != nil {
		return nil, err
	}
	return h.Linking.GetCondition(c.UserContext(), link, id)
}

// GetCondition handles GET /api/smart_links/:pk/conditions/:condition_pk
// @Summary Get a smart link condition
// @Tags Linking
// @Produce json
// @Param pk path int true "Smart link id"
// @Param condition_pk path int true "Condition id"
// @Success 200 {object} SmartLinkConditionResponse
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links/{pk}/conditions/{condition_pk} [get]
func (h *LinkingHandler) GetCondition(c *fiber.Ctx) error {
	condition, err := h.condition(c)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, conditionResponse(c, condition), fiber.StatusOK)
}

// UpdateCondition handles PUT and PATCH /api/smart_links/:pk/conditions/:condition_pk
// @Summary Update a smart link condition
// @Tags Linking
// @Accept json
// @Produce json
// @Param pk path int true "Smart link id"
// @Param condition_pk path int true "Condition id"
// @Param body body services.SmartLinkConditionInput true "Condition"
// @Success 200 {object} SmartLinkConditionResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links/{pk}/conditions/{condition_pk} [put]
// @Router /smart_links/{pk}/conditions/{condition_pk} [patch]
func (h *LinkingHandler) UpdateCondition(c *fiber.Ctx) error {
	condition, err := h.condition(c)
	if err != nil {
		return err
	}

	var input services.SmartLinkConditionInput
	if err := bodyParser(c, &input); err != nil {
		return err
	}
	if err := h.Linking.UpdateCondition(c.UserContext(), condition, input, isPartial(c)); err != nil {
		return err
	}
	return utils.SuccessResponse(c, conditionResponse(c, condition), fiber.StatusOK)
}

// DeleteCondition handles DELETE /api/smart_links/:pk/conditions/:condition_pk
// @Summary Delete a smart link condition
// @Tags Linking
// @Param pk path int true "Smart link id"
// @Param condition_pk path int true "Condition id"
// @Success 204
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /smart_links/{pk}/conditions/{condition_pk} [delete]
func (h *LinkingHandler) DeleteCondition(c *fiber.Ctx) error {
	condition, err := h.condition(c)
	if err != nil {
		return err
	}
	if err := h.Linking.DeleteCondition(c.UserContext(), condition); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
