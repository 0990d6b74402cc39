package handlers

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/docsdb/internal/models"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/utils"
)

// ACLHandler manages role grants and access control entries. Its routes are
// restricted to admins.
type ACLHandler struct {
	Checker *permissions.Checker
}

// GrantInput grants a permission to a role
type GrantInput struct {
	Role       string `json:"role"`
	Permission string `json:"permission"`
}

// ACLInput is the complete access control list of an object
type ACLInput struct {
	Entries []GrantInput `json:"entries"`
}

type aclObject struct {
	contentType string
	id          uint64
}

func (o aclObject) ContentType() string { return o.contentType }
func (o aclObject) PrimaryKey() uint64  { return o.id }

func lookupPermission(verr *services.ValidationError, field, pk string) *permissions.Permission {
	perm, ok := permissions.Get(pk)
	if !ok {
		verr.Add(field, fmt.Sprintf("%q is not a valid permission.", pk))
		return nil
	}
	return perm
}

// GetACL handles GET /api/acls/:content_type/:object_id
// @Summary List the access control entries of an object
// @Tags Permissions
// @Produce json
// @Param content_type path string true "Content type, e.g. linking.smartlink"
// @Param object_id path int true "Object id"
// @Success 200 {object} utils.ListResponseStruct[models.AccessControlEntry]
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /acls/{content_type}/{object_id} [get]
func (h *ACLHandler) GetACL(c *fiber.Ctx) error {
	id, err := parseID(c, "object_id")
	if err != nil {
		return err
	}
	entries, err := h.Checker.EntriesFor(c.UserContext(), aclObject{contentType: c.Params("content_type"), id: id})
	if err != nil {
		return err
	}
	return utils.ListResponse(c, entries)
}

// PutACL handles PUT /api/acls/:content_type/:object_id
// @Summary Replace the access control entries of an object
// @Description Every permission must be registered for the content type or inherited through it
// @Tags Permissions
// @Accept json
// @Produce json
// @Param content_type path string true "Content type, e.g. linking.smartlink"
// @Param object_id path int true "Object id"
// @Param body body ACLInput true "Entries"
// @Success 200 {object} utils.ListResponseStruct[models.AccessControlEntry]
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /acls/{content_type}/{object_id} [put]
func (h *ACLHandler) PutACL(c *fiber.Ctx) error {
	id, err := parseID(c, "object_id")
	if err != nil {
		return err
	}
	obj := aclObject{contentType: c.Params("content_type"), id: id}

	var input ACLInput
	if err := bodyParser(c, &input); err != nil {
		return err
	}

	type grant struct {
		role string
		perm *permissions.Permission
	}
	verr := &services.ValidationError{}
	wanted := make([]grant, 0, len(input.Entries))
	keys := mapset.NewThreadUnsafeSet[string]()
	for _, entry := range input.Entries {
		role := strings.TrimSpace(entry.Role)
		if role == "" {
			verr.Add("entries", "role: This field is required.")
			continue
		}
		perm := lookupPermission(verr, "entries", entry.Permission)
		if perm == nil {
			continue
		}
		if !permissions.IsRegisteredFor(obj.contentType, perm) {
			verr.Add("entries", fmt.Sprintf("%q cannot be granted on %s.", perm.PK(), obj.contentType))
			continue
		}
		wanted = append(wanted, grant{role: role, perm: perm})
		keys.Add(role + "|" + perm.PK())
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	ctx := c.UserContext()
	existing, err := h.Checker.EntriesFor(ctx, obj)
	if err != nil {
		return err
	}
	for _, entry := range existing {
		if keys.Contains(entry.Role + "|" + entry.Permission) {
			continue
		}
		perm, ok := permissions.Get(entry.Permission)
		if !ok {
			perm = &permissions.Permission{}
			perm.Namespace, perm.Name, _ = strings.Cut(entry.Permission, ".")
		}
		if err := h.Checker.RevokeAccess(ctx, obj, entry.Role, perm); err != nil {
			return err
		}
	}
	for _, g := range wanted {
		if err := h.Checker.GrantAccess(ctx, obj, g.role, g.perm); err != nil {
			return err
		}
	}

	entries, err := h.Checker.EntriesFor(ctx, obj)
	if err != nil {
		return err
	}
	return utils.ListResponse(c, entries)
}

// CreateGrant handles POST /api/permissions/grants
// @Summary Grant a permission to a role
// @Tags Permissions
// @Accept json
// @Produce json
// @Param body body GrantInput true "Grant"
// @Success 201 {object} models.RolePermission
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /permissions/grants [post]
func (h *ACLHandler) CreateGrant(c *fiber.Ctx) error {
	role, perm, err := h.grantInput(c)
	if err != nil {
		return err
	}
	if err := h.Checker.Grant(c.UserContext(), role, perm); err != nil {
		return err
	}
	return utils.SuccessResponse(c, models.RolePermission{Role: role, Permission: perm.PK()}, fiber.StatusCreated)
}

// DeleteGrant handles DELETE /api/permissions/grants
// @Summary Revoke a permission from a role
// @Tags Permissions
// @Accept json
// @Param body body GrantInput true "Grant"
// @Success 204
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /permissions/grants [delete]
func (h *ACLHandler) DeleteGrant(c *fiber.Ctx) error {
	role, perm, err := h.grantInput(c)
	if err != nil {
		return err
	}
	if err := h.Checker.Revoke(c.UserContext(), role, perm); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPermissions handles GET /api/permissions
// @Summary List every registered permission
// @Tags Permissions
// @Produce json
// @Success 200 {object} utils.ListResponseStruct[permissions.Permission]
// @Security CookieAuth
// @Router /permissions [get]
func (h *ACLHandler) ListPermissions(c *fiber.Ctx) error {
	return utils.ListResponse(c, permissions.All())
}

func (h *ACLHandler) grantInput(c *fiber.Ctx) (string, *permissions.Permission, error) {
	var input GrantInput
	if err := bodyParser(c, &input); err != nil {
		return "", nil, err
	}

	verr := &services.ValidationError{}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		verr.Add("role", "This field is required.")
	}
	perm := lookupPermission(verr, "permission", input.Permission)
	if err := verr.OrNil(); err != nil {
		return "", nil, err
	}
	return role, perm, nil
}
