package permissions

import (
	"context"
	stderrors "errors"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/localnerve/docsdb/internal/models"
)

// RoleAdmin bypasses every permission check
const RoleAdmin = "admin"

const maxInheritanceDepth = 4

// ErrPermissionDenied is returned when neither a role grant nor an access
// control entry allows the operation.
var ErrPermissionDenied = stderrors.New("permission denied")

// User is the authenticated principal
type User struct {
	ID    string   `json:"id"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && mapset.NewSet(u.Roles...).Contains(RoleAdmin)
}

// Object is anything access control entries can point at
type Object interface {
	ContentType() string
	PrimaryKey() uint64
}

// Checker evaluates permissions against the database
type Checker struct {
	DB *gorm.DB
}

// NewChecker creates a Checker
func NewChecker(db *gorm.DB) *Checker {
	return &Checker{DB: db}
}

func pks(perms []*Permission) []string {
	set := mapset.NewSet[string]()
	for _, p := range perms {
		set.Add(p.PK())
	}
	return set.ToSlice()
}

// CheckPermissions passes when the user is an admin or one of the user's
// roles was granted any of perms.
func (c *Checker) CheckPermissions(ctx context.Context, user *User, perms ...*Permission) error {
	if user == nil {
		return ErrPermissionDenied
	}
	if user.IsAdmin() {
		return nil
	}
	if len(user.Roles) == 0 || len(perms) == 0 {
		return ErrPermissionDenied
	}

	var count int64
	err := c.DB.WithContext(ctx).Model(&models.RolePermission{}).
		Where("role IN ? AND permission IN ?", user.Roles, pks(perms)).
		Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "check role permissions")
	}
	if count == 0 {
		return ErrPermissionDenied
	}
	return nil
}

// CheckAccess passes when CheckPermissions passes, or else when an access
// control entry grants perm on obj (or an object it inherits from) to one of
// the user's roles.
func (c *Checker) CheckAccess(ctx context.Context, user *User, perm *Permission, obj Object) error {
	err := c.CheckPermissions(ctx, user, perm)
	if err == nil || !stderrors.Is(err, ErrPermissionDenied) {
		return err
	}

	contentType, objectID := obj.ContentType(), obj.PrimaryKey()
	for depth := 0; depth <= maxInheritanceDepth; depth++ {
		granted, err := c.hasEntry(ctx, user, perm, contentType, objectID)
		if err != nil {
			return err
		}
		if granted {
			return nil
		}

		resolver, ok := inheritanceFor(contentType)
		if !ok {
			break
		}
		contentType, objectID, err = resolver(ctx, c.DB.WithContext(ctx), objectID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return errors.Wrap(err, "resolve acl inheritance")
		}
	}

	return ErrPermissionDenied
}

func (c *Checker) hasEntry(ctx context.Context, user *User, perm *Permission, contentType string, objectID uint64) (bool, error) {
	if len(user.Roles) == 0 {
		return false, nil
	}
	var count int64
	err := c.DB.WithContext(ctx).Model(&models.AccessControlEntry{}).
		Where("content_type = ? AND object_id = ? AND permission = ? AND role IN ?",
			contentType, objectID, perm.PK(), user.Roles).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "check access control entries")
	}
	return count > 0, nil
}

// FilterAccessible narrows query to the rows of contentType the user may
// access with perm. idColumn names the primary key column in query.
func (c *Checker) FilterAccessible(ctx context.Context, user *User, perm *Permission, contentType string, query *gorm.DB, idColumn string) (*gorm.DB, error) {
	err := c.CheckPermissions(ctx, user, perm)
	if err == nil {
		return query, nil
	}
	if !stderrors.Is(err, ErrPermissionDenied) {
		return nil, err
	}
	if user == nil || len(user.Roles) == 0 {
		return query.Where("1 = 0"), nil
	}

	sub := c.DB.WithContext(ctx).Model(&models.AccessControlEntry{}).
		Select("object_id").
		Where("content_type = ? AND permission = ? AND role IN ?", contentType, perm.PK(), user.Roles)
	return query.Where(idColumn+" IN (?)", sub), nil
}

// Grant gives a role a global permission
func (c *Checker) Grant(ctx context.Context, role string, perm *Permission) error {
	grant := models.RolePermission{Role: role, Permission: perm.PK()}
	err := c.DB.WithContext(ctx).
		Where(grant).
		FirstOrCreate(&grant).Error
	return errors.Wrap(err, "grant permission")
}

// Revoke removes a global permission from a role
func (c *Checker) Revoke(ctx context.Context, role string, perm *Permission) error {
	err := c.DB.WithContext(ctx).
		Where("role = ? AND permission = ?", role, perm.PK()).
		Delete(&models.RolePermission{}).Error
	return errors.Wrap(err, "revoke permission")
}

// GrantAccess adds an access control entry for obj
func (c *Checker) GrantAccess(ctx context.Context, obj Object, role string, perm *Permission) error {
	entry := models.AccessControlEntry{
		ContentType: obj.ContentType(),
		ObjectID:    obj.PrimaryKey(),
		Role:        role,
		Permission:  perm.PK(),
	}
	err := c.DB.WithContext(ctx).
		Where(entry).
		FirstOrCreate(&entry).Error
	return errors.Wrap(err, "grant access")
}

// RevokeAccess removes an access control entry for obj
func (c *Checker) RevokeAccess(ctx context.Context, obj Object, role string, perm *Permission) error {
	err := c.DB.WithContext(ctx).
		Where("content_type = ? AND object_id = ? AND role = ? AND permission = ?",
			obj.ContentType(), obj.PrimaryKey(), role, perm.PK()).
		Delete(&models.AccessControlEntry{}).Error
	return errors.Wrap(err, "revoke access")
}

// EntriesFor lists the access control entries of an object
func (c *Checker) EntriesFor(ctx context.Context, obj Object) ([]models.AccessControlEntry, error) {
	var entries []models.AccessControlEntry
	err := c.DB.WithContext(ctx).
		Where("content_type = ? AND object_id = ?", obj.ContentType(), obj.PrimaryKey()).
		Order("role, permission").
		Find(&entries).Error
	return entries, errors.Wrap(err, "list access control entries")
}
