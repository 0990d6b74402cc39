package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/docsdb/internal/config"
	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/types"
)

const (
	sessionCookie = "cookie_session"
	userKey       = "user"
)

// SessionValidator resolves a session cookie to the authenticated user
type SessionValidator func(c *fiber.Ctx, cookie string) (*permissions.User, error)

// AuthorizerSession validates sessions against the Authorizer service. The
// client is created on the first authenticated request.
func AuthorizerSession(cfg *config.Config) SessionValidator {
	return func(c *fiber.Ctx, cookie string) (*permissions.User, error) {
		if !services.IsAuthorizerInitialized() {
			if err := services.InitAuthorizer(cfg, c.Protocol(), c.Hostname()); err != nil {
				return nil, err
			}
		}
		return services.ValidateSession(cookie)
	}
}

// Authenticate requires a valid session and stores the user for handlers
func Authenticate(validate SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := c.Cookies(sessionCookie)
		if session == "" {
			return types.NewForbidden(fmt.Sprintf("Authorizer cookie %q not found", sessionCookie), "authorization.session")
		}

		user, err := validate(c, session)
		if err != nil {
			return types.NewForbidden(fmt.Sprintf("Invalid session: %v", err), "authorization.session")
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// AuthAdmin validates that the authenticated user holds the admin role
func AuthAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentUser(c).IsAdmin() {
			return types.NewForbidden("Admin role required", "authorization.admin")
		}
		return c.Next()
	}
}

// CurrentUser returns the user stored by Authenticate, or nil
func CurrentUser(c *fiber.Ctx) *permissions.User {
	user, _ := c.Locals(userKey).(*permissions.User)
	return user
}

// WithUser stores user for the request. Tests use it in place of a session.
func WithUser(user *permissions.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(userKey, user)
		return c.Next()
	}
}
