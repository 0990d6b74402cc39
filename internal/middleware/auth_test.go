package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/types"
)

func newApp(validate SessionValidator, handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var custom *types.CustomError
			if errors.As(err, &custom) {
				return c.Status(custom.Code).SendString(custom.Type)
			}
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
	})
	chain := append([]fiber.Handler{Authenticate(validate)}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		return c.JSON(CurrentUser(c))
	})
	app.Get("/", chain...)
	return app
}

func stubValidator(user *permissions.User, err error) SessionValidator {
	return func(c *fiber.Ctx, cookie string) (*permissions.User, error) {
		if cookie != "valid" {
			return nil, errors.New("unknown session")
		}
		return user, err
	}
}

func TestAuthenticateRequiresCookie(t *testing.T) {
	app := newApp(stubValidator(&permissions.User{ID: "u1"}, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "cookie_session=bogus")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAuthenticateStoresUser(t *testing.T) {
	app := newApp(stubValidator(&permissions.User{ID: "u1", Roles: []string{"clerks"}}, nil))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "cookie_session=valid")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthAdmin(t *testing.T) {
	clerk := newApp(stubValidator(&permissions.User{ID: "u1", Roles: []string{"clerks"}}, nil), AuthAdmin())
	admin := newApp(stubValidator(&permissions.User{ID: "u2", Roles: []string{permissions.RoleAdmin}}, nil), AuthAdmin())

	for app, want := range map[*fiber.App]int{clerk: fiber.StatusForbidden, admin: fiber.StatusOK} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Cookie", "cookie_session=valid")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode)
	}
}
