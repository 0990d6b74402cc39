package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/localnerve/docsdb/internal/permissions"
	"github.com/localnerve/docsdb/internal/services"
	"github.com/localnerve/docsdb/internal/types"
	"github.com/localnerve/docsdb/internal/utils"
)

// ErrorHandler renders handler errors into the standard error envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		custom     *types.CustomError
		validation *services.ValidationError
		fiberErr   *fiber.Error
	)

	switch {
	case errors.As(err, &custom):
		return utils.ErrorResponse(c, custom.Message, custom.Code, custom.Type)
	case errors.As(err, &validation):
		return utils.ValidationErrorResponse(c, validation.Fields)
	case errors.Is(err, permissions.ErrPermissionDenied):
		return utils.ErrorResponse(c, "You do not have permission to perform this action.", fiber.StatusForbidden, "permission_denied")
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.As(err, &fiberErr):
		return utils.ErrorResponse(c, fiberErr.Message, fiberErr.Code, "http")
	}

	logrus.WithFields(logrus.Fields{
		"method": c.Method(),
		"url":    c.OriginalURL(),
	}).WithError(err).Error("request failed")
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "unknown")
}

// NotFoundHandler answers requests no route matched
func NotFoundHandler(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}
