package types

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// CustomError is an error carrying the HTTP status and a dotted error type
// that the error handler renders into the standard error envelope.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// NewForbidden returns a 403 CustomError.
func NewForbidden(message, errorType string) *CustomError {
	return &CustomError{Code: fiber.StatusForbidden, Message: message, Type: errorType}
}

// NewNotFound returns a 404 CustomError.
func NewNotFound(message, errorType string) *CustomError {
	return &CustomError{Code: fiber.StatusNotFound, Message: message, Type: errorType}
}

// NewBadRequest returns a 400 CustomError.
func NewBadRequest(message, errorType string) *CustomError {
	return &CustomError{Code: fiber.StatusBadRequest, Message: message, Type: errorType}
}
