package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// ListResponse sends a list with its item count
func ListResponse[T any](c *fiber.Ctx, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.Status(fiber.StatusOK).JSON(ListResponseStruct[T]{Count: len(items), Results: items})
}

// ErrorResponse sends the standard error envelope
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(ErrorResponseStruct{
		Status:    status,
		Message:   message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      errorType,
	})
}

// ValidationErrorResponse sends a 400 carrying the messages of each invalid
// field
func ValidationErrorResponse(c *fiber.Ctx, fields map[string][]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponseStruct{
		Status:    fiber.StatusBadRequest,
		Message:   "Invalid input.",
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      "validation",
		Errors:    fields,
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, "not_found")
}

// AcceptedResponse acknowledges work handed to the task queue
func AcceptedResponse(c *fiber.Ctx, message string, submitted, denied int) error {
	return c.Status(fiber.StatusAccepted).JSON(AcceptedResponseStruct{
		Message:   message,
		Ok:        true,
		Submitted: submitted,
		Denied:    denied,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int                 `json:"status"`
	Message   string              `json:"message"`
	Ok        bool                `json:"ok"`
	Timestamp string              `json:"timestamp"`
	URL       string              `json:"url"`
	Type      string              `json:"type,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

// ListResponseStruct defines the schema for list responses
type ListResponseStruct[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// AcceptedResponseStruct defines the schema for task submission responses
type AcceptedResponseStruct struct {
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Submitted int    `json:"submitted"`
	Denied    int    `json:"denied"`
	Timestamp string `json:"timestamp"`
}
