package handler

import (
	"github.com/gofiber/fiber/v2"

	"comicapi/internal/http/middleware"
)

// errorPayload is the error body shared by every endpoint.
// Status is always "error"; Code is a machine-readable short error code.
type errorPayload struct {
	Status    string `json:"status" example:"error"`
	Code      string `json:"code" example:"TEXT_TOO_SHORT"`
	Message   string `json:"message" example:"Text must be at least 10 characters long."`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a standardized JSON error response.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "TEXT_TOO_SHORT", "NOT_CONFIGURED", "INTERNAL_ERROR")
// - message: human-readable message
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Status:    "error",
		Code:      code,
		Message:   message,
		RequestID: middleware.RequestIDFromCtx(c),
	})
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "BODY_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
