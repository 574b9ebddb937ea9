package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/http/middleware"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates the service error taxonomy into HTTP responses.
// Unknown errors collapse into a plain 500 so internals never leak.
func writeServiceError(c *fiber.Ctx, err error) error {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", vErr.Error())
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "material not found")
	case errors.Is(err, service.ErrUserNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "user not found")
	case errors.Is(err, service.ErrAlreadyVoted):
		return writeError(c, fiber.StatusConflict, "ALREADY_VOTED", "you have already voted on this material")
	case errors.Is(err, service.ErrEmailTaken):
		return writeError(c, fiber.StatusConflict, "EMAIL_TAKEN", "email already registered")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "not allowed to modify this resource")
	case errors.Is(err, service.ErrUnauthenticated):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "invalid credentials")
	case errors.Is(err, service.ErrUnavailable):
		return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
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
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHENTICATED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
