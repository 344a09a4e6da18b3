package errs

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors shared by the backend adapters, services and controllers.
// Wrap them with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrNotFound            = errors.New("not found")
	ErrAuthorization       = errors.New("not authorized")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrBackendUnavailable  = errors.New("backend unavailable")
	ErrAlreadyProcessed    = errors.New("already processed")
	ErrInvalidInput        = errors.New("invalid input")
)

// Status maps an error to the HTTP status the API answers with.
func Status(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConstraintViolation), errors.Is(err, ErrAlreadyProcessed):
		return fiber.StatusConflict
	case errors.Is(err, ErrBackendUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// IsClientError reports whether err is caused by the caller rather than the server.
func IsClientError(err error) bool {
	s := Status(err)
	return s >= 400 && s < 500
}
