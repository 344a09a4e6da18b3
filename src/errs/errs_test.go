package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, fiber.StatusOK},
		{fmt.Errorf("bad email: %w", ErrInvalidInput), fiber.StatusBadRequest},
		{ErrNotAuthenticated, fiber.StatusUnauthorized},
		{fmt.Errorf("accept: %w", ErrAuthorization), fiber.StatusForbidden},
		{fmt.Errorf("invitation abc: %w", ErrNotFound), fiber.StatusNotFound},
		{ErrConstraintViolation, fiber.StatusConflict},
		{ErrAlreadyProcessed, fiber.StatusConflict},
		{fmt.Errorf("dial: %w", ErrBackendUnavailable), fiber.StatusServiceUnavailable},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), "error %v", tc.err)
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrNotFound))
	assert.False(t, IsClientError(ErrBackendUnavailable))
	assert.False(t, IsClientError(errors.New("boom")))
}
