package http

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

func TestHTTPStatus_TablaDeErrores(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidItem, fiber.StatusBadRequest},
		{fmt.Errorf("%w: pago", domain.ErrPaymentMismatch), fiber.StatusBadRequest},
		{domain.ErrNotFound, fiber.StatusNotFound},
		{domain.ErrForbidden, fiber.StatusForbidden},
		{domain.ErrUnauthorized, fiber.StatusUnauthorized},
		{fmt.Errorf("%w: producto X", domain.ErrInsufficientStock), fiber.StatusConflict},
		{domain.ErrApprovalRequired, fiber.StatusConflict},
		{domain.ErrInvalidState, fiber.StatusConflict},
		{domain.ErrDuplicate, fiber.StatusConflict},
		{domain.ErrContention, fiber.StatusServiceUnavailable},
		{domain.ErrInvariantViolation, fiber.StatusInternalServerError},
		{errors.New("cualquier cosa"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestParseDateParam(t *testing.T) {
	v, err := parseDateParam("", true)
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = parseDateParam("2026-03-31", true)
	assert.NoError(t, err)
	assert.Equal(t, "2026-04-01", v.Format("2006-01-02"))

	v, err = parseDateParam("2026-03-31T10:00:00Z", true)
	assert.NoError(t, err)
	assert.Equal(t, 10, v.Hour())

	_, err = parseDateParam("31/03/2026", false)
	assert.Error(t, err)
}
