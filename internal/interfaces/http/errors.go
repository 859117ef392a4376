package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
)

// statusByCode tabla código de dominio -> status HTTP. Lo que no aparece es 500.
var statusByCode = map[string]int{
	domain.CodeInvalidInput:       fiber.StatusBadRequest,
	domain.CodeInvalidItem:        fiber.StatusBadRequest,
	domain.CodeInvalidQuantity:    fiber.StatusBadRequest,
	domain.CodeInvalidCustomItem:  fiber.StatusBadRequest,
	domain.CodePaymentMismatch:    fiber.StatusBadRequest,
	domain.CodeInvalidPayment:     fiber.StatusBadRequest,
	domain.CodeNotFound:           fiber.StatusNotFound,
	domain.CodeUnauthorized:       fiber.StatusUnauthorized,
	domain.CodeForbidden:          fiber.StatusForbidden,
	domain.CodeInsufficientStock:  fiber.StatusConflict,
	domain.CodeInvalidState:       fiber.StatusConflict,
	domain.CodeApprovalRequired:   fiber.StatusConflict,
	domain.CodeDuplicate:          fiber.StatusConflict,
	domain.CodeContention:         fiber.StatusServiceUnavailable,
	domain.CodeInvariantViolation: fiber.StatusInternalServerError,
}

// HTTPStatus devuelve el status HTTP para un error de dominio.
func HTTPStatus(err error) int {
	if s, ok := statusByCode[domain.ErrorCode(err)]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// writeError responde con dto.ErrorResponse. Los 5xx no exponen el detalle interno.
func writeError(c *fiber.Ctx, err error) error {
	code := domain.ErrorCode(err)
	status := HTTPStatus(err)
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrContention):
		msg = "recurso ocupado, tente novamente"
	case status >= fiber.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Path()).Str("code", code).Msg("error interno")
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// FiberErrorHandler ErrorHandler de la app: errores de fiber conservan su status.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
	}
	return writeError(c, err)
}
