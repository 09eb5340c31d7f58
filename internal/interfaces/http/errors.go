package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/pkg/validation"
)

// writeError traduce errores de dominio a status HTTP con cuerpo {code, message, fields}.
func writeError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	body := dto.ErrorResponse{Code: code, Message: err.Error()}

	var fe *inventory.FieldError
	var verrs validation.Errors
	switch {
	case errors.As(err, &fe):
		body.Fields = fe.Fields
	case errors.As(err, &verrs):
		for _, v := range verrs {
			body.Fields = append(body.Fields, v.Field)
		}
	}
	if status == fiber.StatusInternalServerError {
		body.Message = "error interno"
	}
	return c.Status(status).JSON(body)
}

func classify(err error) (int, string) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInactiveEntity):
		return fiber.StatusUnprocessableEntity, "INACTIVE_ENTITY"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrValidationBatch):
		return fiber.StatusMultiStatus, "VALIDATION_BATCH"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
