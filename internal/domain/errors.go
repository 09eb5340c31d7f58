package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Se envuelven con contexto mediante fmt.Errorf("%w: ...") y se clasifican con errors.Is.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInactiveEntity    = errors.New("recurso inactivo")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrValidationBatch   = errors.New("el lote contiene filas inválidas")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
)
