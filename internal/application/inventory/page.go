package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// Límites de paginación.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageParams página solicitada, base 1. Ceros toman los valores por defecto.
type PageParams struct {
	Page     int
	PageSize int
}

func (p PageParams) normalize() (PageParams, error) {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.Page < 1 {
		return p, fmt.Errorf("%w: page debe ser >= 1", domain.ErrInvalidInput)
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return p, fmt.Errorf("%w: pageSize debe estar entre 1 y %d", domain.ErrInvalidInput, MaxPageSize)
	}
	return p, nil
}

func (p PageParams) limitOffset() (int, int) {
	return p.PageSize, (p.Page - 1) * p.PageSize
}
