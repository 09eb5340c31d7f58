package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// MovementQuery filtro y página para listar el diario.
type MovementQuery struct {
	Filter repository.MovementFilter
	Page   PageParams
}

// MovementPage resultado paginado del diario.
type MovementPage struct {
	Items    []*entity.StockMovement
	Total    int
	Page     int
	PageSize int
}

// MovementJournal diario de movimientos confirmados. Append solo se invoca dentro de la
// transacción que aplicó la mutación del libro; las lecturas van fuera de transacción.
type MovementJournal struct {
	movements repository.StockMovementRepository
}

// NewMovementJournal construye el diario sobre el repositorio de lectura.
func NewMovementJournal(movements repository.StockMovementRepository) *MovementJournal {
	return &MovementJournal{movements: movements}
}

// Append asigna ID y CreatedAt (al microsegundo) y persiste el registro con el repositorio de la transacción.
func (j *MovementJournal) Append(ctx context.Context, movRepo repository.StockMovementRepository, m *entity.StockMovement, now time.Time) error {
	m.ID = uuid.NewString()
	m.CreatedAt = storedTime(now)
	m.OccurredAt = storedTime(m.OccurredAt)
	if err := movRepo.Create(ctx, m); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// Get devuelve un movimiento con los nombres de bodega y producto.
func (j *MovementJournal) Get(ctx context.Context, id string) (*entity.StockMovement, error) {
	m, err := j.movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List consulta el diario ordenado por OccurredAt desc.
func (j *MovementJournal) List(ctx context.Context, q MovementQuery) (*MovementPage, error) {
	page, err := q.Page.normalize()
	if err != nil {
		return nil, err
	}
	f := q.Filter
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, fmt.Errorf("%w: el inicio del rango es posterior al fin", domain.ErrInvalidInput)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, fmt.Errorf("%w: tipo de movimiento desconocido %q", domain.ErrInvalidInput, f.Type)
	}
	if f.RefType != "" && !f.RefType.Valid() {
		return nil, fmt.Errorf("%w: refType desconocido %q", domain.ErrInvalidInput, f.RefType)
	}
	f.Search = strings.TrimSpace(f.Search)

	limit, offset := page.limitOffset()
	items, total, err := j.movements.List(ctx, f, limit, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entity.StockMovement{}
	}
	return &MovementPage{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}
