package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación de StockMovementRepository en memoria.
type MovementRepo struct {
	s *Store
	t *tx
}

func (r *MovementRepo) view() *tx {
	if r.t != nil {
		return r.t
	}
	return newTx(r.s)
}

func (r *MovementRepo) autocommit(ctx context.Context, fn func(tr *MovementRepo) error) error {
	return r.s.Run(ctx, func(_ repository.StockRepository, movRepo repository.StockMovementRepository) error {
		return fn(movRepo.(*MovementRepo))
	})
}

// Create agrega el movimiento al diario.
func (r *MovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if r.t == nil {
		return r.autocommit(ctx, func(tr *MovementRepo) error { return tr.Create(ctx, m) })
	}
	if m.ID == "" {
		return fmt.Errorf("%w: movimiento sin ID", domain.ErrInvalidInput)
	}
	if r.t.movement(m.ID) != nil {
		return fmt.Errorf("%w: movimiento %s ya existe", domain.ErrConflict, m.ID)
	}
	r.t.putMovement(m)
	return nil
}

// GetByID obtiene un movimiento con nombres.
func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	if m := r.view().movement(id); m != nil {
		return m, nil
	}
	return nil, fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
}

// UpdateReason modifica solo el motivo.
func (r *MovementRepo) UpdateReason(ctx context.Context, id, reason string) error {
	if r.t == nil {
		return r.autocommit(ctx, func(tr *MovementRepo) error { return tr.UpdateReason(ctx, id, reason) })
	}
	m := r.t.movement(id)
	if m == nil {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
	}
	m.Reason = reason
	r.t.putMovement(m)
	return nil
}

// Delete elimina el movimiento.
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	if r.t == nil {
		return r.autocommit(ctx, func(tr *MovementRepo) error { return tr.Delete(ctx, id) })
	}
	if r.t.movement(id) == nil {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
	}
	r.t.deleteMovement(id)
	return nil
}

// List filtra, ordena por OccurredAt desc, CreatedAt desc, ID y pagina.
func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	folder := cases.Fold()
	term := folder.String(strings.TrimSpace(f.Search))

	var matched []*entity.StockMovement
	for _, m := range r.view().movementSnapshot() {
		if matchMovement(m, f) && (term == "" || searchMovement(m, term, folder)) {
			matched = append(matched, m)
		}
	}
	sortMovements(matched)
	return paginate(matched, limit, offset), len(matched), nil
}

// CountByKey movimientos que tocan la clave como origen o destino.
func (r *MovementRepo) CountByKey(_ context.Context, warehouseID, productID string) (int, error) {
	n := 0
	for _, m := range r.view().movementSnapshot() {
		if m.ProductID != productID {
			continue
		}
		if m.WarehouseID == warehouseID || m.WarehouseToID == warehouseID {
			n++
		}
	}
	return n, nil
}

func matchMovement(m *entity.StockMovement, f repository.MovementFilter) bool {
	switch {
	case f.Type != "" && m.Type != f.Type:
		return false
	case f.RefType != "" && m.RefType != f.RefType:
		return false
	case f.RefID != "" && m.RefID != f.RefID:
		return false
	case f.WarehouseID != "" && m.WarehouseID != f.WarehouseID:
		return false
	case f.WarehouseToID != "" && m.WarehouseToID != f.WarehouseToID:
		return false
	case f.ProductID != "" && m.ProductID != f.ProductID:
		return false
	case f.CreatedBy != "" && m.CreatedBy != f.CreatedBy:
		return false
	case f.From != nil && m.OccurredAt.Before(*f.From):
		return false
	case f.To != nil && m.OccurredAt.After(*f.To):
		return false
	}
	return true
}

func searchMovement(m *entity.StockMovement, term string, folder cases.Caser) bool {
	for _, field := range []string{m.WarehouseName, m.WarehouseToName, m.ProductName, m.ProductCode, m.Reason} {
		if strings.Contains(folder.String(field), term) {
			return true
		}
	}
	return false
}

func sortMovements(ms []*entity.StockMovement) {
	sort.Slice(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.After(b.OccurredAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
