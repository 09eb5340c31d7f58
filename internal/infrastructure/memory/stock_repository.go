package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository en memoria. Con t nil lee estado confirmado y
// cada escritura es su propia transacción.
type StockRepo struct {
	s *Store
	t *tx
}

func (r *StockRepo) view() *tx {
	if r.t != nil {
		return r.t
	}
	return newTx(r.s)
}

func (r *StockRepo) autocommit(ctx context.Context, fn func(tr *StockRepo) error) error {
	return r.s.Run(ctx, func(stockRepo repository.StockRepository, _ repository.StockMovementRepository) error {
		return fn(stockRepo.(*StockRepo))
	})
}

// GetByID obtiene un stock por ID.
func (r *StockRepo) GetByID(_ context.Context, id string) (*entity.Stock, error) {
	if st := r.view().stock(id); st != nil {
		return st, nil
	}
	return nil, fmt.Errorf("%w: stock %s", domain.ErrNotFound, id)
}

// Get obtiene el stock de la clave sin bloquear.
func (r *StockRepo) Get(_ context.Context, warehouseID, productID string) (*entity.Stock, error) {
	v := r.view()
	if id, ok := v.stockID(entity.StockKey{WarehouseID: warehouseID, ProductID: productID}); ok {
		if st := v.stock(id); st != nil {
			return st, nil
		}
	}
	return nil, fmt.Errorf("%w: stock %s/%s", domain.ErrNotFound, warehouseID, productID)
}

// GetForUpdate bloquea la clave hasta el fin de la transacción y devuelve su stock.
func (r *StockRepo) GetForUpdate(ctx context.Context, warehouseID, productID string) (*entity.Stock, error) {
	if r.t != nil {
		if err := r.t.lock(ctx, entity.StockKey{WarehouseID: warehouseID, ProductID: productID}); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, warehouseID, productID)
}

// GetOrCreateForUpdate bloquea la clave y crea la fila en cero si no existe.
func (r *StockRepo) GetOrCreateForUpdate(ctx context.Context, seed *entity.Stock) (*entity.Stock, bool, error) {
	if r.t == nil {
		var (
			out     *entity.Stock
			created bool
		)
		err := r.autocommit(ctx, func(tr *StockRepo) error {
			var err error
			out, created, err = tr.GetOrCreateForUpdate(ctx, seed)
			return err
		})
		return out, created, err
	}

	key := seed.Key()
	if err := r.t.lock(ctx, key); err != nil {
		return nil, false, err
	}
	if id, ok := r.t.stockID(key); ok {
		if st := r.t.stock(id); st != nil {
			return st, false, nil
		}
	}
	now := time.Now().UTC()
	st := &entity.Stock{
		ID:           uuid.NewString(),
		WarehouseID:  seed.WarehouseID,
		ProductID:    seed.ProductID,
		SafetyStock:  seed.SafetyStock,
		ReorderPoint: seed.ReorderPoint,
		MinQty:       seed.MinQty,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.t.putStock(st, true)
	return r.t.stock(st.ID), true, nil
}

// Create inserta la clave. domain.ErrConflict si ya existe.
func (r *StockRepo) Create(ctx context.Context, stock *entity.Stock) error {
	if r.t == nil {
		return r.autocommit(ctx, func(tr *StockRepo) error { return tr.Create(ctx, stock) })
	}
	if !stock.Consistent() || stock.QtyOnHand < 0 {
		return fmt.Errorf("%w: stock inconsistente", domain.ErrInsufficientStock)
	}
	key := stock.Key()
	if err := r.t.lock(ctx, key); err != nil {
		return err
	}
	if _, exists := r.t.stockID(key); exists {
		return fmt.Errorf("%w: ya existe stock para la bodega %s y producto %s", domain.ErrConflict, key.WarehouseID, key.ProductID)
	}
	if stock.ID == "" {
		stock.ID = uuid.NewString()
	}
	r.t.putStock(stock, true)
	return nil
}

// Update reemplaza la fila. Mantiene el invariante como respaldo del libro.
func (r *StockRepo) Update(ctx context.Context, stock *entity.Stock) error {
	if r.t == nil {
		return r.autocommit(ctx, func(tr *StockRepo) error { return tr.Update(ctx, stock) })
	}
	if !stock.Consistent() {
		return fmt.Errorf("%w: on hand %d, reservado %d", domain.ErrInsufficientStock, stock.QtyOnHand, stock.QtyReserved)
	}
	if r.t.stock(stock.ID) == nil {
		return fmt.Errorf("%w: stock %s", domain.ErrNotFound, stock.ID)
	}
	r.t.putStock(stock, false)
	return nil
}

// Delete elimina la fila.
func (r *StockRepo) Delete(ctx context.Context, id string) error {
	if r.t == nil {
		return r.autocommit(ctx, func(tr *StockRepo) error { return tr.Delete(ctx, id) })
	}
	if r.t.stock(id) == nil {
		return fmt.Errorf("%w: stock %s", domain.ErrNotFound, id)
	}
	r.t.deleteStock(id)
	return nil
}

// List filtra, ordena por bodega y producto (nombre) y pagina.
func (r *StockRepo) List(_ context.Context, f repository.StockFilter, limit, offset int) ([]*entity.Stock, int, error) {
	folder := cases.Fold()
	term := folder.String(strings.TrimSpace(f.Search))

	var matched []*entity.Stock
	for _, st := range r.view().stockSnapshot() {
		if f.WarehouseID != "" && st.WarehouseID != f.WarehouseID {
			continue
		}
		if f.ProductID != "" && st.ProductID != f.ProductID {
			continue
		}
		if f.LowOnly && !st.IsLow() {
			continue
		}
		if term != "" && !r.matches(st, term, folder) {
			continue
		}
		matched = append(matched, st)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.WarehouseName != b.WarehouseName {
			return a.WarehouseName < b.WarehouseName
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.ID < b.ID
	})
	return paginate(matched, limit, offset), len(matched), nil
}

func (r *StockRepo) matches(st *entity.Stock, term string, folder cases.Caser) bool {
	code := ""
	r.s.mu.RLock()
	if p, ok := r.s.products[st.ProductID]; ok {
		code = p.Code
	}
	r.s.mu.RUnlock()
	for _, field := range []string{st.WarehouseName, st.ProductName, code} {
		if strings.Contains(folder.String(field), term) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
