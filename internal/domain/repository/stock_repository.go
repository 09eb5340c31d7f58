package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockFilter criterios de listado de stock. Search busca en nombre de bodega y producto y código de producto.
type StockFilter struct {
	WarehouseID string
	ProductID   string
	Search      string
	LowOnly     bool // QtyOnHand <= SafetyStock OR QtyOnHand <= ReorderPoint
}

// StockRepository define el puerto de persistencia del saldo por bodega+producto.
// Los métodos *ForUpdate solo tienen sentido dentro de una transacción: bloquean la clave hasta commit/rollback.
type StockRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Stock, error)
	Get(ctx context.Context, warehouseID, productID string) (*entity.Stock, error)
	GetForUpdate(ctx context.Context, warehouseID, productID string) (*entity.Stock, error)
	// GetOrCreateForUpdate bloquea la clave de seed y la crea en cero (con los umbrales de seed) si no existe.
	GetOrCreateForUpdate(ctx context.Context, seed *entity.Stock) (stock *entity.Stock, created bool, err error)
	// Create devuelve domain.ErrConflict si la clave ya existe.
	Create(ctx context.Context, stock *entity.Stock) error
	Update(ctx context.Context, stock *entity.Stock) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter StockFilter, limit, offset int) ([]*entity.Stock, int, error)
}
