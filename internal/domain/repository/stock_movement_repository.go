package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementFilter criterios de consulta del diario. Campos vacíos no filtran.
// Search busca (sin distinguir mayúsculas) en nombre de bodega, bodega destino, producto, código de producto y motivo.
type MovementFilter struct {
	Type          entity.MovementType
	RefType       entity.RefType
	RefID         string
	WarehouseID   string
	WarehouseToID string
	ProductID     string
	CreatedBy     string
	From          *time.Time
	To            *time.Time
	Search        string
}

// StockMovementRepository define el puerto de persistencia del diario de movimientos.
// Listados ordenados por OccurredAt desc, CreatedAt desc, ID.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	UpdateReason(ctx context.Context, id, reason string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error)
	// CountByKey cuenta movimientos que tocan la clave como origen o destino.
	CountByKey(ctx context.Context, warehouseID, productID string) (int, error)
}
