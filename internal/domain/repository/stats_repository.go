package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StatsFilter filtro de agregados. WarehouseID coincide con origen o destino de una transferencia.
type StatsFilter struct {
	From        *time.Time
	To          *time.Time
	WarehouseID string
	ProductID   string
	Type        entity.MovementType
}

// StatsRepository consultas de solo lectura para reportes y conciliación.
type StatsRepository interface {
	AggregateMovements(ctx context.Context, filter StatsFilter) (*entity.MovementStats, error)
	StockSummary(ctx context.Context) (*entity.StockSummary, error)
	// Balances une saldo de stock y saldo reconstruido desde el diario por clave.
	Balances(ctx context.Context) ([]entity.KeyBalance, error)
}
