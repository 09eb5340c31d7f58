package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementValue valoriza un movimiento: Qty × UnitCost. Sin costo unitario vale cero.
func MovementValue(m *entity.StockMovement) decimal.Decimal {
	if m.UnitCost == nil {
		return decimal.Zero
	}
	return m.UnitCost.Mul(decimal.NewFromInt(m.Qty))
}
