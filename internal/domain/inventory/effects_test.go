package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

func TestSourceDelta_PorTipo(t *testing.T) {
	cases := []struct {
		name string
		typ  entity.MovementType
		dir  entity.AdjustDirection
		want int64
	}{
		{"entrada suma", entity.MovementTypeIn, "", 5},
		{"devolución suma", entity.MovementTypeReturn, "", 5},
		{"salida resta", entity.MovementTypeOut, "", -5},
		{"merma resta", entity.MovementTypeLoss, "", -5},
		{"transferencia resta en origen", entity.MovementTypeTransfer, "", -5},
		{"ajuste sin dirección suma", entity.MovementTypeAdjust, "", 5},
		{"ajuste INCREASE suma", entity.MovementTypeAdjust, entity.DirectionIncrease, 5},
		{"ajuste DECREASE resta", entity.MovementTypeAdjust, entity.DirectionDecrease, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, inventory.SourceDelta(tc.typ, tc.dir, 5))
		})
	}
}

func TestEffects_TransferenciaConservaTotales(t *testing.T) {
	m := &entity.StockMovement{
		Type:          entity.MovementTypeTransfer,
		WarehouseID:   "A",
		WarehouseToID: "B",
		ProductID:     "P",
		Qty:           20,
	}
	effects := inventory.Effects(m)
	require.Len(t, effects, 2)
	assert.Equal(t, entity.StockKey{WarehouseID: "A", ProductID: "P"}, effects[0].Key)
	assert.Equal(t, int64(-20), effects[0].Delta)
	assert.Equal(t, entity.StockKey{WarehouseID: "B", ProductID: "P"}, effects[1].Key)
	assert.Equal(t, int64(20), effects[1].Delta)
	assert.Zero(t, effects[0].Delta+effects[1].Delta)
}

func TestMovementValue_CantidadPorCosto(t *testing.T) {
	cost := decimal.RequireFromString("2.50")
	assert.True(t, decimal.RequireFromString("10").Equal(inventory.MovementValue(&entity.StockMovement{Qty: 4, UnitCost: &cost})))
	assert.True(t, inventory.MovementValue(&entity.StockMovement{Qty: 4}).IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// StatsAccumulator
// ──────────────────────────────────────────────────────────────────────────────

func TestStatsAccumulator_Vacio(t *testing.T) {
	res := inventory.NewStatsAccumulator().Result()
	assert.Zero(t, res.TotalMovements)
	assert.True(t, res.TotalValue.IsZero())
	assert.NotNil(t, res.ByType)
	assert.Empty(t, res.ByType)
	assert.NotNil(t, res.ByWarehouse)
	assert.NotNil(t, res.ByProduct)
	assert.NotNil(t, res.ByDate)
}

func TestStatsAccumulator_ClasificaPorFlujo(t *testing.T) {
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cost := decimal.NewFromInt(3)
	acc := inventory.NewStatsAccumulator()
	acc.Add(&entity.StockMovement{Type: entity.MovementTypeIn, WarehouseID: "A", WarehouseName: "Central", ProductID: "P", ProductName: "Pan", Qty: 10, UnitCost: &cost, OccurredAt: day})
	acc.Add(&entity.StockMovement{Type: entity.MovementTypeOut, WarehouseID: "A", WarehouseName: "Central", ProductID: "P", ProductName: "Pan", Qty: 4, OccurredAt: day})
	acc.Add(&entity.StockMovement{Type: entity.MovementTypeTransfer, WarehouseID: "A", WarehouseName: "Central", WarehouseToID: "B", WarehouseToName: "Norte", ProductID: "P", ProductName: "Pan", Qty: 2, OccurredAt: day.AddDate(0, 0, 1)})
	acc.Add(&entity.StockMovement{Type: entity.MovementTypeAdjust, Direction: entity.DirectionDecrease, WarehouseID: "B", WarehouseName: "Norte", ProductID: "P", ProductName: "Pan", Qty: 1, OccurredAt: day.AddDate(0, 0, 1)})

	res := acc.Result()
	assert.Equal(t, int64(4), res.TotalMovements)
	assert.Equal(t, int64(1), res.InMovements)
	assert.Equal(t, int64(1), res.OutMovements)
	assert.Equal(t, int64(1), res.TransferMovements)
	assert.True(t, decimal.NewFromInt(30).Equal(res.TotalValue))

	require.Len(t, res.ByType, 4)
	assert.Equal(t, entity.MovementTypeIn, res.ByType[0].Type)

	require.Len(t, res.ByWarehouse, 2)
	central, norte := res.ByWarehouse[0], res.ByWarehouse[1]
	assert.Equal(t, "Central", central.WarehouseName)
	assert.Equal(t, int64(1), central.InCount)
	assert.Equal(t, int64(1), central.OutCount)
	assert.Equal(t, int64(1), central.TransferOutCount)
	assert.Equal(t, int64(1), norte.TransferInCount)
	assert.Equal(t, int64(1), norte.OutCount)

	require.Len(t, res.ByProduct, 1)
	assert.Equal(t, int64(10), res.ByProduct[0].TotalIn)
	assert.Equal(t, int64(5), res.ByProduct[0].TotalOut)
	assert.Equal(t, int64(2), res.ByProduct[0].TotalTransfer)

	require.Len(t, res.ByDate, 2)
	assert.Equal(t, "2026-03-01", res.ByDate[0].Date)
	assert.Equal(t, int64(1), res.ByDate[1].TransferCount)
}
