package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const replenishmentMaxRows = 500

// ReplenishmentSuggestion sugerencia de pedido para una clave en stock bajo.
type ReplenishmentSuggestion struct {
	Stock             *entity.Stock
	IdealStock        int64 // max(ReorderPoint × 1.5, SafetyStock, MinQty)
	SuggestedOrderQty int64 // IdealStock - disponible
	Priority          int   // 1 = más urgente
}

// ReplenishmentUseCase genera la lista de reposición a partir de la vista de stock bajo.
type ReplenishmentUseCase struct {
	stocks repository.StockRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(stocks repository.StockRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{stocks: stocks}
}

// GenerateReplenishmentList claves bajo umbral con cantidad sugerida, priorizadas por el faltante
// respecto al punto de reorden. warehouseID vacío = todas las bodegas.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, warehouseID string) ([]ReplenishmentSuggestion, error) {
	low, _, err := uc.stocks.List(ctx, repository.StockFilter{WarehouseID: warehouseID, LowOnly: true}, replenishmentMaxRows, 0)
	if err != nil {
		return nil, err
	}

	out := make([]ReplenishmentSuggestion, 0, len(low))
	for _, s := range low {
		ideal := idealStock(s)
		suggested := ideal - s.Available()
		if suggested <= 0 {
			continue
		}
		out = append(out, ReplenishmentSuggestion{Stock: s, IdealStock: ideal, SuggestedOrderQty: suggested})
	}

	sort.SliceStable(out, func(i, j int) bool {
		gi := out[i].Stock.ReorderPoint - out[i].Stock.QtyOnHand
		gj := out[j].Stock.ReorderPoint - out[j].Stock.QtyOnHand
		if gi != gj {
			return gi > gj
		}
		return out[i].SuggestedOrderQty > out[j].SuggestedOrderQty
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}

func idealStock(s *entity.Stock) int64 {
	ideal := (s.ReorderPoint*3 + 1) / 2
	if s.SafetyStock > ideal {
		ideal = s.SafetyStock
	}
	if s.MinQty > ideal {
		ideal = s.MinQty
	}
	return ideal
}
