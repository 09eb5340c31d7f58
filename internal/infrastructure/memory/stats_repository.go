package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo reportes sobre el estado confirmado.
type StatsRepo struct{ s *Store }

// AggregateMovements agrega con inventory.StatsAccumulator, las mismas reglas que el SQL de reportes.
func (r *StatsRepo) AggregateMovements(_ context.Context, f repository.StatsFilter) (*entity.MovementStats, error) {
	acc := inventory.NewStatsAccumulator()
	for _, m := range newTx(r.s).movementSnapshot() {
		if !matchStats(m, f) {
			continue
		}
		acc.Add(m)
	}
	return acc.Result(), nil
}

func matchStats(m *entity.StockMovement, f repository.StatsFilter) bool {
	switch {
	case f.Type != "" && m.Type != f.Type:
		return false
	case f.ProductID != "" && m.ProductID != f.ProductID:
		return false
	case f.WarehouseID != "" && m.WarehouseID != f.WarehouseID && m.WarehouseToID != f.WarehouseID:
		return false
	case f.From != nil && m.OccurredAt.Before(*f.From):
		return false
	case f.To != nil && m.OccurredAt.After(*f.To):
		return false
	}
	return true
}

// StockSummary totales de saldo por bodega y producto.
func (r *StatsRepo) StockSummary(_ context.Context) (*entity.StockSummary, error) {
	out := &entity.StockSummary{
		ByWarehouse: []entity.WarehouseStockSummary{},
		ByProduct:   []entity.ProductStockSummary{},
	}
	byWh := map[string]*entity.WarehouseStockSummary{}
	byProd := map[string]*entity.ProductStockSummary{}
	lowProducts := map[string]struct{}{}

	for _, st := range newTx(r.s).stockSnapshot() {
		out.TotalStock += st.QtyOnHand
		out.TotalReserved += st.QtyReserved
		if st.IsLow() {
			lowProducts[st.ProductID] = struct{}{}
		}
		w, ok := byWh[st.WarehouseID]
		if !ok {
			w = &entity.WarehouseStockSummary{WarehouseID: st.WarehouseID, WarehouseName: st.WarehouseName}
			byWh[st.WarehouseID] = w
		}
		w.ProductCount++
		w.QtyOnHand += st.QtyOnHand
		w.QtyReserved += st.QtyReserved

		p, ok := byProd[st.ProductID]
		if !ok {
			p = &entity.ProductStockSummary{ProductID: st.ProductID, ProductName: st.ProductName}
			byProd[st.ProductID] = p
		}
		p.WarehouseCount++
		p.QtyOnHand += st.QtyOnHand
		p.QtyReserved += st.QtyReserved
	}

	for _, w := range byWh {
		out.ByWarehouse = append(out.ByWarehouse, *w)
	}
	for _, p := range byProd {
		out.ByProduct = append(out.ByProduct, *p)
	}
	sort.Slice(out.ByWarehouse, func(i, j int) bool {
		a, b := out.ByWarehouse[i], out.ByWarehouse[j]
		if a.WarehouseName != b.WarehouseName {
			return a.WarehouseName < b.WarehouseName
		}
		return a.WarehouseID < b.WarehouseID
	})
	sort.Slice(out.ByProduct, func(i, j int) bool {
		a, b := out.ByProduct[i], out.ByProduct[j]
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.ProductID < b.ProductID
	})
	out.TotalProducts = int64(len(byProd))
	out.WarehouseCount = int64(len(byWh))
	out.LowStockProducts = int64(len(lowProducts))
	return out, nil
}

// Balances saldo de stock frente al saldo reconstruido desde el diario.
func (r *StatsRepo) Balances(_ context.Context) ([]entity.KeyBalance, error) {
	view := newTx(r.s)
	journal := map[entity.StockKey]int64{}
	for _, m := range view.movementSnapshot() {
		for _, e := range inventory.Effects(m) {
			journal[e.Key] += e.Delta
		}
	}

	var out []entity.KeyBalance
	seen := map[entity.StockKey]struct{}{}
	for _, st := range view.stockSnapshot() {
		k := st.Key()
		onHand := st.QtyOnHand
		out = append(out, entity.KeyBalance{
			WarehouseID:   k.WarehouseID,
			ProductID:     k.ProductID,
			StockOnHand:   &onHand,
			JournalOnHand: journal[k],
		})
		seen[k] = struct{}{}
	}
	for k, qty := range journal {
		if _, ok := seen[k]; ok {
			continue
		}
		out = append(out, entity.KeyBalance{WarehouseID: k.WarehouseID, ProductID: k.ProductID, JournalOnHand: qty})
	}
	return out, nil
}
