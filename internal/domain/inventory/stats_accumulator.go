package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StatsAccumulator agrega movimientos en memoria con las mismas reglas que las consultas SQL de reportes:
//   - InMovements/OutMovements/TransferMovements cuentan por tipo IN, OUT y TRANSFER.
//   - Por bodega y producto se clasifica por flujo (FlowOf); una transferencia cuenta en origen y destino.
//   - La serie diaria usa OccurredAt en UTC.
type StatsAccumulator struct {
	total       entity.MovementStats
	byType      map[entity.MovementType]*entity.TypeStats
	byWarehouse map[string]*entity.WarehouseStats
	byProduct   map[string]*entity.ProductStats
	byDate      map[string]*entity.DateStats
}

// NewStatsAccumulator crea un acumulador vacío.
func NewStatsAccumulator() *StatsAccumulator {
	return &StatsAccumulator{
		total:       entity.MovementStats{TotalValue: decimal.Zero},
		byType:      make(map[entity.MovementType]*entity.TypeStats),
		byWarehouse: make(map[string]*entity.WarehouseStats),
		byProduct:   make(map[string]*entity.ProductStats),
		byDate:      make(map[string]*entity.DateStats),
	}
}

// Add incorpora un movimiento. Usa los nombres ya resueltos en el movimiento.
func (a *StatsAccumulator) Add(m *entity.StockMovement) {
	value := MovementValue(m)
	flow := FlowOf(m)

	a.total.TotalMovements++
	a.total.TotalValue = a.total.TotalValue.Add(value)
	switch m.Type {
	case entity.MovementTypeIn:
		a.total.InMovements++
	case entity.MovementTypeOut:
		a.total.OutMovements++
	case entity.MovementTypeTransfer:
		a.total.TransferMovements++
	}

	ts, ok := a.byType[m.Type]
	if !ok {
		ts = &entity.TypeStats{Type: m.Type, TotalValue: decimal.Zero}
		a.byType[m.Type] = ts
	}
	ts.Count++
	ts.TotalQty += m.Qty
	ts.TotalValue = ts.TotalValue.Add(value)

	src := a.warehouse(m.WarehouseID, m.WarehouseName)
	src.TotalValue = src.TotalValue.Add(value)
	switch flow {
	case FlowIn:
		src.InCount++
	case FlowOut:
		src.OutCount++
	case FlowTransfer:
		src.TransferOutCount++
		dst := a.warehouse(m.WarehouseToID, m.WarehouseToName)
		dst.TransferInCount++
		dst.TotalValue = dst.TotalValue.Add(value)
	}

	ps, ok := a.byProduct[m.ProductID]
	if !ok {
		ps = &entity.ProductStats{ProductID: m.ProductID, ProductName: m.ProductName, TotalValue: decimal.Zero}
		a.byProduct[m.ProductID] = ps
	}
	ps.TotalValue = ps.TotalValue.Add(value)

	day := m.OccurredAt.UTC().Format("2006-01-02")
	ds, ok := a.byDate[day]
	if !ok {
		ds = &entity.DateStats{Date: day, TotalValue: decimal.Zero}
		a.byDate[day] = ds
	}
	ds.TotalValue = ds.TotalValue.Add(value)

	switch flow {
	case FlowIn:
		ps.TotalIn += m.Qty
		ds.InCount++
	case FlowOut:
		ps.TotalOut += m.Qty
		ds.OutCount++
	case FlowTransfer:
		ps.TotalTransfer += m.Qty
		ds.TransferCount++
	}
}

func (a *StatsAccumulator) warehouse(id, name string) *entity.WarehouseStats {
	ws, ok := a.byWarehouse[id]
	if !ok {
		ws = &entity.WarehouseStats{WarehouseID: id, WarehouseName: name, TotalValue: decimal.Zero}
		a.byWarehouse[id] = ws
	}
	return ws
}

// Result devuelve los agregados con listas no nulas y orden estable:
// tipos en el orden de entity.MovementTypes, bodegas y productos por nombre e ID, fechas ascendentes.
func (a *StatsAccumulator) Result() *entity.MovementStats {
	out := a.total
	out.ByType = make([]entity.TypeStats, 0, len(a.byType))
	for _, t := range entity.MovementTypes {
		if ts, ok := a.byType[t]; ok {
			out.ByType = append(out.ByType, *ts)
		}
	}

	out.ByWarehouse = make([]entity.WarehouseStats, 0, len(a.byWarehouse))
	for _, ws := range a.byWarehouse {
		out.ByWarehouse = append(out.ByWarehouse, *ws)
	}
	sort.Slice(out.ByWarehouse, func(i, j int) bool {
		x, y := out.ByWarehouse[i], out.ByWarehouse[j]
		if x.WarehouseName != y.WarehouseName {
			return x.WarehouseName < y.WarehouseName
		}
		return x.WarehouseID < y.WarehouseID
	})

	out.ByProduct = make([]entity.ProductStats, 0, len(a.byProduct))
	for _, ps := range a.byProduct {
		out.ByProduct = append(out.ByProduct, *ps)
	}
	sort.Slice(out.ByProduct, func(i, j int) bool {
		x, y := out.ByProduct[i], out.ByProduct[j]
		if x.ProductName != y.ProductName {
			return x.ProductName < y.ProductName
		}
		return x.ProductID < y.ProductID
	})

	out.ByDate = make([]entity.DateStats, 0, len(a.byDate))
	for _, ds := range a.byDate {
		out.ByDate = append(out.ByDate, *ds)
	}
	sort.Slice(out.ByDate, func(i, j int) bool { return out.ByDate[i].Date < out.ByDate[j].Date })
	return &out
}
