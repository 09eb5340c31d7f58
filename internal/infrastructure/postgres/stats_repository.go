package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// filteredMovements CTE "f" con los movimientos del filtro, su flujo (I, O, T) y su valor.
// El flujo sigue las mismas reglas que inventory.FlowOf.
const filteredMovements = `
WITH f AS (
	SELECT m.id, m.type, m.warehouse_id, m.warehouse_to_id, m.product_id, m.qty, m.occurred_at,
		CASE
			WHEN m.type = 'TRANSFER' THEN 'T'
			WHEN m.type IN ('IN', 'RETURN') THEN 'I'
			WHEN m.type = 'ADJUST' AND COALESCE(m.direction, 'INCREASE') = 'INCREASE' THEN 'I'
			ELSE 'O'
		END AS flow,
		COALESCE(m.qty * m.unit_cost, 0) AS value
	FROM stock_movements m`

const byTypeSQL = `)
SELECT f.type, COUNT(*), COALESCE(SUM(f.qty), 0)::bigint, COALESCE(SUM(f.value), 0)
FROM f GROUP BY f.type`

// Una transferencia aporta una pierna de salida en origen y una de entrada en destino.
const byWarehouseSQL = `),
legs AS (
	SELECT f.warehouse_id AS wh, f.flow, 'src' AS side, f.value FROM f
	UNION ALL
	SELECT f.warehouse_to_id, f.flow, 'dst', f.value FROM f WHERE f.flow = 'T'
)
SELECT l.wh::text, w.name,
	COUNT(*) FILTER (WHERE l.side = 'src' AND l.flow = 'I'),
	COUNT(*) FILTER (WHERE l.side = 'src' AND l.flow = 'O'),
	COUNT(*) FILTER (WHERE l.side = 'dst'),
	COUNT(*) FILTER (WHERE l.side = 'src' AND l.flow = 'T'),
	COALESCE(SUM(l.value), 0)
FROM legs l JOIN warehouses w ON w.id = l.wh
GROUP BY l.wh, w.name
ORDER BY w.name, l.wh`

const byProductSQL = `)
SELECT f.product_id::text, p.name,
	COALESCE(SUM(f.qty) FILTER (WHERE f.flow = 'I'), 0)::bigint,
	COALESCE(SUM(f.qty) FILTER (WHERE f.flow = 'O'), 0)::bigint,
	COALESCE(SUM(f.qty) FILTER (WHERE f.flow = 'T'), 0)::bigint,
	COALESCE(SUM(f.value), 0)
FROM f JOIN products p ON p.id = f.product_id
GROUP BY f.product_id, p.name
ORDER BY p.name, f.product_id`

const byDateSQL = `)
SELECT to_char(f.occurred_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
	COUNT(*) FILTER (WHERE f.flow = 'I'),
	COUNT(*) FILTER (WHERE f.flow = 'O'),
	COUNT(*) FILTER (WHERE f.flow = 'T'),
	COALESCE(SUM(f.value), 0)
FROM f GROUP BY day ORDER BY day`

// StatsRepo consultas de solo lectura para reportes y conciliación.
type StatsRepo struct {
	q Querier
}

// NewStatsRepository construye el adaptador de reportes.
func NewStatsRepository(q Querier) *StatsRepo {
	return &StatsRepo{q: q}
}

func statsWhere(f repository.StatsFilter) *sqlBuilder {
	b := newSQLBuilder()
	if f.From != nil {
		b.where("m.occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		b.where("m.occurred_at <= ?", *f.To)
	}
	if f.WarehouseID != "" {
		b.where("(m.warehouse_id = ? OR m.warehouse_to_id = ?)", f.WarehouseID, f.WarehouseID)
	}
	if f.ProductID != "" {
		b.where("m.product_id = ?", f.ProductID)
	}
	if f.Type != "" {
		b.where("m.type = ?", f.Type)
	}
	return b
}

// snapshotBeginner lo cumplen *pgxpool.Pool y *pgx.Conn.
type snapshotBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

var _ snapshotBeginner = (*pgxpool.Pool)(nil)

var statsTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// AggregateMovements agregados del diario: totales, por tipo, bodega, producto y día.
// Las cuatro consultas leen la misma instantánea cuando el Querier abre transacciones.
func (r *StatsRepo) AggregateMovements(ctx context.Context, f repository.StatsFilter) (*entity.MovementStats, error) {
	beginner, ok := r.q.(snapshotBeginner)
	if !ok {
		return r.aggregateAll(ctx, f)
	}

	tx, err := beginner.BeginTx(ctx, statsTxOptions)
	if err != nil {
		return nil, mapError("stats begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out, err := (&StatsRepo{q: tx}).aggregateAll(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapError("stats commit", err)
	}
	return out, nil
}

func (r *StatsRepo) aggregateAll(ctx context.Context, f repository.StatsFilter) (*entity.MovementStats, error) {
	b := statsWhere(f)
	out := &entity.MovementStats{
		TotalValue:  decimal.Zero,
		ByType:      []entity.TypeStats{},
		ByWarehouse: []entity.WarehouseStats{},
		ByProduct:   []entity.ProductStats{},
		ByDate:      []entity.DateStats{},
	}

	if err := r.aggregateByType(ctx, b, out); err != nil {
		return nil, err
	}
	if err := r.aggregateByWarehouse(ctx, b, out); err != nil {
		return nil, err
	}
	if err := r.aggregateByProduct(ctx, b, out); err != nil {
		return nil, err
	}
	if err := r.aggregateByDate(ctx, b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *StatsRepo) aggregateByType(ctx context.Context, b *sqlBuilder, out *entity.MovementStats) error {
	sql, args := b.build(filteredMovements, byTypeSQL)
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return mapError("stats by type", err)
	}
	defer rows.Close()
	byType := map[entity.MovementType]entity.TypeStats{}
	for rows.Next() {
		var ts entity.TypeStats
		if err := rows.Scan(&ts.Type, &ts.Count, &ts.TotalQty, &ts.TotalValue); err != nil {
			return fmt.Errorf("scan stats by type: %w", err)
		}
		byType[ts.Type] = ts
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("stats by type: %w", err)
	}

	for _, t := range entity.MovementTypes {
		ts, ok := byType[t]
		if !ok {
			continue
		}
		out.ByType = append(out.ByType, ts)
		out.TotalMovements += ts.Count
		out.TotalValue = out.TotalValue.Add(ts.TotalValue)
		switch t {
		case entity.MovementTypeIn:
			out.InMovements = ts.Count
		case entity.MovementTypeOut:
			out.OutMovements = ts.Count
		case entity.MovementTypeTransfer:
			out.TransferMovements = ts.Count
		}
	}
	return nil
}

func (r *StatsRepo) aggregateByWarehouse(ctx context.Context, b *sqlBuilder, out *entity.MovementStats) error {
	sql, args := b.build(filteredMovements, byWarehouseSQL)
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return mapError("stats by warehouse", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ws entity.WarehouseStats
		if err := rows.Scan(&ws.WarehouseID, &ws.WarehouseName, &ws.InCount, &ws.OutCount,
			&ws.TransferInCount, &ws.TransferOutCount, &ws.TotalValue); err != nil {
			return fmt.Errorf("scan stats by warehouse: %w", err)
		}
		out.ByWarehouse = append(out.ByWarehouse, ws)
	}
	return rows.Err()
}

func (r *StatsRepo) aggregateByProduct(ctx context.Context, b *sqlBuilder, out *entity.MovementStats) error {
	sql, args := b.build(filteredMovements, byProductSQL)
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return mapError("stats by product", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ps entity.ProductStats
		if err := rows.Scan(&ps.ProductID, &ps.ProductName, &ps.TotalIn, &ps.TotalOut,
			&ps.TotalTransfer, &ps.TotalValue); err != nil {
			return fmt.Errorf("scan stats by product: %w", err)
		}
		out.ByProduct = append(out.ByProduct, ps)
	}
	return rows.Err()
}

func (r *StatsRepo) aggregateByDate(ctx context.Context, b *sqlBuilder, out *entity.MovementStats) error {
	sql, args := b.build(filteredMovements, byDateSQL)
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return mapError("stats by date", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ds entity.DateStats
		if err := rows.Scan(&ds.Date, &ds.InCount, &ds.OutCount, &ds.TransferCount, &ds.TotalValue); err != nil {
			return fmt.Errorf("scan stats by date: %w", err)
		}
		out.ByDate = append(out.ByDate, ds)
	}
	return rows.Err()
}

// StockSummary totales de saldo por bodega y producto.
func (r *StatsRepo) StockSummary(ctx context.Context) (*entity.StockSummary, error) {
	out := &entity.StockSummary{
		ByWarehouse: []entity.WarehouseStockSummary{},
		ByProduct:   []entity.ProductStockSummary{},
	}
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(DISTINCT product_id),
			COALESCE(SUM(qty_on_hand), 0)::bigint,
			COALESCE(SUM(qty_reserved), 0)::bigint,
			COUNT(DISTINCT product_id) FILTER (WHERE qty_on_hand <= safety_stock OR qty_on_hand <= reorder_point),
			COUNT(DISTINCT warehouse_id)
		FROM stock`,
	).Scan(&out.TotalProducts, &out.TotalStock, &out.TotalReserved, &out.LowStockProducts, &out.WarehouseCount)
	if err != nil {
		return nil, mapError("stock summary", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT s.warehouse_id::text, w.name, COUNT(*), SUM(s.qty_on_hand)::bigint, SUM(s.qty_reserved)::bigint
		FROM stock s JOIN warehouses w ON w.id = s.warehouse_id
		GROUP BY s.warehouse_id, w.name
		ORDER BY w.name, s.warehouse_id`)
	if err != nil {
		return nil, mapError("stock summary by warehouse", err)
	}
	for rows.Next() {
		var ws entity.WarehouseStockSummary
		if err := rows.Scan(&ws.WarehouseID, &ws.WarehouseName, &ws.ProductCount, &ws.QtyOnHand, &ws.QtyReserved); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stock summary: %w", err)
		}
		out.ByWarehouse = append(out.ByWarehouse, ws)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stock summary by warehouse: %w", err)
	}

	rows, err = r.q.Query(ctx, `
		SELECT s.product_id::text, p.name, COUNT(*), SUM(s.qty_on_hand)::bigint, SUM(s.qty_reserved)::bigint
		FROM stock s JOIN products p ON p.id = s.product_id
		GROUP BY s.product_id, p.name
		ORDER BY p.name, s.product_id`)
	if err != nil {
		return nil, mapError("stock summary by product", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ps entity.ProductStockSummary
		if err := rows.Scan(&ps.ProductID, &ps.ProductName, &ps.WarehouseCount, &ps.QtyOnHand, &ps.QtyReserved); err != nil {
			return nil, fmt.Errorf("scan stock summary: %w", err)
		}
		out.ByProduct = append(out.ByProduct, ps)
	}
	return out, rows.Err()
}

// Balances une el saldo de cada fila de stock con la suma firmada de sus movimientos.
// FULL JOIN para detectar también claves con movimientos y sin fila de stock.
func (r *StatsRepo) Balances(ctx context.Context) ([]entity.KeyBalance, error) {
	rows, err := r.q.Query(ctx, `
		WITH effects AS (
			SELECT warehouse_id AS wh, product_id,
				CASE
					WHEN type IN ('IN', 'RETURN') THEN qty
					WHEN type = 'ADJUST' AND direction = 'DECREASE' THEN -qty
					WHEN type = 'ADJUST' THEN qty
					ELSE -qty
				END AS delta
			FROM stock_movements
			UNION ALL
			SELECT warehouse_to_id, product_id, qty FROM stock_movements WHERE type = 'TRANSFER'
		),
		journal AS (
			SELECT wh, product_id, SUM(delta)::bigint AS qty FROM effects GROUP BY wh, product_id
		)
		SELECT COALESCE(s.warehouse_id, j.wh)::text, COALESCE(s.product_id, j.product_id)::text,
			s.qty_on_hand, COALESCE(j.qty, 0)
		FROM stock s
		FULL OUTER JOIN journal j ON j.wh = s.warehouse_id AND j.product_id = s.product_id`)
	if err != nil {
		return nil, mapError("balances", err)
	}
	defer rows.Close()
	out := []entity.KeyBalance{}
	for rows.Next() {
		var b entity.KeyBalance
		if err := rows.Scan(&b.WarehouseID, &b.ProductID, &b.StockOnHand, &b.JournalOnHand); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
