package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `
	m.id, m.type, COALESCE(m.ref_type, ''), COALESCE(m.ref_id, ''),
	m.warehouse_id, COALESCE(m.warehouse_to_id::text, ''), m.product_id,
	m.qty, m.unit_cost, m.reason, COALESCE(m.direction, ''),
	m.occurred_at, m.created_by, m.created_at,
	w.name, COALESCE(wt.name, ''), p.name, p.code`

const movementFrom = `
	FROM stock_movements m
	JOIN warehouses w ON w.id = m.warehouse_id
	LEFT JOIN warehouses wt ON wt.id = m.warehouse_to_id
	JOIN products p ON p.id = m.product_id`

// StockMovementRepo diario de movimientos sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m        entity.StockMovement
		unitCost decimal.NullDecimal
	)
	err := row.Scan(
		&m.ID, &m.Type, &m.RefType, &m.RefID,
		&m.WarehouseID, &m.WarehouseToID, &m.ProductID,
		&m.Qty, &unitCost, &m.Reason, &m.Direction,
		&m.OccurredAt, &m.CreatedBy, &m.CreatedAt,
		&m.WarehouseName, &m.WarehouseToName, &m.ProductName, &m.ProductCode,
	)
	if err != nil {
		return nil, err
	}
	if unitCost.Valid {
		c := unitCost.Decimal
		m.UnitCost = &c
	}
	return &m, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create persiste un movimiento. El ID lo asigna el diario.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		return fmt.Errorf("%w: movimiento sin ID", domain.ErrInvalidInput)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements (id, type, ref_type, ref_id, warehouse_id, warehouse_to_id, product_id,
			qty, unit_cost, reason, direction, occurred_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.ID, m.Type, nullable(string(m.RefType)), nullable(m.RefID), m.WarehouseID, nullable(m.WarehouseToID), m.ProductID,
		m.Qty, m.UnitCost, m.Reason, nullable(string(m.Direction)), m.OccurredAt, m.CreatedBy, m.CreatedAt,
	)
	return mapError("create movement", err)
}

// GetByID obtiene un movimiento con nombres de bodega y producto.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+movementFrom+` WHERE m.id = $1`, id))
	if err != nil {
		return nil, mapError("get movement "+id, err)
	}
	return m, nil
}

// UpdateReason modifica solo el motivo.
func (r *StockMovementRepo) UpdateReason(ctx context.Context, id, reason string) error {
	tag, err := r.q.Exec(ctx, `UPDATE stock_movements SET reason = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return mapError("update movement reason", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
	}
	return nil
}

// Delete elimina el movimiento.
func (r *StockMovementRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE id = $1`, id)
	if err != nil {
		return mapError("delete movement", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
	}
	return nil
}

func movementWhere(f repository.MovementFilter) *sqlBuilder {
	b := newSQLBuilder()
	if f.Type != "" {
		b.where("m.type = ?", f.Type)
	}
	if f.RefType != "" {
		b.where("m.ref_type = ?", f.RefType)
	}
	if f.RefID != "" {
		b.where("m.ref_id = ?", f.RefID)
	}
	if f.WarehouseID != "" {
		b.where("m.warehouse_id = ?", f.WarehouseID)
	}
	if f.WarehouseToID != "" {
		b.where("m.warehouse_to_id = ?", f.WarehouseToID)
	}
	if f.ProductID != "" {
		b.where("m.product_id = ?", f.ProductID)
	}
	if f.CreatedBy != "" {
		b.where("m.created_by = ?", f.CreatedBy)
	}
	if f.From != nil {
		b.where("m.occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		b.where("m.occurred_at <= ?", *f.To)
	}
	if f.Search != "" {
		like := "%" + escapeLike(f.Search) + "%"
		b.where("(w.name ILIKE ? OR wt.name ILIKE ? OR p.name ILIKE ? OR p.code ILIKE ? OR m.reason ILIKE ?)",
			like, like, like, like, like)
	}
	return b
}

// List filtra, ordena por OccurredAt desc y pagina. Devuelve también el total sin paginar.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	b := movementWhere(f)

	var total int
	countSQL, countArgs := b.build(`SELECT COUNT(*)`+movementFrom, "")
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapError("count movements", err)
	}

	listSQL, args := b.page(limit, offset).build(`SELECT `+movementColumns+movementFrom,
		`ORDER BY m.occurred_at DESC, m.created_at DESC, m.id`)
	rows, err := r.q.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, mapError("list movements", err)
	}
	defer rows.Close()
	list := []*entity.StockMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	return list, total, nil
}

// CountByKey movimientos que tocan la clave como origen o destino.
func (r *StockMovementRepo) CountByKey(ctx context.Context, warehouseID, productID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM stock_movements
		WHERE product_id = $2 AND (warehouse_id = $1 OR warehouse_to_id = $1)`,
		warehouseID, productID,
	).Scan(&n)
	if err != nil {
		return 0, mapError("count movements by key", err)
	}
	return n, nil
}
