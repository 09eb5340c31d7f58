package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `
	s.id, s.warehouse_id, s.product_id, s.qty_on_hand, s.qty_reserved,
	s.safety_stock, s.reorder_point, s.min_qty, s.created_at, s.updated_at,
	w.name, p.name`

const stockFrom = `
	FROM stock s
	JOIN warehouses w ON w.id = s.warehouse_id
	JOIN products p ON p.id = s.product_id`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.Stock, error) {
	var s entity.Stock
	err := row.Scan(
		&s.ID, &s.WarehouseID, &s.ProductID, &s.QtyOnHand, &s.QtyReserved,
		&s.SafetyStock, &s.ReorderPoint, &s.MinQty, &s.CreatedAt, &s.UpdatedAt,
		&s.WarehouseName, &s.ProductName,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID obtiene un stock por ID.
func (r *StockRepo) GetByID(ctx context.Context, id string) (*entity.Stock, error) {
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT `+stockColumns+stockFrom+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, mapError("get stock "+id, err)
	}
	return s, nil
}

// Get obtiene el stock de la clave sin bloquear.
func (r *StockRepo) Get(ctx context.Context, warehouseID, productID string) (*entity.Stock, error) {
	s, err := scanStock(r.q.QueryRow(ctx,
		`SELECT `+stockColumns+stockFrom+` WHERE s.warehouse_id = $1 AND s.product_id = $2`,
		warehouseID, productID))
	if err != nil {
		return nil, mapError("get stock", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, warehouseID, productID string) (*entity.Stock, error) {
	s, err := scanStock(r.q.QueryRow(ctx,
		`SELECT `+stockColumns+stockFrom+` WHERE s.warehouse_id = $1 AND s.product_id = $2 FOR UPDATE OF s`,
		warehouseID, productID))
	if err != nil {
		return nil, mapError("get stock for update", err)
	}
	return s, nil
}

// GetOrCreateForUpdate inserta la fila en cero si no existe y luego la bloquea.
// ON CONFLICT DO NOTHING hace que dos transacciones concurrentes converjan en la misma fila.
func (r *StockRepo) GetOrCreateForUpdate(ctx context.Context, seed *entity.Stock) (*entity.Stock, bool, error) {
	now := time.Now().UTC()
	tag, err := r.q.Exec(ctx, `
		INSERT INTO stock (id, warehouse_id, product_id, qty_on_hand, qty_reserved,
			safety_stock, reorder_point, min_qty, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4, $5, $6, $7, $7)
		ON CONFLICT (warehouse_id, product_id) DO NOTHING`,
		uuid.NewString(), seed.WarehouseID, seed.ProductID,
		seed.SafetyStock, seed.ReorderPoint, seed.MinQty, now,
	)
	if err != nil {
		return nil, false, mapError("insert stock", err)
	}
	s, err := r.GetForUpdate(ctx, seed.WarehouseID, seed.ProductID)
	if err != nil {
		return nil, false, err
	}
	return s, tag.RowsAffected() == 1, nil
}

// Create inserta la clave. domain.ErrConflict si ya existe.
func (r *StockRepo) Create(ctx context.Context, s *entity.Stock) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (id, warehouse_id, product_id, qty_on_hand, qty_reserved,
			safety_stock, reorder_point, min_qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.WarehouseID, s.ProductID, s.QtyOnHand, s.QtyReserved,
		s.SafetyStock, s.ReorderPoint, s.MinQty, s.CreatedAt, s.UpdatedAt,
	)
	return mapError("create stock", err)
}

// Update persiste cantidades y umbrales. El CHECK de la tabla respalda el invariante.
func (r *StockRepo) Update(ctx context.Context, s *entity.Stock) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock SET qty_on_hand = $2, qty_reserved = $3, safety_stock = $4,
			reorder_point = $5, min_qty = $6, updated_at = $7
		WHERE id = $1`,
		s.ID, s.QtyOnHand, s.QtyReserved, s.SafetyStock, s.ReorderPoint, s.MinQty, s.UpdatedAt,
	)
	if err != nil {
		return mapError("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: stock %s", domain.ErrNotFound, s.ID)
	}
	return nil
}

// Delete elimina la fila.
func (r *StockRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock WHERE id = $1`, id)
	if err != nil {
		return mapError("delete stock", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: stock %s", domain.ErrNotFound, id)
	}
	return nil
}

// List filtra, ordena por bodega y producto y pagina. Devuelve también el total sin paginar.
func (r *StockRepo) List(ctx context.Context, f repository.StockFilter, limit, offset int) ([]*entity.Stock, int, error) {
	b := newSQLBuilder()
	if f.WarehouseID != "" {
		b.where("s.warehouse_id = ?", f.WarehouseID)
	}
	if f.ProductID != "" {
		b.where("s.product_id = ?", f.ProductID)
	}
	if f.LowOnly {
		b.where("(s.qty_on_hand <= s.safety_stock OR s.qty_on_hand <= s.reorder_point)")
	}
	if f.Search != "" {
		like := "%" + escapeLike(f.Search) + "%"
		b.where("(w.name ILIKE ? OR p.name ILIKE ? OR p.code ILIKE ?)", like, like, like)
	}

	var total int
	countSQL, countArgs := b.build(`SELECT COUNT(*)`+stockFrom, "")
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapError("count stock", err)
	}

	listSQL, args := b.page(limit, offset).build(`SELECT `+stockColumns+stockFrom, `ORDER BY w.name, p.name, s.id`)
	rows, err := r.q.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, mapError("list stock", err)
	}
	defer rows.Close()
	list := []*entity.Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list stock: %w", err)
	}
	return list, total, nil
}
