package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// documentTables tabla de cada tipo de documento verificable.
var documentTables = map[entity.RefType]string{
	entity.RefTypeReceipt:  "receipts",
	entity.RefTypeStockOut: "stock_out_vouchers",
}

// DocumentRepo existencia de documentos de origen.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador.
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// Exists indica si el documento existe. Tipos sin tabla propia y ids que no son UUID no existen.
func (r *DocumentRepo) Exists(ctx context.Context, refType entity.RefType, refID string) (bool, error) {
	table, ok := documentTables[refType]
	if !ok {
		return false, nil
	}
	if _, err := uuid.Parse(refID); err != nil {
		return false, nil
	}
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, refID).Scan(&exists)
	if err != nil {
		return false, mapError("check document", err)
	}
	return exists, nil
}
