package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// WarehouseRepository lectura de bodegas. GetByID devuelve domain.ErrNotFound si no existe.
type WarehouseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
}

// ProductRepository lectura de productos. GetByID devuelve domain.ErrNotFound si no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// DocumentRepository verifica documentos de origen (recepciones, vales de salida).
type DocumentRepository interface {
	Exists(ctx context.Context, refType entity.RefType, refID string) (bool, error)
}
