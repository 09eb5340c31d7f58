package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.DocumentRepository  = (*DocumentRepo)(nil)
)

// WarehouseRepo lectura de bodegas registradas con Store.AddWarehouse.
type WarehouseRepo struct{ s *Store }

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
	}
	c := *w
	return &c, nil
}

// ProductRepo lectura de productos registrados con Store.AddProduct.
type ProductRepo struct{ s *Store }

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	c := *p
	return &c, nil
}

// DocumentRepo documentos registrados con Store.AddDocument.
type DocumentRepo struct{ s *Store }

// Exists indica si el documento existe.
func (r *DocumentRepo) Exists(_ context.Context, refType entity.RefType, refID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.documents[refType][refID]
	return ok, nil
}
