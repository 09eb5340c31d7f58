// Package memory implementa los puertos de persistencia del libro en memoria de proceso.
//
// Cada transacción bloquea por clave (bodega, producto) desde el primer acceso de escritura hasta
// commit o rollback, escribe sobre un área de staging (lee sus propias escrituras) y al confirmar
// aplica todo bajo el lock de escritura del Store. Los lectores fuera de transacción solo ven
// estado confirmado.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store estado confirmado más la tabla de bloqueos por clave.
type Store struct {
	mu         sync.RWMutex
	stocks     map[string]*entity.Stock
	stockIDs   map[entity.StockKey]string
	movements  map[string]*entity.StockMovement
	warehouses map[string]*entity.Warehouse
	products   map[string]*entity.Product
	documents  map[entity.RefType]map[string]struct{}

	locks *keyLocks
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		stocks:     make(map[string]*entity.Stock),
		stockIDs:   make(map[entity.StockKey]string),
		movements:  make(map[string]*entity.StockMovement),
		warehouses: make(map[string]*entity.Warehouse),
		products:   make(map[string]*entity.Product),
		documents:  make(map[entity.RefType]map[string]struct{}),
		locks:      newKeyLocks(),
	}
}

// AddWarehouse registra o reemplaza una bodega.
func (s *Store) AddWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[w.ID] = &w
}

// AddProduct registra o reemplaza un producto.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

// AddDocument registra un documento de origen (recepción, vale de salida).
func (s *Store) AddDocument(refType entity.RefType, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documents[refType] == nil {
		s.documents[refType] = make(map[string]struct{})
	}
	s.documents[refType][id] = struct{}{}
}

// Run ejecuta fn en una transacción. Si fn falla se descarta el staging; en ambos casos se
// liberan los bloqueos tomados.
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	t := newTx(s)
	defer t.releaseLocks()

	if err := fn(&StockRepo{s: s, t: t}, &MovementRepo{s: s, t: t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

// Stocks repositorio de stock fuera de transacción.
func (s *Store) Stocks() *StockRepo { return &StockRepo{s: s} }

// Movements repositorio del diario fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Warehouses repositorio de bodegas.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s: s} }

// Products repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Documents repositorio de documentos de origen.
func (s *Store) Documents() *DocumentRepo { return &DocumentRepo{s: s} }

// Stats repositorio de reportes.
func (s *Store) Stats() *StatsRepo { return &StatsRepo{s: s} }

// stockWithNames copia el stock con los nombres de datos maestros. Requiere s.mu tomado (lectura).
func (s *Store) stockWithNames(st *entity.Stock) *entity.Stock {
	c := st.Clone()
	if w, ok := s.warehouses[c.WarehouseID]; ok {
		c.WarehouseName = w.Name
	}
	if p, ok := s.products[c.ProductID]; ok {
		c.ProductName = p.Name
	}
	return c
}

// movementWithNames copia el movimiento con los nombres de datos maestros. Requiere s.mu tomado (lectura).
func (s *Store) movementWithNames(m *entity.StockMovement) *entity.StockMovement {
	c := m.Clone()
	if w, ok := s.warehouses[c.WarehouseID]; ok {
		c.WarehouseName = w.Name
	}
	if c.WarehouseToID != "" {
		if w, ok := s.warehouses[c.WarehouseToID]; ok {
			c.WarehouseToName = w.Name
		}
	}
	if p, ok := s.products[c.ProductID]; ok {
		c.ProductName = p.Name
		c.ProductCode = p.Code
	}
	return c
}
