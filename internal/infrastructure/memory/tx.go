package memory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// tx área de staging de una transacción. No es segura para uso concurrente: pertenece a un solo Run.
type tx struct {
	s    *Store
	held []entity.StockKey
	has  map[entity.StockKey]struct{}

	stocks        map[string]*entity.Stock
	newStockIDs   map[entity.StockKey]string
	deletedStocks map[string]struct{}

	movements        map[string]*entity.StockMovement
	deletedMovements map[string]struct{}
}

func newTx(s *Store) *tx {
	return &tx{
		s:                s,
		has:              make(map[entity.StockKey]struct{}),
		stocks:           make(map[string]*entity.Stock),
		newStockIDs:      make(map[entity.StockKey]string),
		deletedStocks:    make(map[string]struct{}),
		movements:        make(map[string]*entity.StockMovement),
		deletedMovements: make(map[string]struct{}),
	}
}

// lock toma el bloqueo de la clave una sola vez por transacción.
func (t *tx) lock(ctx context.Context, key entity.StockKey) error {
	if _, ok := t.has[key]; ok {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key); err != nil {
		return err
	}
	t.has[key] = struct{}{}
	t.held = append(t.held, key)
	return nil
}

func (t *tx) releaseLocks() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
	t.has = map[entity.StockKey]struct{}{}
}

// stockID resuelve la clave contra staging y luego contra estado confirmado.
func (t *tx) stockID(key entity.StockKey) (string, bool) {
	if id, ok := t.newStockIDs[key]; ok {
		if _, del := t.deletedStocks[id]; !del {
			return id, true
		}
		return "", false
	}
	t.s.mu.RLock()
	id, ok := t.s.stockIDs[key]
	t.s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if _, del := t.deletedStocks[id]; del {
		return "", false
	}
	return id, true
}

// stock devuelve una copia con nombres, leyendo primero el staging.
func (t *tx) stock(id string) *entity.Stock {
	if _, del := t.deletedStocks[id]; del {
		return nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if st, ok := t.stocks[id]; ok {
		return t.s.stockWithNames(st)
	}
	if st, ok := t.s.stocks[id]; ok {
		return t.s.stockWithNames(st)
	}
	return nil
}

func (t *tx) putStock(st *entity.Stock, isNew bool) {
	c := st.Clone()
	c.WarehouseName, c.ProductName = "", ""
	t.stocks[c.ID] = c
	if isNew {
		t.newStockIDs[c.Key()] = c.ID
	}
}

func (t *tx) deleteStock(id string) {
	delete(t.stocks, id)
	t.deletedStocks[id] = struct{}{}
}

func (t *tx) movement(id string) *entity.StockMovement {
	if _, del := t.deletedMovements[id]; del {
		return nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if m, ok := t.movements[id]; ok {
		return t.s.movementWithNames(m)
	}
	if m, ok := t.s.movements[id]; ok {
		return t.s.movementWithNames(m)
	}
	return nil
}

func (t *tx) putMovement(m *entity.StockMovement) {
	c := m.Clone()
	c.WarehouseName, c.WarehouseToName, c.ProductName, c.ProductCode = "", "", "", ""
	t.movements[c.ID] = c
}

func (t *tx) deleteMovement(id string) {
	delete(t.movements, id)
	t.deletedMovements[id] = struct{}{}
}

// stockSnapshot estado confirmado con el staging superpuesto. Copias sin nombres.
func (t *tx) stockSnapshot() []*entity.Stock {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := make([]*entity.Stock, 0, len(t.s.stocks)+len(t.stocks))
	for id, st := range t.s.stocks {
		if _, del := t.deletedStocks[id]; del {
			continue
		}
		if staged, ok := t.stocks[id]; ok {
			st = staged
		}
		out = append(out, t.s.stockWithNames(st))
	}
	for id, st := range t.stocks {
		if _, committed := t.s.stocks[id]; !committed {
			out = append(out, t.s.stockWithNames(st))
		}
	}
	return out
}

func (t *tx) movementSnapshot() []*entity.StockMovement {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := make([]*entity.StockMovement, 0, len(t.s.movements)+len(t.movements))
	for id, m := range t.s.movements {
		if _, del := t.deletedMovements[id]; del {
			continue
		}
		if staged, ok := t.movements[id]; ok {
			m = staged
		}
		out = append(out, t.s.movementWithNames(m))
	}
	for id, m := range t.movements {
		if _, committed := t.s.movements[id]; !committed {
			out = append(out, t.s.movementWithNames(m))
		}
	}
	return out
}

// commit aplica el staging al estado confirmado de forma atómica.
func (t *tx) commit() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, st := range t.stocks {
		t.s.stocks[id] = st
		t.s.stockIDs[st.Key()] = id
	}
	for id := range t.deletedStocks {
		if st, ok := t.s.stocks[id]; ok {
			delete(t.s.stockIDs, st.Key())
			delete(t.s.stocks, id)
		}
	}
	for id, m := range t.movements {
		t.s.movements[id] = m
	}
	for id := range t.deletedMovements {
		delete(t.s.movements, id)
	}
}
