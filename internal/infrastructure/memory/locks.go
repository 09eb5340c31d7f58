package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// keyLock mutex por clave implementado con un canal de capacidad 1 para poder esperar con ctx.
type keyLock struct {
	ch   chan struct{}
	refs int
}

// keyLocks tabla de bloqueos por (bodega, producto). Las entradas se liberan cuando nadie las usa.
type keyLocks struct {
	mu sync.Mutex
	m  map[entity.StockKey]*keyLock
}

func newKeyLocks() *keyLocks {
	return &keyLocks{m: make(map[entity.StockKey]*keyLock)}
}

func (l *keyLocks) acquire(ctx context.Context, key entity.StockKey) error {
	l.mu.Lock()
	kl, ok := l.m[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.m[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key, kl)
		return fmt.Errorf("lock %s/%s: %w", key.WarehouseID, key.ProductID, ctx.Err())
	}
}

func (l *keyLocks) release(key entity.StockKey) {
	l.mu.Lock()
	kl := l.m[key]
	l.mu.Unlock()
	<-kl.ch
	l.unref(key, kl)
}

func (l *keyLocks) unref(key entity.StockKey, kl *keyLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.m, key)
	}
	l.mu.Unlock()
}

// size número de claves con bloqueo tomado o en espera.
func (l *keyLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
