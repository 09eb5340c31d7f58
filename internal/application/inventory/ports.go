package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error no queda ningún efecto observable. Puede reintentar fn completo ante
// conflictos de serialización, por lo que fn no debe acumular estado entre invocaciones.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// Tipos de evento publicados después del commit.
const (
	EventMovementCreated = "movement.created"
	EventMovementDeleted = "movement.deleted"
	EventStockLow        = "stock.low"
)

// LedgerEvent notificación de un cambio ya confirmado en el libro.
type LedgerEvent struct {
	Kind       string
	Movement   *entity.StockMovement
	Stock      *entity.Stock
	OccurredAt time.Time
}

// EventPublisher publica eventos del libro. Es best effort: un fallo no revierte la operación.
type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

// StatsCache caché de lecturas de reportes. Get devuelve false si la clave no está.
type StatsCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Clock fuente de tiempo inyectable.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// storedTime redondea a la precisión de TIMESTAMPTZ para que lo devuelto al crear coincida
// con lo que se lee después.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
