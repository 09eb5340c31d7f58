package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// publishCommitted notifica un movimiento confirmado y las claves que quedaron en stock bajo.
func publishCommitted(ctx context.Context, pub EventPublisher, log *logger.Logger, kind string, m *entity.StockMovement, at time.Time, touched ...*entity.Stock) {
	if pub == nil {
		return
	}
	publish(ctx, pub, log, LedgerEvent{Kind: kind, Movement: m, OccurredAt: at})
	for _, s := range touched {
		if s != nil && s.IsLow() {
			publish(ctx, pub, log, LedgerEvent{Kind: EventStockLow, Stock: s, OccurredAt: at})
		}
	}
}

func publish(ctx context.Context, pub EventPublisher, log *logger.Logger, evt LedgerEvent) {
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).Str("event", evt.Kind).Msg("no se pudo publicar el evento")
	}
}
