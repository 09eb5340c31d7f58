// Package events publica en NATS los cambios confirmados del libro de inventario.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

var _ inventory.EventPublisher = (*NATSPublisher)(nil)

// Connect abre la conexión a NATS con reconexión indefinida.
func Connect(cfg config.NATSConfig, name string, log *logger.Logger) (*nats.Conn, error) {
	l := log.Named("nats")
	conn, err := nats.Connect(cfg.URL,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn().Err(err).Msg("desconectado de NATS")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info().Str("url", c.ConnectedUrl()).Msg("reconectado a NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	return conn, nil
}

// Subject arma el subject de un tipo de evento: <prefix>.movement.created, etc.
func Subject(prefix, kind string) string {
	if prefix == "" {
		return kind
	}
	return prefix + "." + kind
}

// Conn lo que se usa de *nats.Conn.
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher implementa inventory.EventPublisher.
type NATSPublisher struct {
	conn   Conn
	prefix string
}

// NewNATSPublisher construye el publicador. conn suele ser *nats.Conn.
func NewNATSPublisher(conn Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Payload cuerpo JSON de cada evento.
type Payload struct {
	Kind       string           `json:"kind"`
	OccurredAt time.Time        `json:"occurredAt"`
	Movement   *MovementPayload `json:"movement,omitempty"`
	Stock      *StockPayload    `json:"stock,omitempty"`
}

// MovementPayload movimiento publicado.
type MovementPayload struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	RefType       string           `json:"refType,omitempty"`
	RefID         string           `json:"refId,omitempty"`
	WarehouseID   string           `json:"warehouseId"`
	WarehouseToID string           `json:"warehouseToId,omitempty"`
	ProductID     string           `json:"productId"`
	Qty           int64            `json:"qty"`
	UnitCost      *decimal.Decimal `json:"unitCost,omitempty"`
	Direction     string           `json:"direction,omitempty"`
	OccurredAt    time.Time        `json:"occurredAt"`
	CreatedBy     string           `json:"createdBy"`
}

// StockPayload saldo publicado en stock.low.
type StockPayload struct {
	ID           string `json:"id"`
	WarehouseID  string `json:"warehouseId"`
	ProductID    string `json:"productId"`
	QtyOnHand    int64  `json:"qtyOnHand"`
	QtyReserved  int64  `json:"qtyReserved"`
	SafetyStock  int64  `json:"safetyStock"`
	ReorderPoint int64  `json:"reorderPoint"`
}

// NewPayload convierte el evento del libro al cuerpo publicado.
func NewPayload(evt inventory.LedgerEvent) Payload {
	p := Payload{Kind: evt.Kind, OccurredAt: evt.OccurredAt.UTC()}
	if m := evt.Movement; m != nil {
		p.Movement = movementPayload(m)
	}
	if s := evt.Stock; s != nil {
		p.Stock = &StockPayload{
			ID:           s.ID,
			WarehouseID:  s.WarehouseID,
			ProductID:    s.ProductID,
			QtyOnHand:    s.QtyOnHand,
			QtyReserved:  s.QtyReserved,
			SafetyStock:  s.SafetyStock,
			ReorderPoint: s.ReorderPoint,
		}
	}
	return p
}

func movementPayload(m *entity.StockMovement) *MovementPayload {
	return &MovementPayload{
		ID:            m.ID,
		Type:          string(m.Type),
		RefType:       string(m.RefType),
		RefID:         m.RefID,
		WarehouseID:   m.WarehouseID,
		WarehouseToID: m.WarehouseToID,
		ProductID:     m.ProductID,
		Qty:           m.Qty,
		UnitCost:      m.UnitCost,
		Direction:     string(m.Direction),
		OccurredAt:    m.OccurredAt.UTC(),
		CreatedBy:     m.CreatedBy,
	}
}

// Publish serializa y publica el evento. NATS core no bloquea: el ctx solo corta antes de publicar.
func (p *NATSPublisher) Publish(ctx context.Context, evt inventory.LedgerEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(NewPayload(evt))
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.Kind, err)
	}
	subject := Subject(p.prefix, evt.Kind)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
