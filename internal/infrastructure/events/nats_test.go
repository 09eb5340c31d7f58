package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/events"
)

type captured struct {
	subject string
	data    []byte
	err     error
}

func (c *captured) Publish(subject string, data []byte) error {
	c.subject, c.data = subject, data
	return c.err
}

func TestSubject_PorTipoDeEvento(t *testing.T) {
	assert.Equal(t, "inventory.movement.created", events.Subject("inventory", inventory.EventMovementCreated))
	assert.Equal(t, "stock.low", events.Subject("", inventory.EventStockLow))
}

func TestNATSPublisher_PublicaElMovimiento(t *testing.T) {
	conn := &captured{}
	pub := events.NewNATSPublisher(conn, "inventory")
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	err := pub.Publish(context.Background(), inventory.LedgerEvent{
		Kind: inventory.EventMovementCreated,
		Movement: &entity.StockMovement{
			ID: "m-1", Type: entity.MovementTypeTransfer, WarehouseID: "w-1", WarehouseToID: "w-2",
			ProductID: "p-1", Qty: 5, OccurredAt: at, CreatedBy: "u-1",
		},
		OccurredAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, "inventory.movement.created", conn.subject)

	var got events.Payload
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, inventory.EventMovementCreated, got.Kind)
	require.NotNil(t, got.Movement)
	assert.Equal(t, "w-2", got.Movement.WarehouseToID)
	assert.Equal(t, int64(5), got.Movement.Qty)
	assert.Nil(t, got.Stock)
}

func TestNATSPublisher_EnvuelveErrores(t *testing.T) {
	boom := errors.New("sin conexión")
	pub := events.NewNATSPublisher(&captured{err: boom}, "inventory")
	err := pub.Publish(context.Background(), inventory.LedgerEvent{
		Kind:  inventory.EventStockLow,
		Stock: &entity.Stock{ID: "s-1", QtyOnHand: 1, ReorderPoint: 5},
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "inventory.stock.low")
}
