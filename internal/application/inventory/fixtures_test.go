package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []inventory.LedgerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt inventory.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type env struct {
	store      *memory.Store
	events     *recordingPublisher
	ledger     *inventory.StockLedger
	movements  *inventory.RegisterMovementUseCase
	stats      *inventory.StatsAggregator
	reconcile  *inventory.ReconcileUseCase
	replenish  *inventory.ReplenishmentUseCase
	whA, whB   string
	whInactive string
	prod       string
}

func newEnv(t *testing.T) *env {
	return newEnvWithRunner(t, nil)
}

// newEnvWithRunner permite envolver el TxRunner del store (p. ej. para inyectar fallos).
func newEnvWithRunner(t *testing.T, wrap func(e *env, r inventory.TxRunner) inventory.TxRunner) *env {
	t.Helper()
	return buildEnv(t, fixedNow, wrap)
}

// newEnvAt usa un reloj detenido en now.
func newEnvAt(t *testing.T, now time.Time) *env {
	t.Helper()
	return buildEnv(t, now, nil)
}

func buildEnv(t *testing.T, now time.Time, wrap func(e *env, r inventory.TxRunner) inventory.TxRunner) *env {
	t.Helper()
	s := memory.NewStore()
	e := &env{
		store:      s,
		events:     &recordingPublisher{},
		whA:        uuid.NewString(),
		whB:        uuid.NewString(),
		whInactive: uuid.NewString(),
		prod:       uuid.NewString(),
	}
	s.AddWarehouse(entity.Warehouse{ID: e.whA, Code: "A", Name: "Bodega A", Active: true})
	s.AddWarehouse(entity.Warehouse{ID: e.whB, Code: "B", Name: "Bodega B", Active: true})
	s.AddWarehouse(entity.Warehouse{ID: e.whInactive, Code: "X", Name: "Bodega cerrada", Active: false})
	s.AddProduct(entity.Product{ID: e.prod, Code: "TOR-10", Name: "Tornillo 10mm", Active: true})

	var runner inventory.TxRunner = s
	if wrap != nil {
		runner = wrap(e, s)
	}
	clock := inventory.Clock(func() time.Time { return now })
	log := logger.Nop()

	validator := inventory.NewMovementValidator(s.Warehouses(), s.Products(), s.Documents(), clock)
	journal := inventory.NewMovementJournal(s.Movements())
	transfers := inventory.NewTransferCoordinator(validator, journal)
	e.ledger = inventory.NewStockLedger(runner, s.Stocks(), s.Stats(), validator, journal, e.events, clock, log)
	e.movements = inventory.NewRegisterMovementUseCase(runner, validator, transfers, journal, e.events, clock, log, 100)
	e.stats = inventory.NewStatsAggregator(s.Stats(), s.Stocks(), nil, log)
	e.reconcile = inventory.NewReconcileUseCase(s.Stats(), log)
	e.replenish = inventory.NewReplenishmentUseCase(s.Stocks())
	return e
}

func (e *env) req(typ entity.MovementType, wh string, qty int64) inventory.MovementRequest {
	return inventory.MovementRequest{
		Type:        typ,
		WarehouseID: wh,
		ProductID:   e.prod,
		Qty:         qty,
		OccurredAt:  fixedNow.Add(-time.Hour),
		CreatedBy:   "bodeguero-1",
	}
}

func (e *env) receive(t *testing.T, wh string, qty int64) *entity.StockMovement {
	t.Helper()
	m, err := e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeIn, wh, qty))
	require.NoError(t, err)
	return m
}

func (e *env) onHand(t *testing.T, wh string) int64 {
	t.Helper()
	st, err := e.store.Stocks().Get(context.Background(), wh, e.prod)
	require.NoError(t, err)
	return st.QtyOnHand
}

func (e *env) journalCount(t *testing.T) int {
	t.Helper()
	page, err := e.movements.ListMovements(context.Background(), inventory.MovementQuery{})
	require.NoError(t, err)
	return page.Total
}
