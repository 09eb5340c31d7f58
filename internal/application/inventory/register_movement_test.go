package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ─────────────────────────────────────────────
// Alta de movimientos
// ─────────────────────────────────────────────

func TestCreateMovement_EntradaCreaStockYDiario(t *testing.T) {
	e := newEnv(t)
	cost := decimal.NewFromInt(1500)
	req := e.req(entity.MovementTypeIn, e.whA, 12)
	req.UnitCost = &cost

	m, err := e.movements.CreateMovement(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, fixedNow, m.CreatedAt)
	assert.Equal(t, int64(12), e.onHand(t, e.whA))

	got, err := e.movements.GetMovement(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeIn, got.Type)
	assert.Equal(t, "Bodega A", got.WarehouseName)
	assert.Equal(t, "Tornillo 10mm", got.ProductName)
	require.NotNil(t, got.UnitCost)
	assert.True(t, cost.Equal(*got.UnitCost))
	assert.Equal(t, []string{inventory.EventMovementCreated}, e.events.kinds())
}

func TestCreateMovement_SalidaInsuficienteSinEfecto(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 5)

	_, err := e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeOut, e.whA, 6))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var fe *inventory.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{inventory.FieldQty}, fe.Fields)
	assert.Equal(t, int64(5), e.onHand(t, e.whA))
	assert.Equal(t, 1, e.journalCount(t))
}

func TestCreateMovement_SalidaRespetaReservado(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 10)
	_, err := e.ledger.Adjust(context.Background(), inventory.AdjustInput{
		WarehouseID: e.whA, ProductID: e.prod, DeltaReserved: 8,
	})
	require.NoError(t, err)

	_, err = e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeOut, e.whA, 3))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeOut, e.whA, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(8), e.onHand(t, e.whA))
}

func TestCreateMovement_MermaYDevolucion(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 10)

	_, err := e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeLoss, e.whA, 4))
	require.NoError(t, err)
	_, err = e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeReturn, e.whA, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.onHand(t, e.whA))

	_, err = e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeLoss, e.whA, 8))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCreateMovement_DireccionDeAjuste(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 10)

	dec := e.req(entity.MovementTypeAdjust, e.whA, 3)
	dec.Direction = entity.DirectionDecrease
	_, err := e.movements.CreateMovement(context.Background(), dec)
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.onHand(t, e.whA))

	m, err := e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeAdjust, e.whA, 2))
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionIncrease, m.Direction)
	assert.Equal(t, int64(9), e.onHand(t, e.whA))

	over := e.req(entity.MovementTypeAdjust, e.whA, 20)
	over.Direction = entity.DirectionDecrease
	_, err = e.movements.CreateMovement(context.Background(), over)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCreateMovement_ReglasDeValidacion(t *testing.T) {
	e := newEnv(t)
	missingDoc := e.req(entity.MovementTypeIn, e.whA, 1)
	missingDoc.RefType, missingDoc.RefID = entity.RefTypeReceipt, uuid.NewString()

	tests := []struct {
		name    string
		mutate  func(r *inventory.MovementRequest)
		wantErr error
		field   string
	}{
		{"tipo desconocido", func(r *inventory.MovementRequest) { r.Type = "SWAP" }, domain.ErrInvalidInput, inventory.FieldType},
		{"bodega inexistente", func(r *inventory.MovementRequest) { r.WarehouseID = uuid.NewString() }, domain.ErrNotFound, inventory.FieldWarehouseID},
		{"bodega inactiva", func(r *inventory.MovementRequest) { r.WarehouseID = e.whInactive }, domain.ErrInactiveEntity, inventory.FieldWarehouseID},
		{"producto inexistente", func(r *inventory.MovementRequest) { r.ProductID = uuid.NewString() }, domain.ErrNotFound, inventory.FieldProductID},
		{"destino fuera de transferencia", func(r *inventory.MovementRequest) { r.WarehouseToID = e.whB }, domain.ErrInvalidInput, inventory.FieldWarehouseToID},
		{"cantidad cero", func(r *inventory.MovementRequest) { r.Qty = 0 }, domain.ErrInvalidInput, inventory.FieldQty},
		{"fecha futura", func(r *inventory.MovementRequest) { r.OccurredAt = fixedNow.Add(time.Minute) }, domain.ErrInvalidInput, inventory.FieldOccurredAt},
		{"direction en IN", func(r *inventory.MovementRequest) { r.Direction = entity.DirectionDecrease }, domain.ErrInvalidInput, inventory.FieldDirection},
		{"referencia incompleta", func(r *inventory.MovementRequest) { r.RefType = entity.RefTypeManual }, domain.ErrInvalidInput, inventory.FieldRefType},
		{"documento inexistente", func(r *inventory.MovementRequest) { *r = missingDoc }, domain.ErrNotFound, inventory.FieldRefID},
		{"sin autor", func(r *inventory.MovementRequest) { r.CreatedBy = "" }, domain.ErrInvalidInput, inventory.FieldCreatedBy},
		{"costo negativo", func(r *inventory.MovementRequest) { r.UnitCost = decPtr("-1") }, domain.ErrInvalidInput, inventory.FieldUnitCost},
		{"costo con cinco decimales", func(r *inventory.MovementRequest) { r.UnitCost = decPtr("1.23456") }, domain.ErrInvalidInput, inventory.FieldUnitCost},
		{"costo con quince dígitos enteros", func(r *inventory.MovementRequest) { r.UnitCost = decPtr("100000000000000") }, domain.ErrInvalidInput, inventory.FieldUnitCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.req(entity.MovementTypeIn, e.whA, 1)
			tt.mutate(&r)
			_, err := e.movements.CreateMovement(context.Background(), r)
			require.ErrorIs(t, err, tt.wantErr)
			var fe *inventory.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Contains(t, fe.Fields, tt.field)
		})
	}
	assert.Zero(t, e.journalCount(t))
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateMovement_CostoEnElLimiteDeNumeric(t *testing.T) {
	e := newEnv(t)
	for _, c := range []string{"99999999999999.9999", "1.2300000", "0"} {
		r := e.req(entity.MovementTypeIn, e.whA, 1)
		r.UnitCost = decPtr(c)
		m, err := e.movements.CreateMovement(context.Background(), r)
		require.NoError(t, err, c)
		assert.True(t, m.UnitCost.Equal(decimal.RequireFromString(c)), c)
	}
}

func TestCreateMovement_TiemposAlMicrosegundo(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 123456789, time.UTC)
	e := newEnvAt(t, now)

	r := e.req(entity.MovementTypeIn, e.whA, 3)
	r.OccurredAt = now.Add(-time.Minute)
	created, err := e.movements.CreateMovement(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, now.Truncate(time.Microsecond), created.CreatedAt)
	assert.Equal(t, now.Add(-time.Minute).Truncate(time.Microsecond), created.OccurredAt)
	assert.Zero(t, created.CreatedAt.Nanosecond()%1000)

	got, err := e.movements.GetMovement(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, got.OccurredAt.Equal(created.OccurredAt))

	st, err := e.store.Stocks().Get(context.Background(), e.whA, e.prod)
	require.NoError(t, err)
	assert.Equal(t, now.Truncate(time.Microsecond), st.UpdatedAt)
}

func TestCreateMovement_DocumentoExistenteAceptado(t *testing.T) {
	e := newEnv(t)
	docID := uuid.NewString()
	e.store.AddDocument(entity.RefTypeReceipt, docID)

	r := e.req(entity.MovementTypeIn, e.whA, 4)
	r.RefType, r.RefID = entity.RefTypeReceipt, docID
	m, err := e.movements.CreateMovement(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, m.HasReference())
}

func TestCreateMovement_SalidasConcurrentesNoSobrevenden(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 100)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeOut, e.whA, 60))
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(40), e.onHand(t, e.whA))
	assert.Equal(t, 2, e.journalCount(t))
}

// ─────────────────────────────────────────────
// Transferencias
// ─────────────────────────────────────────────

func TestTransfer_MueveCantidadAtomicamente(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 50)
	e.receive(t, e.whB, 10)

	r := e.req(entity.MovementTypeTransfer, e.whA, 20)
	r.WarehouseToID = e.whB
	m, err := e.movements.CreateMovement(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, int64(30), e.onHand(t, e.whA))
	assert.Equal(t, int64(30), e.onHand(t, e.whB))
	assert.Equal(t, 3, e.journalCount(t))

	got, err := e.movements.GetMovement(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bodega B", got.WarehouseToName)
}

func TestTransfer_MismaBodegaRechazada(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 50)

	r := e.req(entity.MovementTypeTransfer, e.whA, 5)
	r.WarehouseToID = e.whA
	_, err := e.movements.CreateMovement(context.Background(), r)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(50), e.onHand(t, e.whA))
}

func TestTransfer_SinDestinoRechazada(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 50)
	_, err := e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeTransfer, e.whA, 5))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// failingStocks falla al actualizar la bodega indicada.
type failingStocks struct {
	repository.StockRepository
	failWarehouse string
}

func (f failingStocks) Update(ctx context.Context, s *entity.Stock) error {
	if s.WarehouseID == f.failWarehouse {
		return errors.New("fallo de escritura simulado")
	}
	return f.StockRepository.Update(ctx, s)
}

type failingRunner struct {
	inner         inventory.TxRunner
	failWarehouse string
}

func (r failingRunner) Run(ctx context.Context, fn func(repository.StockRepository, repository.StockMovementRepository) error) error {
	return r.inner.Run(ctx, func(stocks repository.StockRepository, movs repository.StockMovementRepository) error {
		return fn(failingStocks{StockRepository: stocks, failWarehouse: r.failWarehouse}, movs)
	})
}

func TestTransfer_FalloEnDestinoNoTocaNinguna(t *testing.T) {
	e := newEnvWithRunner(t, func(te *env, r inventory.TxRunner) inventory.TxRunner {
		return failingRunner{inner: r, failWarehouse: te.whB}
	})
	// Saldo inicial sin pasar por el runner que falla.
	_, _, err := e.store.Stocks().GetOrCreateForUpdate(context.Background(), &entity.Stock{WarehouseID: e.whB, ProductID: e.prod})
	require.NoError(t, err)
	e.receive(t, e.whA, 50)

	r := e.req(entity.MovementTypeTransfer, e.whA, 20)
	r.WarehouseToID = e.whB
	_, err = e.movements.CreateMovement(context.Background(), r)
	require.Error(t, err)

	assert.Equal(t, int64(50), e.onHand(t, e.whA))
	assert.Equal(t, int64(0), e.onHand(t, e.whB))
	assert.Equal(t, 1, e.journalCount(t))
}

func TestTransfer_SentidosOpuestosSinDeadlock(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 100)
	e.receive(t, e.whB, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := e.whA, e.whB
			if i%2 == 1 {
				from, to = to, from
			}
			r := e.req(entity.MovementTypeTransfer, from, 1)
			r.WarehouseToID = to
			_, err := e.movements.CreateMovement(ctx, r)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(100), e.onHand(t, e.whA))
	assert.Equal(t, int64(100), e.onHand(t, e.whB))
}

// ─────────────────────────────────────────────
// Consulta, edición y baja
// ─────────────────────────────────────────────

func TestListMovements_FiltrosYPaginacion(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 3; i++ {
		e.receive(t, e.whA, 1)
	}
	e.receive(t, e.whB, 1)

	page, err := e.movements.ListMovements(context.Background(), inventory.MovementQuery{
		Filter: repository.MovementFilter{WarehouseID: e.whA},
		Page:   inventory.PageParams{Page: 2, PageSize: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Page)

	page, err = e.movements.ListMovements(context.Background(), inventory.MovementQuery{
		Filter: repository.MovementFilter{Search: "tornillo"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, inventory.DefaultPageSize, page.PageSize)

	_, err = e.movements.ListMovements(context.Background(), inventory.MovementQuery{Page: inventory.PageParams{PageSize: 101}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListMovements_RangoInvertidoRechazado(t *testing.T) {
	e := newEnv(t)
	from, to := fixedNow, fixedNow.Add(-time.Hour)
	_, err := e.movements.ListMovements(context.Background(), inventory.MovementQuery{
		Filter: repository.MovementFilter{From: &from, To: &to},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateMovement_SoloMotivoEditable(t *testing.T) {
	e := newEnv(t)
	m := e.receive(t, e.whA, 5)

	qty := int64(9)
	_, err := e.movements.UpdateMovement(context.Background(), m.ID, inventory.UpdateMovementInput{Qty: &qty})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(5), e.onHand(t, e.whA))

	reason := "  conteo de apertura  "
	got, err := e.movements.UpdateMovement(context.Background(), m.ID, inventory.UpdateMovementInput{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, "conteo de apertura", got.Reason)
	assert.Equal(t, int64(5), got.Qty)

	_, err = e.movements.UpdateMovement(context.Background(), uuid.NewString(), inventory.UpdateMovementInput{Reason: &reason})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteMovement_RevierteElEfecto(t *testing.T) {
	e := newEnv(t)
	e.receive(t, e.whA, 50)
	r := e.req(entity.MovementTypeTransfer, e.whA, 20)
	r.WarehouseToID = e.whB
	tr, err := e.movements.CreateMovement(context.Background(), r)
	require.NoError(t, err)

	require.NoError(t, e.movements.DeleteMovement(context.Background(), tr.ID))
	assert.Equal(t, int64(50), e.onHand(t, e.whA))
	assert.Equal(t, int64(0), e.onHand(t, e.whB))
	assert.Contains(t, e.events.kinds(), inventory.EventMovementDeleted)

	_, err = e.movements.GetMovement(context.Background(), tr.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteMovement_ReferenciadoEsConflicto(t *testing.T) {
	e := newEnv(t)
	docID := uuid.NewString()
	e.store.AddDocument(entity.RefTypeReceipt, docID)
	r := e.req(entity.MovementTypeIn, e.whA, 4)
	r.RefType, r.RefID = entity.RefTypeReceipt, docID
	m, err := e.movements.CreateMovement(context.Background(), r)
	require.NoError(t, err)

	err = e.movements.DeleteMovement(context.Background(), m.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(4), e.onHand(t, e.whA))
}

func TestDeleteMovement_ReversoNoRompeInvariante(t *testing.T) {
	e := newEnv(t)
	in := e.receive(t, e.whA, 10)
	_, err := e.movements.CreateMovement(context.Background(), e.req(entity.MovementTypeOut, e.whA, 8))
	require.NoError(t, err)

	err = e.movements.DeleteMovement(context.Background(), in.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(2), e.onHand(t, e.whA))
}
