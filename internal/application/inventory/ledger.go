package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Motivos de los movimientos de auditoría que genera el propio libro.
const (
	reasonOpeningBalance = "saldo inicial"
	reasonReset          = "reinicio por conteo físico"
	reasonAdjust         = "ajuste de saldo"
)

// ledgerTx mutaciones del libro sobre los repositorios de una transacción.
// No guarda saldos: cada operación lee la fila bloqueada.
type ledgerTx struct {
	stocks    repository.StockRepository
	movements repository.StockMovementRepository
	now       time.Time
}

func newLedgerTx(stocks repository.StockRepository, movements repository.StockMovementRepository, now time.Time) *ledgerTx {
	return &ledgerTx{stocks: stocks, movements: movements, now: storedTime(now)}
}

// lock bloquea la clave, creándola en cero si no existe.
func (l *ledgerTx) lock(ctx context.Context, key entity.StockKey) (*entity.Stock, error) {
	s, _, err := l.stocks.GetOrCreateForUpdate(ctx, &entity.Stock{WarehouseID: key.WarehouseID, ProductID: key.ProductID})
	if err != nil {
		return nil, fmt.Errorf("lock stock: %w", err)
	}
	return s, nil
}

// lockOrdered bloquea varias claves en orden (bodega, producto) para evitar deadlocks entre transferencias opuestas.
func (l *ledgerTx) lockOrdered(ctx context.Context, keys ...entity.StockKey) (map[entity.StockKey]*entity.Stock, error) {
	sorted := append([]entity.StockKey(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	out := make(map[entity.StockKey]*entity.Stock, len(sorted))
	for _, k := range sorted {
		if _, ok := out[k]; ok {
			continue
		}
		s, err := l.lock(ctx, k)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// apply suma los deltas a la fila bloqueada y la persiste si el invariante se mantiene.
func (l *ledgerTx) apply(ctx context.Context, s *entity.Stock, deltaOnHand, deltaReserved int64) error {
	onHand := s.QtyOnHand + deltaOnHand
	reserved := s.QtyReserved + deltaReserved
	if reserved < 0 {
		return fieldErr(domain.ErrInvalidInput, fmt.Sprintf("la reserva quedaría negativa (%d)", reserved), FieldQty)
	}
	if onHand < reserved {
		return fieldErr(domain.ErrInsufficientStock,
			fmt.Sprintf("on hand %d quedaría por debajo de lo reservado %d", onHand, reserved), FieldQty)
	}
	s.QtyOnHand = onHand
	s.QtyReserved = reserved
	s.UpdatedAt = l.now
	if err := l.stocks.Update(ctx, s); err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	return nil
}

// adjustment movimiento de auditoría para un cambio directo de on hand. Queda referenciado al stock,
// por lo que no se puede borrar como un movimiento manual.
func (l *ledgerTx) adjustment(s *entity.Stock, delta int64, reason, actor string) *entity.StockMovement {
	dir := entity.DirectionIncrease
	qty := delta
	if delta < 0 {
		dir = entity.DirectionDecrease
		qty = -delta
	}
	return &entity.StockMovement{
		Type:        entity.MovementTypeAdjust,
		RefType:     entity.RefTypeAdjustment,
		RefID:       s.ID,
		WarehouseID: s.WarehouseID,
		ProductID:   s.ProductID,
		Qty:         qty,
		Reason:      reason,
		Direction:   dir,
		OccurredAt:  l.now,
		CreatedBy:   actor,
	}
}

// AdjustInput deltas firmados sobre una clave.
type AdjustInput struct {
	WarehouseID   string
	ProductID     string
	DeltaOnHand   int64
	DeltaReserved int64
	Reason        string
	Actor         string
}

// CreateStockInput alta explícita de una clave.
type CreateStockInput struct {
	WarehouseID string
	ProductID   string
	QtyOnHand   int64
	Thresholds  entity.StockThresholds
	Actor       string
}

// UpdateStockInput campos editables de un stock. QtyOnHand no es editable: solo cambia por
// movimientos o por Reset.
type UpdateStockInput struct {
	QtyReserved  *int64
	SafetyStock  *int64
	ReorderPoint *int64
	MinQty       *int64
}

// StockQuery filtro y página para listar stock.
type StockQuery struct {
	Filter repository.StockFilter
	Page   PageParams
}

// StockPage resultado paginado de stock.
type StockPage struct {
	Items    []*entity.Stock
	Total    int
	Page     int
	PageSize int
}

// StockLedger saldo por (bodega, producto). Toda mutación corre en una transacción corta con la
// clave bloqueada y deja el diario conciliado con el saldo.
type StockLedger struct {
	txRunner  TxRunner
	stocks    repository.StockRepository
	stats     repository.StatsRepository
	validator *MovementValidator
	journal   *MovementJournal
	events    EventPublisher
	clock     Clock
	log       *logger.Logger
}

// NewStockLedger construye el libro. events puede ser nil.
func NewStockLedger(
	txRunner TxRunner,
	stocks repository.StockRepository,
	stats repository.StatsRepository,
	validator *MovementValidator,
	journal *MovementJournal,
	events EventPublisher,
	clock Clock,
	log *logger.Logger,
) *StockLedger {
	return &StockLedger{
		txRunner:  txRunner,
		stocks:    stocks,
		stats:     stats,
		validator: validator,
		journal:   journal,
		events:    events,
		clock:     clock,
		log:       log.Named("stock_ledger"),
	}
}

// GetOrCreate devuelve el stock de la clave, creándolo en cero con los umbrales dados si no existe.
func (l *StockLedger) GetOrCreate(ctx context.Context, warehouseID, productID string, th entity.StockThresholds) (*entity.Stock, error) {
	if err := l.validator.checkMasterData(ctx, warehouseID, productID); err != nil {
		return nil, err
	}
	if err := validateThresholds(th); err != nil {
		return nil, err
	}
	var out *entity.Stock
	err := l.txRunner.Run(ctx, func(stockRepo repository.StockRepository, _ repository.StockMovementRepository) error {
		s, _, err := stockRepo.GetOrCreateForUpdate(ctx, &entity.Stock{
			WarehouseID:  warehouseID,
			ProductID:    productID,
			SafetyStock:  th.SafetyStock,
			ReorderPoint: th.ReorderPoint,
			MinQty:       th.MinQty,
		})
		if err != nil {
			return fmt.Errorf("get or create stock: %w", err)
		}
		out = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Adjust aplica deltas firmados de forma atómica. Un cambio de on hand queda en el diario como ADJUST.
func (l *StockLedger) Adjust(ctx context.Context, in AdjustInput) (*entity.Stock, error) {
	if in.DeltaOnHand == 0 && in.DeltaReserved == 0 {
		return nil, fmt.Errorf("%w: ajuste sin cambios", domain.ErrInvalidInput)
	}
	if in.DeltaOnHand != 0 && in.Actor == "" {
		return nil, fieldErr(domain.ErrInvalidInput, "createdBy es obligatorio", FieldCreatedBy)
	}
	if err := l.validator.checkMasterData(ctx, in.WarehouseID, in.ProductID); err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = reasonAdjust
	}

	now := l.clock.now()
	var (
		out *entity.Stock
		mov *entity.StockMovement
	)
	err := l.txRunner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		lt := newLedgerTx(stockRepo, movRepo, now)
		mov = nil
		s, err := lt.lock(ctx, entity.StockKey{WarehouseID: in.WarehouseID, ProductID: in.ProductID})
		if err != nil {
			return err
		}
		if err := lt.apply(ctx, s, in.DeltaOnHand, in.DeltaReserved); err != nil {
			return err
		}
		if in.DeltaOnHand != 0 {
			mov = lt.adjustment(s, in.DeltaOnHand, reason, in.Actor)
			if err := l.journal.Append(ctx, movRepo, mov, now); err != nil {
				return err
			}
		}
		out = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mov != nil {
		publishCommitted(ctx, l.events, l.log, EventMovementCreated, mov, now, out)
	}
	return out, nil
}

// Reset fija on hand a una cantidad contada y libera toda la reserva. Omite las reglas de
// movimiento (operación privilegiada) pero registra la diferencia como ADJUST.
func (l *StockLedger) Reset(ctx context.Context, id string, qtyOnHand int64, actor string) (*entity.Stock, error) {
	if qtyOnHand < 0 {
		return nil, fmt.Errorf("%w: la cantidad contada no puede ser negativa", domain.ErrInvalidInput)
	}
	if actor == "" {
		return nil, fieldErr(domain.ErrInvalidInput, "createdBy es obligatorio", FieldCreatedBy)
	}
	current, err := l.stocks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := l.clock.now()
	var (
		out *entity.Stock
		mov *entity.StockMovement
	)
	err = l.txRunner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		lt := newLedgerTx(stockRepo, movRepo, now)
		mov = nil
		s, err := stockRepo.GetForUpdate(ctx, current.WarehouseID, current.ProductID)
		if err != nil {
			return err
		}
		diff := qtyOnHand - s.QtyOnHand
		s.QtyOnHand = qtyOnHand
		s.QtyReserved = 0
		s.UpdatedAt = lt.now
		if err := stockRepo.Update(ctx, s); err != nil {
			return fmt.Errorf("reset stock: %w", err)
		}
		if diff != 0 {
			mov = lt.adjustment(s, diff, reasonReset, actor)
			if err := l.journal.Append(ctx, movRepo, mov, now); err != nil {
				return err
			}
		}
		out = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("stock_id", id).Int64("qty_on_hand", qtyOnHand).Str("actor", actor).Msg("stock reiniciado")
	if mov != nil {
		publishCommitted(ctx, l.events, l.log, EventMovementCreated, mov, now, out)
	}
	return out, nil
}

// Delete elimina la clave. Conflict si algún movimiento la referencia.
func (l *StockLedger) Delete(ctx context.Context, id string) error {
	current, err := l.stocks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return l.txRunner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		s, err := stockRepo.GetForUpdate(ctx, current.WarehouseID, current.ProductID)
		if err != nil {
			return err
		}
		n, err := movRepo.CountByKey(ctx, s.WarehouseID, s.ProductID)
		if err != nil {
			return fmt.Errorf("count movements: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d movimientos referencian el stock", domain.ErrConflict, n)
		}
		return stockRepo.Delete(ctx, s.ID)
	})
}

// CreateStock da de alta una clave. Conflict si ya existe. Un saldo inicial positivo se registra como ADJUST.
func (l *StockLedger) CreateStock(ctx context.Context, in CreateStockInput) (*entity.Stock, error) {
	if err := l.validator.checkMasterData(ctx, in.WarehouseID, in.ProductID); err != nil {
		return nil, err
	}
	if in.QtyOnHand < 0 {
		return nil, fmt.Errorf("%w: qtyOnHand no puede ser negativo", domain.ErrInvalidInput)
	}
	if err := validateThresholds(in.Thresholds); err != nil {
		return nil, err
	}
	if in.QtyOnHand > 0 && in.Actor == "" {
		return nil, fieldErr(domain.ErrInvalidInput, "createdBy es obligatorio", FieldCreatedBy)
	}

	now := l.clock.now()
	var (
		out *entity.Stock
		mov *entity.StockMovement
	)
	err := l.txRunner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		lt := newLedgerTx(stockRepo, movRepo, now)
		mov = nil
		s := &entity.Stock{
			ID:           uuid.NewString(),
			WarehouseID:  in.WarehouseID,
			ProductID:    in.ProductID,
			QtyOnHand:    in.QtyOnHand,
			SafetyStock:  in.Thresholds.SafetyStock,
			ReorderPoint: in.Thresholds.ReorderPoint,
			MinQty:       in.Thresholds.MinQty,
			CreatedAt:    lt.now,
			UpdatedAt:    lt.now,
		}
		if err := stockRepo.Create(ctx, s); err != nil {
			return err
		}
		if s.QtyOnHand > 0 {
			mov = lt.adjustment(s, s.QtyOnHand, reasonOpeningBalance, in.Actor)
			if err := l.journal.Append(ctx, movRepo, mov, now); err != nil {
				return err
			}
		}
		out = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mov != nil {
		publishCommitted(ctx, l.events, l.log, EventMovementCreated, mov, now, out)
	}
	return l.withNames(ctx, out), nil
}

// UpdateStock modifica umbrales y/o reserva. La reserva pasa por las mismas reglas que Adjust.
func (l *StockLedger) UpdateStock(ctx context.Context, id string, in UpdateStockInput) (*entity.Stock, error) {
	if in.QtyReserved == nil && in.SafetyStock == nil && in.ReorderPoint == nil && in.MinQty == nil {
		return nil, fmt.Errorf("%w: no hay campos para actualizar", domain.ErrInvalidInput)
	}
	for _, p := range []*int64{in.QtyReserved, in.SafetyStock, in.ReorderPoint, in.MinQty} {
		if p != nil && *p < 0 {
			return nil, fmt.Errorf("%w: los valores no pueden ser negativos", domain.ErrInvalidInput)
		}
	}
	current, err := l.stocks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := l.clock.now()
	var out *entity.Stock
	err = l.txRunner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		lt := newLedgerTx(stockRepo, movRepo, now)
		s, err := stockRepo.GetForUpdate(ctx, current.WarehouseID, current.ProductID)
		if err != nil {
			return err
		}
		if in.SafetyStock != nil {
			s.SafetyStock = *in.SafetyStock
		}
		if in.ReorderPoint != nil {
			s.ReorderPoint = *in.ReorderPoint
		}
		if in.MinQty != nil {
			s.MinQty = *in.MinQty
		}
		if in.QtyReserved != nil {
			if err := lt.apply(ctx, s, 0, *in.QtyReserved-s.QtyReserved); err != nil {
				return err
			}
		} else {
			s.UpdatedAt = lt.now
			if err := stockRepo.Update(ctx, s); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}
		out = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.withNames(ctx, out), nil
}

// GetStock devuelve un stock por ID.
func (l *StockLedger) GetStock(ctx context.Context, id string) (*entity.Stock, error) {
	return l.stocks.GetByID(ctx, id)
}

// ListStocks lista stock paginado.
func (l *StockLedger) ListStocks(ctx context.Context, q StockQuery) (*StockPage, error) {
	page, err := q.Page.normalize()
	if err != nil {
		return nil, err
	}
	limit, offset := page.limitOffset()
	items, total, err := l.stocks.List(ctx, q.Filter, limit, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entity.Stock{}
	}
	return &StockPage{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// ListLowStock stock con QtyOnHand <= SafetyStock o QtyOnHand <= ReorderPoint.
func (l *StockLedger) ListLowStock(ctx context.Context, q StockQuery) (*StockPage, error) {
	q.Filter.LowOnly = true
	return l.ListStocks(ctx, q)
}

// Summary resumen de saldo por bodega y producto.
func (l *StockLedger) Summary(ctx context.Context) (*entity.StockSummary, error) {
	return l.stats.StockSummary(ctx)
}

// withNames recarga el stock para devolverlo con los nombres de bodega y producto.
func (l *StockLedger) withNames(ctx context.Context, s *entity.Stock) *entity.Stock {
	full, err := l.stocks.GetByID(ctx, s.ID)
	if err != nil {
		return s
	}
	return full
}

func validateThresholds(th entity.StockThresholds) error {
	if th.SafetyStock < 0 || th.ReorderPoint < 0 || th.MinQty < 0 {
		return fmt.Errorf("%w: los umbrales no pueden ser negativos", domain.ErrInvalidInput)
	}
	return nil
}
