package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// UpdateMovementInput campos de un PATCH. Solo Reason es editable; cualquier otro campo presente
// se rechaza con ErrInvalidInput (las correcciones se hacen con movimientos compensatorios).
type UpdateMovementInput struct {
	Reason *string

	Type          *string
	RefType       *string
	RefID         *string
	WarehouseID   *string
	WarehouseToID *string
	ProductID     *string
	Qty           *int64
	UnitCost      *string
	Direction     *string
	OccurredAt    *string
}

func (in UpdateMovementInput) immutableFields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(in.Type != nil, FieldType)
	add(in.RefType != nil, FieldRefType)
	add(in.RefID != nil, FieldRefID)
	add(in.WarehouseID != nil, FieldWarehouseID)
	add(in.WarehouseToID != nil, FieldWarehouseToID)
	add(in.ProductID != nil, FieldProductID)
	add(in.Qty != nil, FieldQty)
	add(in.UnitCost != nil, FieldUnitCost)
	add(in.Direction != nil, FieldDirection)
	add(in.OccurredAt != nil, FieldOccurredAt)
	return out
}

// RegisterMovementUseCase superficie de movimientos: alta, edición de metadatos, baja,
// consultas e importación masiva. Cada alta valida, bloquea, muta el libro y escribe el diario
// en una sola transacción.
type RegisterMovementUseCase struct {
	txRunner      TxRunner
	validator     *MovementValidator
	transfers     *TransferCoordinator
	journal       *MovementJournal
	events        EventPublisher
	clock         Clock
	log           *logger.Logger
	importMaxRows int
}

// NewRegisterMovementUseCase construye el caso de uso. events puede ser nil.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	validator *MovementValidator,
	transfers *TransferCoordinator,
	journal *MovementJournal,
	events EventPublisher,
	clock Clock,
	log *logger.Logger,
	importMaxRows int,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:      txRunner,
		validator:     validator,
		transfers:     transfers,
		journal:       journal,
		events:        events,
		clock:         clock,
		log:           log.Named("movements"),
		importMaxRows: importMaxRows,
	}
}

// CreateMovement valida y registra un movimiento. En error no hay efectos observables.
func (uc *RegisterMovementUseCase) CreateMovement(ctx context.Context, req MovementRequest) (*entity.StockMovement, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := uc.validator.Validate(ctx, req); err != nil {
		return nil, err
	}

	now := uc.clock.now()
	var (
		mov     *entity.StockMovement
		touched []*entity.Stock
	)
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		lt := newLedgerTx(stockRepo, movRepo, now)
		var err error
		if req.Type == entity.MovementTypeTransfer {
			mov, touched, err = uc.transfers.Transfer(ctx, lt, req)
		} else {
			mov, touched, err = uc.applySingle(ctx, lt, req)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug().
		Str("movement_id", mov.ID).
		Str("type", string(mov.Type)).
		Str("warehouse_id", mov.WarehouseID).
		Str("product_id", mov.ProductID).
		Int64("qty", mov.Qty).
		Msg("movimiento registrado")
	publishCommitted(ctx, uc.events, uc.log, EventMovementCreated, mov, now, touched...)
	return mov, nil
}

func (uc *RegisterMovementUseCase) applySingle(ctx context.Context, lt *ledgerTx, req MovementRequest) (*entity.StockMovement, []*entity.Stock, error) {
	s, err := lt.lock(ctx, req.sourceKey())
	if err != nil {
		return nil, nil, err
	}
	if err := uc.validator.ValidateLocked(ctx, req, s); err != nil {
		return nil, nil, err
	}
	m := req.movement()
	if err := lt.apply(ctx, s, domaininv.SourceDelta(m.Type, m.Direction, m.Qty), 0); err != nil {
		return nil, nil, err
	}
	if err := uc.journal.Append(ctx, lt.movements, m, lt.now); err != nil {
		return nil, nil, err
	}
	return m, []*entity.Stock{s.Clone()}, nil
}

// GetMovement devuelve un movimiento por ID.
func (uc *RegisterMovementUseCase) GetMovement(ctx context.Context, id string) (*entity.StockMovement, error) {
	return uc.journal.Get(ctx, id)
}

// ListMovements consulta paginada del diario.
func (uc *RegisterMovementUseCase) ListMovements(ctx context.Context, q MovementQuery) (*MovementPage, error) {
	return uc.journal.List(ctx, q)
}

// UpdateMovement edita el motivo de un movimiento.
func (uc *RegisterMovementUseCase) UpdateMovement(ctx context.Context, id string, in UpdateMovementInput) (*entity.StockMovement, error) {
	if fields := in.immutableFields(); len(fields) > 0 {
		return nil, fieldErr(domain.ErrInvalidInput,
			"campos inmutables: "+strings.Join(fields, ", ")+"; registre un movimiento compensatorio", fields...)
	}
	if in.Reason == nil {
		return nil, fmt.Errorf("%w: no hay campos para actualizar", domain.ErrInvalidInput)
	}
	reason := strings.TrimSpace(*in.Reason)
	err := uc.txRunner.Run(ctx, func(_ repository.StockRepository, movRepo repository.StockMovementRepository) error {
		if _, err := movRepo.GetByID(ctx, id); err != nil {
			return err
		}
		return movRepo.UpdateReason(ctx, id, reason)
	})
	if err != nil {
		return nil, err
	}
	return uc.journal.Get(ctx, id)
}

// DeleteMovement elimina un movimiento manual revirtiendo su efecto en el libro en la misma transacción.
// Conflict si el movimiento nace de un documento (RefType/RefID).
func (uc *RegisterMovementUseCase) DeleteMovement(ctx context.Context, id string) error {
	now := uc.clock.now()
	var (
		deleted *entity.StockMovement
		touched []*entity.Stock
	)
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		lt := newLedgerTx(stockRepo, movRepo, now)
		touched = nil
		m, err := movRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if m.HasReference() {
			return fmt.Errorf("%w: el movimiento pertenece al documento %s %s", domain.ErrConflict, m.RefType, m.RefID)
		}

		effects := domaininv.Effects(m)
		sort.Slice(effects, func(i, j int) bool { return effects[i].Key.Less(effects[j].Key) })
		for _, e := range effects {
			s, err := stockRepo.GetForUpdate(ctx, e.Key.WarehouseID, e.Key.ProductID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("%w: stock de la clave no existe", domain.ErrConflict)
				}
				return err
			}
			if err := lt.apply(ctx, s, -e.Delta, 0); err != nil {
				return err
			}
			touched = append(touched, s.Clone())
		}
		if err := movRepo.Delete(ctx, id); err != nil {
			return err
		}
		deleted = m
		return nil
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("movement_id", id).Str("type", string(deleted.Type)).Msg("movimiento eliminado y revertido")
	publishCommitted(ctx, uc.events, uc.log, EventMovementDeleted, deleted, now, touched...)
	return nil
}
