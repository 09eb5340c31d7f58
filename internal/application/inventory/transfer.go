package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// TransferCoordinator ejecuta una TRANSFER como una sola unidad: bloquea origen y destino en orden,
// resta en origen, suma en destino y registra un único movimiento. Cualquier fallo deja ambas
// claves como estaban (la transacción completa se descarta).
type TransferCoordinator struct {
	validator *MovementValidator
	journal   *MovementJournal
}

// NewTransferCoordinator construye el coordinador.
func NewTransferCoordinator(validator *MovementValidator, journal *MovementJournal) *TransferCoordinator {
	return &TransferCoordinator{validator: validator, journal: journal}
}

// Transfer corre dentro de la transacción de lt. req ya pasó MovementValidator.Validate.
// Devuelve el movimiento y las filas de origen y destino tras la mutación.
func (tc *TransferCoordinator) Transfer(ctx context.Context, lt *ledgerTx, req MovementRequest) (*entity.StockMovement, []*entity.Stock, error) {
	srcKey, dstKey := req.sourceKey(), req.destinationKey()
	locked, err := lt.lockOrdered(ctx, srcKey, dstKey)
	if err != nil {
		return nil, nil, err
	}
	src, dst := locked[srcKey], locked[dstKey]

	if err := tc.validator.ValidateLocked(ctx, req, src); err != nil {
		return nil, nil, err
	}
	if err := lt.apply(ctx, src, -req.Qty, 0); err != nil {
		return nil, nil, err
	}
	if err := lt.apply(ctx, dst, req.Qty, 0); err != nil {
		return nil, nil, err
	}

	m := req.movement()
	if err := tc.journal.Append(ctx, lt.movements, m, lt.now); err != nil {
		return nil, nil, err
	}
	return m, []*entity.Stock{src.Clone(), dst.Clone()}, nil
}
