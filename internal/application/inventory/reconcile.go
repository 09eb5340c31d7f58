package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Drift clave cuyo saldo no coincide con la suma firmada de sus movimientos.
type Drift struct {
	WarehouseID   string
	ProductID     string
	StockOnHand   int64
	JournalOnHand int64
	MissingStock  bool // hay movimientos pero no fila de stock
}

// ReconcileUseCase recalcula el saldo de cada clave desde el diario y lo compara con el stock.
type ReconcileUseCase struct {
	stats repository.StatsRepository
	log   *logger.Logger
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(stats repository.StatsRepository, log *logger.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{stats: stats, log: log.Named("reconcile")}
}

// Reconcile devuelve las claves desalineadas (vacío si todo cuadra), ordenadas por clave.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context) ([]Drift, error) {
	balances, err := uc.stats.Balances(ctx)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}
	drifts := []Drift{}
	for _, b := range balances {
		if d, ok := driftOf(b); ok {
			drifts = append(drifts, d)
		}
	}
	sort.Slice(drifts, func(i, j int) bool {
		ki := entity.StockKey{WarehouseID: drifts[i].WarehouseID, ProductID: drifts[i].ProductID}
		kj := entity.StockKey{WarehouseID: drifts[j].WarehouseID, ProductID: drifts[j].ProductID}
		return ki.Less(kj)
	})
	if len(drifts) > 0 {
		uc.log.Warn().Int("drifts", len(drifts)).Int("keys", len(balances)).Msg("libro desalineado con el diario")
	} else {
		uc.log.Info().Int("keys", len(balances)).Msg("libro conciliado")
	}
	return drifts, nil
}

func driftOf(b entity.KeyBalance) (Drift, bool) {
	d := Drift{WarehouseID: b.WarehouseID, ProductID: b.ProductID, JournalOnHand: b.JournalOnHand}
	if b.StockOnHand == nil {
		d.MissingStock = true
		return d, b.JournalOnHand != 0
	}
	d.StockOnHand = *b.StockOnHand
	return d, d.StockOnHand != d.JournalOnHand
}
