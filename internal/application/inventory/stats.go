package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// lowStockLimit máximo de filas de stock bajo incluidas en GetStats.
const lowStockLimit = 100

// StatsResult agregados del diario más la vista de stock bajo.
type StatsResult struct {
	entity.MovementStats
	LowStock []*entity.Stock
}

// StatsAggregator reportes de solo lectura sobre el libro y el diario. Con caché configurada
// los resultados pueden tener hasta el TTL de antigüedad.
type StatsAggregator struct {
	stats  repository.StatsRepository
	stocks repository.StockRepository
	cache  StatsCache
	log    *logger.Logger
}

// NewStatsAggregator construye el agregador. cache puede ser nil.
func NewStatsAggregator(stats repository.StatsRepository, stocks repository.StockRepository, cache StatsCache, log *logger.Logger) *StatsAggregator {
	return &StatsAggregator{stats: stats, stocks: stocks, cache: cache, log: log.Named("stats")}
}

// GetStats agregados para el filtro. Un rango sin movimientos devuelve ceros y listas vacías.
func (a *StatsAggregator) GetStats(ctx context.Context, f repository.StatsFilter) (*StatsResult, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, fmt.Errorf("%w: el inicio del rango es posterior al fin", domain.ErrInvalidInput)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, fmt.Errorf("%w: tipo de movimiento desconocido %q", domain.ErrInvalidInput, f.Type)
	}

	key := statsCacheKey(f)
	if a.cache != nil {
		var cached StatsResult
		hit, err := a.cache.Get(ctx, key, &cached)
		if err != nil {
			a.log.Warn().Err(err).Str("key", key).Msg("lectura de caché fallida")
		} else if hit {
			return &cached, nil
		}
	}

	agg, err := a.stats.AggregateMovements(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("aggregate movements: %w", err)
	}
	low, _, err := a.stocks.List(ctx, repository.StockFilter{
		WarehouseID: f.WarehouseID,
		ProductID:   f.ProductID,
		LowOnly:     true,
	}, lowStockLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}

	res := &StatsResult{MovementStats: *agg, LowStock: low}
	normalizeStats(res)

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, res); err != nil {
			a.log.Warn().Err(err).Str("key", key).Msg("escritura de caché fallida")
		}
	}
	return res, nil
}

func normalizeStats(res *StatsResult) {
	if res.ByType == nil {
		res.ByType = []entity.TypeStats{}
	}
	if res.ByWarehouse == nil {
		res.ByWarehouse = []entity.WarehouseStats{}
	}
	if res.ByProduct == nil {
		res.ByProduct = []entity.ProductStats{}
	}
	if res.ByDate == nil {
		res.ByDate = []entity.DateStats{}
	}
	if res.LowStock == nil {
		res.LowStock = []*entity.Stock{}
	}
}

func statsCacheKey(f repository.StatsFilter) string {
	ts := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("ledger:stats:%s|%s|%s|%s|%s", ts(f.From), ts(f.To), f.WarehouseID, f.ProductID, f.Type)
}
