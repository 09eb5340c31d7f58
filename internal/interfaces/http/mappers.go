package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var queryTimeLayouts = []string{time.RFC3339Nano, "2006-01-02"}

// parseQueryTime acepta RFC3339 o fecha. Una fecha en "to" cubre el día completo.
func parseQueryTime(v, field string, endOfDay bool) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range queryTimeLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" && endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		t = t.UTC()
		return &t, nil
	}
	return nil, &inventory.FieldError{
		Fields: []string{field},
		Err:    domain.ErrInvalidInput,
		Msg:    fmt.Sprintf("%s no es una fecha válida", field),
	}
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		Type:            string(m.Type),
		RefType:         string(m.RefType),
		RefID:           m.RefID,
		WarehouseID:     m.WarehouseID,
		WarehouseName:   m.WarehouseName,
		WarehouseToID:   m.WarehouseToID,
		WarehouseToName: m.WarehouseToName,
		ProductID:       m.ProductID,
		ProductName:     m.ProductName,
		ProductCode:     m.ProductCode,
		Qty:             m.Qty,
		UnitCost:        m.UnitCost,
		Reason:          m.Reason,
		Direction:       string(m.Direction),
		OccurredAt:      m.OccurredAt,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

func toStockResponse(s *entity.Stock) dto.StockResponse {
	return dto.StockResponse{
		ID:            s.ID,
		WarehouseID:   s.WarehouseID,
		WarehouseName: s.WarehouseName,
		ProductID:     s.ProductID,
		ProductName:   s.ProductName,
		QtyOnHand:     s.QtyOnHand,
		QtyReserved:   s.QtyReserved,
		Available:     s.Available(),
		SafetyStock:   s.SafetyStock,
		ReorderPoint:  s.ReorderPoint,
		MinQty:        s.MinQty,
		Low:           s.IsLow(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toStockResponses(items []*entity.Stock) []dto.StockResponse {
	out := make([]dto.StockResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toStockResponse(s))
	}
	return out
}

func toStatsResponse(r *inventory.StatsResult) dto.StatsResponse {
	out := dto.StatsResponse{
		TotalMovements:    r.TotalMovements,
		InMovements:       r.InMovements,
		OutMovements:      r.OutMovements,
		TransferMovements: r.TransferMovements,
		TotalValue:        r.TotalValue,
		ByType:            make([]dto.TypeStatsResponse, 0, len(r.ByType)),
		ByWarehouse:       make([]dto.WarehouseStatsResponse, 0, len(r.ByWarehouse)),
		ByProduct:         make([]dto.ProductStatsResponse, 0, len(r.ByProduct)),
		ByDate:            make([]dto.DateStatsResponse, 0, len(r.ByDate)),
		LowStock:          toStockResponses(r.LowStock),
	}
	for _, t := range r.ByType {
		out.ByType = append(out.ByType, dto.TypeStatsResponse{
			Type: string(t.Type), Count: t.Count, TotalQty: t.TotalQty, TotalValue: t.TotalValue,
		})
	}
	for _, w := range r.ByWarehouse {
		out.ByWarehouse = append(out.ByWarehouse, dto.WarehouseStatsResponse(w))
	}
	for _, p := range r.ByProduct {
		out.ByProduct = append(out.ByProduct, dto.ProductStatsResponse(p))
	}
	for _, d := range r.ByDate {
		out.ByDate = append(out.ByDate, dto.DateStatsResponse(d))
	}
	return out
}

func toSummaryResponse(s *entity.StockSummary) dto.StockSummaryResponse {
	out := dto.StockSummaryResponse{
		TotalProducts:    s.TotalProducts,
		TotalStock:       s.TotalStock,
		TotalReserved:    s.TotalReserved,
		LowStockProducts: s.LowStockProducts,
		WarehouseCount:   s.WarehouseCount,
		ByWarehouse:      make([]dto.WarehouseStockSummaryResponse, 0, len(s.ByWarehouse)),
		ByProduct:        make([]dto.ProductStockSummaryResponse, 0, len(s.ByProduct)),
	}
	for _, w := range s.ByWarehouse {
		out.ByWarehouse = append(out.ByWarehouse, dto.WarehouseStockSummaryResponse(w))
	}
	for _, p := range s.ByProduct {
		out.ByProduct = append(out.ByProduct, dto.ProductStockSummaryResponse(p))
	}
	return out
}

func toImportResponse(r *inventory.ImportResult) dto.ImportResultResponse {
	out := dto.ImportResultResponse{
		InsertedCount: r.InsertedCount,
		InvalidRows:   make([]dto.InvalidRowResponse, 0, len(r.InvalidRows)),
	}
	for _, row := range r.InvalidRows {
		if row.ErrorCells == nil {
			row.ErrorCells = []int{}
		}
		out.InvalidRows = append(out.InvalidRows, dto.InvalidRowResponse{
			RowIndex:   row.RowIndex,
			ErrorCells: row.ErrorCells,
			Message:    row.Message,
			CellValues: row.CellValues,
		})
	}
	return out
}
