package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMovementRequest body para POST /api/inventory/movements.
// occurredAt vacío toma la hora del servidor; createdBy sale del token.
type CreateMovementRequest struct {
	Type          string           `json:"type" validate:"required"`
	RefType       string           `json:"refType,omitempty"`
	RefID         string           `json:"refId,omitempty" validate:"max=100"`
	WarehouseID   string           `json:"warehouseId" validate:"required"`
	WarehouseToID string           `json:"warehouseToId,omitempty"`
	ProductID     string           `json:"productId" validate:"required"`
	Qty           int64            `json:"qty"`
	UnitCost      *decimal.Decimal `json:"unitCost,omitempty"`
	Reason        string           `json:"reason,omitempty" validate:"max=500"`
	Direction     string           `json:"direction,omitempty"`
	OccurredAt    *time.Time       `json:"occurredAt,omitempty"`
}

// UpdateMovementRequest body para PATCH /api/inventory/movements/:id.
// Solo reason es editable; cualquier otro campo presente se rechaza.
type UpdateMovementRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`

	Type          *string          `json:"type"`
	RefType       *string          `json:"refType"`
	RefID         *string          `json:"refId"`
	WarehouseID   *string          `json:"warehouseId"`
	WarehouseToID *string          `json:"warehouseToId"`
	ProductID     *string          `json:"productId"`
	Qty           *int64           `json:"qty"`
	UnitCost      *decimal.Decimal `json:"unitCost"`
	Direction     *string          `json:"direction"`
	OccurredAt    *string          `json:"occurredAt"`
}

// ListMovementsQuery query string de GET /api/inventory/movements (y export/stats).
// from/to aceptan RFC3339 o 2006-01-02.
type ListMovementsQuery struct {
	Page          int    `json:"page" query:"page" validate:"min=0"`
	PageSize      int    `json:"pageSize" query:"pageSize" validate:"min=0,max=100"`
	Type          string `json:"type" query:"type"`
	RefType       string `json:"refType" query:"refType"`
	RefID         string `json:"refId" query:"refId"`
	WarehouseID   string `json:"warehouseId" query:"warehouseId"`
	WarehouseToID string `json:"warehouseToId" query:"warehouseToId"`
	ProductID     string `json:"productId" query:"productId"`
	CreatedBy     string `json:"createdBy" query:"createdBy"`
	From          string `json:"from" query:"from"`
	To            string `json:"to" query:"to"`
	Search        string `json:"search" query:"search" validate:"max=200"`
}

// MovementResponse movimiento del diario.
type MovementResponse struct {
	ID              string           `json:"id"`
	Type            string           `json:"type"`
	RefType         string           `json:"refType,omitempty"`
	RefID           string           `json:"refId,omitempty"`
	WarehouseID     string           `json:"warehouseId"`
	WarehouseName   string           `json:"warehouseName,omitempty"`
	WarehouseToID   string           `json:"warehouseToId,omitempty"`
	WarehouseToName string           `json:"warehouseToName,omitempty"`
	ProductID       string           `json:"productId"`
	ProductName     string           `json:"productName,omitempty"`
	ProductCode     string           `json:"productCode,omitempty"`
	Qty             int64            `json:"qty"`
	UnitCost        *decimal.Decimal `json:"unitCost,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	Direction       string           `json:"direction,omitempty"`
	OccurredAt      time.Time        `json:"occurredAt"`
	CreatedBy       string           `json:"createdBy"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// MovementPageResponse página del diario.
type MovementPageResponse struct {
	PageResponse
	Items []MovementResponse `json:"items"`
}

// BulkImportRequest body para POST /api/inventory/movements/bulk. Cada fila trae las celdas en el
// orden de la plantilla: Type, RefType, RefId, WarehouseId, WarehouseToId, ProductId, Qty,
// UnitCost, Reason, OccurredAt, CreatedBy, Direction. CreatedBy vacío toma el usuario del token.
type BulkImportRequest struct {
	Rows [][]string `json:"rows" validate:"required,min=1"`
}

// InvalidRowResponse fila rechazada en una importación.
type InvalidRowResponse struct {
	RowIndex   int      `json:"rowIndex"`
	ErrorCells []int    `json:"errorCells"`
	Message    string   `json:"message"`
	CellValues []string `json:"cellValues"`
}

// ImportResultResponse resultado de una importación (200 si todas las filas entraron, 207 si no).
type ImportResultResponse struct {
	InsertedCount int                  `json:"insertedCount"`
	InvalidRows   []InvalidRowResponse `json:"invalidRows"`
}

// StatsQuery query string de GET /api/inventory/movements/stats.
type StatsQuery struct {
	From        string `json:"from" query:"from"`
	To          string `json:"to" query:"to"`
	WarehouseID string `json:"warehouseId" query:"warehouseId"`
	ProductID   string `json:"productId" query:"productId"`
	Type        string `json:"type" query:"type"`
}

// TypeStatsResponse totales por tipo.
type TypeStatsResponse struct {
	Type       string          `json:"type"`
	Count      int64           `json:"count"`
	TotalQty   int64           `json:"totalQty"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

// WarehouseStatsResponse conteos por bodega.
type WarehouseStatsResponse struct {
	WarehouseID      string          `json:"warehouseId"`
	WarehouseName    string          `json:"warehouseName"`
	InCount          int64           `json:"inCount"`
	OutCount         int64           `json:"outCount"`
	TransferInCount  int64           `json:"transferInCount"`
	TransferOutCount int64           `json:"transferOutCount"`
	TotalValue       decimal.Decimal `json:"totalValue"`
}

// ProductStatsResponse cantidades por producto.
type ProductStatsResponse struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	TotalIn       int64           `json:"totalIn"`
	TotalOut      int64           `json:"totalOut"`
	TotalTransfer int64           `json:"totalTransfer"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

// DateStatsResponse serie diaria.
type DateStatsResponse struct {
	Date          string          `json:"date"`
	InCount       int64           `json:"inCount"`
	OutCount      int64           `json:"outCount"`
	TransferCount int64           `json:"transferCount"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

// StatsResponse agregados del diario más stock bajo.
type StatsResponse struct {
	TotalMovements    int64                    `json:"totalMovements"`
	InMovements       int64                    `json:"inMovements"`
	OutMovements      int64                    `json:"outMovements"`
	TransferMovements int64                    `json:"transferMovements"`
	TotalValue        decimal.Decimal          `json:"totalValue"`
	ByType            []TypeStatsResponse      `json:"byType"`
	ByWarehouse       []WarehouseStatsResponse `json:"byWarehouse"`
	ByProduct         []ProductStatsResponse   `json:"byProduct"`
	ByDate            []DateStatsResponse      `json:"byDate"`
	LowStock          []StockResponse          `json:"lowStock"`
}
