package dto

import "time"

// CreateStockRequest body para POST /api/inventory/stocks.
type CreateStockRequest struct {
	WarehouseID  string `json:"warehouseId" validate:"required"`
	ProductID    string `json:"productId" validate:"required"`
	QtyOnHand    int64  `json:"qtyOnHand" validate:"min=0"`
	SafetyStock  int64  `json:"safetyStock" validate:"min=0"`
	ReorderPoint int64  `json:"reorderPoint" validate:"min=0"`
	MinQty       int64  `json:"minQty" validate:"min=0"`
}

// UpdateStockRequest body para PUT /api/inventory/stocks/:id. qtyOnHand no es editable
// (usar movimientos o reset).
type UpdateStockRequest struct {
	QtyOnHand    *int64 `json:"qtyOnHand"`
	QtyReserved  *int64 `json:"qtyReserved" validate:"omitempty,min=0"`
	SafetyStock  *int64 `json:"safetyStock" validate:"omitempty,min=0"`
	ReorderPoint *int64 `json:"reorderPoint" validate:"omitempty,min=0"`
	MinQty       *int64 `json:"minQty" validate:"omitempty,min=0"`
}

// ResetStockRequest body para POST /api/inventory/stocks/:id/reset.
type ResetStockRequest struct {
	QtyOnHand *int64 `json:"qtyOnHand" validate:"required,min=0"`
}

// AdjustStockRequest body para POST /api/inventory/stocks/adjust. Deltas con signo.
type AdjustStockRequest struct {
	WarehouseID   string `json:"warehouseId" validate:"required"`
	ProductID     string `json:"productId" validate:"required"`
	DeltaOnHand   int64  `json:"deltaOnHand"`
	DeltaReserved int64  `json:"deltaReserved"`
	Reason        string `json:"reason" validate:"max=500"`
}

// ListStocksQuery query string de GET /api/inventory/stocks.
type ListStocksQuery struct {
	Page        int    `json:"page" query:"page" validate:"min=0"`
	PageSize    int    `json:"pageSize" query:"pageSize" validate:"min=0,max=100"`
	WarehouseID string `json:"warehouseId" query:"warehouseId"`
	ProductID   string `json:"productId" query:"productId"`
	Search      string `json:"search" query:"search" validate:"max=200"`
}

// StockResponse saldo de una clave.
type StockResponse struct {
	ID            string    `json:"id"`
	WarehouseID   string    `json:"warehouseId"`
	WarehouseName string    `json:"warehouseName,omitempty"`
	ProductID     string    `json:"productId"`
	ProductName   string    `json:"productName,omitempty"`
	QtyOnHand     int64     `json:"qtyOnHand"`
	QtyReserved   int64     `json:"qtyReserved"`
	Available     int64     `json:"available"`
	SafetyStock   int64     `json:"safetyStock"`
	ReorderPoint  int64     `json:"reorderPoint"`
	MinQty        int64     `json:"minQty"`
	Low           bool      `json:"low"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// StockPageResponse página de stock.
type StockPageResponse struct {
	PageResponse
	Items []StockResponse `json:"items"`
}

// WarehouseStockSummaryResponse saldo de una bodega.
type WarehouseStockSummaryResponse struct {
	WarehouseID   string `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`
	ProductCount  int64  `json:"productCount"`
	QtyOnHand     int64  `json:"qtyOnHand"`
	QtyReserved   int64  `json:"qtyReserved"`
}

// ProductStockSummaryResponse saldo de un producto en todas las bodegas.
type ProductStockSummaryResponse struct {
	ProductID      string `json:"productId"`
	ProductName    string `json:"productName"`
	WarehouseCount int64  `json:"warehouseCount"`
	QtyOnHand      int64  `json:"qtyOnHand"`
	QtyReserved    int64  `json:"qtyReserved"`
}

// StockSummaryResponse resumen de GET /api/inventory/stocks/summary.
type StockSummaryResponse struct {
	TotalProducts    int64                           `json:"totalProducts"`
	TotalStock       int64                           `json:"totalStock"`
	TotalReserved    int64                           `json:"totalReserved"`
	LowStockProducts int64                           `json:"lowStockProducts"`
	WarehouseCount   int64                           `json:"warehouseCount"`
	ByWarehouse      []WarehouseStockSummaryResponse `json:"byWarehouse"`
	ByProduct        []ProductStockSummaryResponse   `json:"byProduct"`
}

// ReplenishmentSuggestionResponse sugerencia de pedido para una clave bajo umbral.
type ReplenishmentSuggestionResponse struct {
	Stock             StockResponse `json:"stock"`
	IdealStock        int64         `json:"idealStock"`        // max(ReorderPoint * 1.5, SafetyStock, MinQty)
	SuggestedOrderQty int64         `json:"suggestedOrderQty"` // IdealStock - disponible
	Priority          int           `json:"priority"`          // 1 = más urgente
}

// ReplenishmentResponse lista de reposición.
type ReplenishmentResponse struct {
	Total          int                               `json:"total"`
	Replenishments []ReplenishmentSuggestionResponse `json:"replenishments"`
}

// DriftResponse clave desalineada con el diario.
type DriftResponse struct {
	WarehouseID   string `json:"warehouseId"`
	ProductID     string `json:"productId"`
	StockOnHand   int64  `json:"stockOnHand"`
	JournalOnHand int64  `json:"journalOnHand"`
	MissingStock  bool   `json:"missingStock"`
}

// ReconcileResponse resultado de GET /api/inventory/reconcile.
type ReconcileResponse struct {
	Consistent bool            `json:"consistent"`
	Drifts     []DriftResponse `json:"drifts"`
}
