package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/validation"
)

// StockHandler maneja las peticiones HTTP de saldos (protegido).
type StockHandler struct {
	ledger        *inventory.StockLedger
	replenishment *inventory.ReplenishmentUseCase
	reconcile     *inventory.ReconcileUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.StockLedger, replenishment *inventory.ReplenishmentUseCase, reconcile *inventory.ReconcileUseCase) *StockHandler {
	return &StockHandler{ledger: ledger, replenishment: replenishment, reconcile: reconcile}
}

// Create godoc
// @Summary      Alta de stock
// @Description  Crea la clave (bodega, producto). Un saldo inicial positivo queda en el diario como ADJUST.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockRequest  true  "warehouseId, productId, qtyOnHand y umbrales"
// @Success      201   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks [post]
func (h *StockHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validation.Struct(in); err != nil {
		return writeError(c, err)
	}
	s, err := h.ledger.CreateStock(c.Context(), inventory.CreateStockInput{
		WarehouseID: in.WarehouseID,
		ProductID:   in.ProductID,
		QtyOnHand:   in.QtyOnHand,
		Thresholds: entity.StockThresholds{
			SafetyStock:  in.SafetyStock,
			ReorderPoint: in.ReorderPoint,
			MinQty:       in.MinQty,
		},
		Actor: GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockResponse(s))
}

// List godoc
// @Summary      Listar stock
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  query  string  false  "Bodega"
// @Param        productId    query  string  false  "Producto"
// @Param        search       query  string  false  "Nombre de bodega o producto"
// @Param        page         query  int     false  "Página (base 1)"
// @Param        pageSize     query  int     false  "Tamaño de página (máx. 100)"
// @Success      200  {object}  dto.StockPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	return h.list(c, false)
}

// ListLow godoc
// @Summary      Stock bajo
// @Description  Claves con qtyOnHand <= safetyStock o qtyOnHand <= reorderPoint.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  query  string  false  "Bodega"
// @Param        page         query  int     false  "Página (base 1)"
// @Param        pageSize     query  int     false  "Tamaño de página (máx. 100)"
// @Success      200  {object}  dto.StockPageResponse
// @Router       /api/inventory/stocks/low [get]
func (h *StockHandler) ListLow(c *fiber.Ctx) error {
	return h.list(c, true)
}

func (h *StockHandler) list(c *fiber.Ctx, lowOnly bool) error {
	var in dto.ListStocksQuery
	if err := c.QueryParser(&in); err != nil {
		return writeError(c, invalidQuery(err))
	}
	if err := validation.Struct(in); err != nil {
		return writeError(c, err)
	}
	q := inventory.StockQuery{
		Filter: repository.StockFilter{WarehouseID: in.WarehouseID, ProductID: in.ProductID, Search: in.Search},
		Page:   inventory.PageParams{Page: in.Page, PageSize: in.PageSize},
	}
	var (
		page *inventory.StockPage
		err  error
	)
	if lowOnly {
		page, err = h.ledger.ListLowStock(c.Context(), q)
	} else {
		page, err = h.ledger.ListStocks(c.Context(), q)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockPageResponse{
		PageResponse: dto.PageResponse{Total: page.Total, Page: page.Page, PageSize: page.PageSize},
		Items:        toStockResponses(page.Items),
	})
}

// Summary godoc
// @Summary      Resumen de stock
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryResponse
// @Router       /api/inventory/stocks/summary [get]
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	s, err := h.ledger.Summary(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSummaryResponse(s))
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  Claves en stock bajo con la cantidad sugerida de pedido, la más urgente primero.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  query  string  false  "Filtrar por bodega. Vacío = todas."
// @Success      200  {object}  dto.ReplenishmentResponse
// @Router       /api/inventory/stocks/replenishment [get]
func (h *StockHandler) Replenishment(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.Context(), c.Query("warehouseId"))
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ReplenishmentResponse{
		Total:          len(list),
		Replenishments: make([]dto.ReplenishmentSuggestionResponse, 0, len(list)),
	}
	for _, s := range list {
		out.Replenishments = append(out.Replenishments, dto.ReplenishmentSuggestionResponse{
			Stock:             toStockResponse(s.Stock),
			IdealStock:        s.IdealStock,
			SuggestedOrderQty: s.SuggestedOrderQty,
			Priority:          s.Priority,
		})
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Ajustar stock por deltas
// @Description  Aplica deltas con signo sobre qtyOnHand y qtyReserved. El cambio de qtyOnHand queda en el diario.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "Deltas"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validation.Struct(in); err != nil {
		return writeError(c, err)
	}
	s, err := h.ledger.Adjust(c.Context(), inventory.AdjustInput{
		WarehouseID:   in.WarehouseID,
		ProductID:     in.ProductID,
		DeltaOnHand:   in.DeltaOnHand,
		DeltaReserved: in.DeltaReserved,
		Reason:        in.Reason,
		Actor:         GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(s))
}

// GetByID godoc
// @Summary      Obtener stock por ID
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del stock"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	s, err := h.ledger.GetStock(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(s))
}

// Update godoc
// @Summary      Editar reserva y umbrales
// @Description  qtyOnHand no es editable: usar movimientos o reset.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del stock"
// @Param        body  body  dto.UpdateStockRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id} [put]
func (h *StockHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.QtyOnHand != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "INVALID_INPUT",
			Message: "qtyOnHand no es editable; use movimientos o reset",
			Fields:  []string{"qtyOnHand"},
		})
	}
	if err := validation.Struct(in); err != nil {
		return writeError(c, err)
	}
	s, err := h.ledger.UpdateStock(c.Context(), c.Params("id"), inventory.UpdateStockInput{
		QtyReserved:  in.QtyReserved,
		SafetyStock:  in.SafetyStock,
		ReorderPoint: in.ReorderPoint,
		MinQty:       in.MinQty,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(s))
}

// Delete godoc
// @Summary      Eliminar stock
// @Description  Solo admin o bodeguero. Falla con 409 si algún movimiento referencia la clave.
// @Tags         stocks
// @Security     Bearer
// @Param        id   path  string  true  "ID del stock"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if err := h.ledger.Delete(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reset godoc
// @Summary      Reiniciar stock a un conteo físico
// @Description  Solo admin o bodeguero. Fija qtyOnHand, libera la reserva y registra la diferencia como ADJUST.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del stock"
// @Param        body  body  dto.ResetStockRequest  true  "qtyOnHand contado"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id}/reset [post]
func (h *StockHandler) Reset(c *fiber.Ctx) error {
	var in dto.ResetStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validation.Struct(in); err != nil {
		return writeError(c, err)
	}
	s, err := h.ledger.Reset(c.Context(), c.Params("id"), *in.QtyOnHand, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(s))
}

// Reconcile godoc
// @Summary      Conciliar libro y diario
// @Description  Recalcula qtyOnHand de cada clave desde el diario y devuelve las claves desalineadas.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/inventory/reconcile [get]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	drifts, err := h.reconcile.Reconcile(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ReconcileResponse{Consistent: len(drifts) == 0, Drifts: make([]dto.DriftResponse, 0, len(drifts))}
	for _, d := range drifts {
		out.Drifts = append(out.Drifts, dto.DriftResponse(d))
	}
	return c.JSON(out)
}
