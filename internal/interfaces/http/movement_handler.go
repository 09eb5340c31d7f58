package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/xlsx"
	"github.com/jhoicas/inventario-ledger/pkg/validation"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportMaxRows   = 50000
)

// MovementHandler maneja las peticiones HTTP del diario de movimientos (protegido).
type MovementHandler struct {
	uc    *inventory.RegisterMovementUseCase
	stats *inventory.StatsAggregator
	now   func() time.Time
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *inventory.RegisterMovementUseCase, stats *inventory.StatsAggregator) *MovementHandler {
	return &MovementHandler{uc: uc, stats: stats, now: time.Now}
}

// Create godoc
// @Summary      Registrar movimiento de inventario
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMovementRequest  true  "type, warehouseId (+ warehouseToId en TRANSFER), productId, qty"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validation.Struct(in); err != nil {
		return writeError(c, err)
	}
	occurredAt := h.now().UTC()
	if in.OccurredAt != nil {
		occurredAt = *in.OccurredAt
	}
	m, err := h.uc.CreateMovement(c.Context(), inventory.MovementRequest{
		Type:          entity.MovementType(in.Type),
		RefType:       entity.RefType(in.RefType),
		RefID:         in.RefID,
		WarehouseID:   in.WarehouseID,
		WarehouseToID: in.WarehouseToID,
		ProductID:     in.ProductID,
		Qty:           in.Qty,
		UnitCost:      in.UnitCost,
		Reason:        in.Reason,
		Direction:     entity.AdjustDirection(in.Direction),
		OccurredAt:    occurredAt,
		CreatedBy:     GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// List godoc
// @Summary      Listar movimientos
// @Description  Ordenados por occurredAt descendente. search busca en bodega, producto (nombre o código) y motivo.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        type           query  string  false  "IN | OUT | TRANSFER | ADJUST | RETURN | LOSS"
// @Param        warehouseId    query  string  false  "Bodega de origen"
// @Param        warehouseToId  query  string  false  "Bodega destino (TRANSFER)"
// @Param        productId      query  string  false  "Producto"
// @Param        from           query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to             query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        search         query  string  false  "Texto libre"
// @Param        page           query  int     false  "Página (base 1)"
// @Param        pageSize       query  int     false  "Tamaño de página (máx. 100)"
// @Success      200  {object}  dto.MovementPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	q, err := parseMovementQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.uc.ListMovements(c.Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementPageResponse{
		PageResponse: dto.PageResponse{Total: page.Total, Page: page.Page, PageSize: page.PageSize},
		Items:        make([]dto.MovementResponse, 0, len(page.Items)),
	}
	for _, m := range page.Items {
		out.Items = append(out.Items, toMovementResponse(m))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener movimiento por ID
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	m, err := h.uc.GetMovement(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementResponse(m))
}

// Update godoc
// @Summary      Editar motivo de un movimiento
// @Description  Solo reason es editable. Cantidades, bodegas, producto, tipo y fechas se corrigen con movimientos compensatorios.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del movimiento"
// @Param        body  body  dto.UpdateMovementRequest  true  "reason"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [patch]
func (h *MovementHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validation.Struct(in); err != nil {
		return writeError(c, err)
	}
	upd := inventory.UpdateMovementInput{
		Reason:        in.Reason,
		Type:          in.Type,
		RefType:       in.RefType,
		RefID:         in.RefID,
		WarehouseID:   in.WarehouseID,
		WarehouseToID: in.WarehouseToID,
		ProductID:     in.ProductID,
		Qty:           in.Qty,
		Direction:     in.Direction,
		OccurredAt:    in.OccurredAt,
	}
	if in.UnitCost != nil {
		s := in.UnitCost.String()
		upd.UnitCost = &s
	}
	m, err := h.uc.UpdateMovement(c.Context(), c.Params("id"), upd)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementResponse(m))
}

// Delete godoc
// @Summary      Eliminar movimiento
// @Description  Revierte su efecto sobre el stock. Falla con 409 si el movimiento referencia un documento o si la reversión deja stock negativo.
// @Tags         movements
// @Security     Bearer
// @Param        id   path  string  true  "ID del movimiento"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [delete]
func (h *MovementHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteMovement(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Stats godoc
// @Summary      Estadísticas de movimientos
// @Description  Totales por tipo, bodega, producto y día, más los productos en stock bajo.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        from         query  string  false  "Desde"
// @Param        to           query  string  false  "Hasta"
// @Param        warehouseId  query  string  false  "Bodega"
// @Param        productId    query  string  false  "Producto"
// @Param        type         query  string  false  "Tipo"
// @Success      200  {object}  dto.StatsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/stats [get]
func (h *MovementHandler) Stats(c *fiber.Ctx) error {
	var in dto.StatsQuery
	if err := c.QueryParser(&in); err != nil {
		return writeError(c, invalidQuery(err))
	}
	from, err := parseQueryTime(in.From, "from", false)
	if err != nil {
		return writeError(c, err)
	}
	to, err := parseQueryTime(in.To, "to", true)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.stats.GetStats(c.Context(), repository.StatsFilter{
		From:        from,
		To:          to,
		WarehouseID: in.WarehouseID,
		ProductID:   in.ProductID,
		Type:        entity.MovementType(in.Type),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStatsResponse(res))
}

// BulkImport godoc
// @Summary      Importación masiva (JSON)
// @Description  Cada fila se registra en su propia transacción; las filas inválidas se reportan sin revertir las demás.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkImportRequest  true  "Filas con celdas en el orden de la plantilla"
// @Success      200   {object}  dto.ImportResultResponse
// @Success      207   {object}  dto.ImportResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/bulk [post]
func (h *MovementHandler) BulkImport(c *fiber.Ctx) error {
	var in dto.BulkImportRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := validation.Struct(in); err != nil {
		return writeError(c, err)
	}
	rows := make([]inventory.RawImportRow, 0, len(in.Rows))
	for i, cells := range in.Rows {
		rows = append(rows, inventory.RawImportRow{RowIndex: i + 1, Cells: cells})
	}
	return h.runImport(c, rows)
}

// Import godoc
// @Summary      Importación masiva (xlsx)
// @Description  Hoja "Movimientos" con el encabezado de la plantilla. RowIndex es el número de fila de la hoja.
// @Tags         movements
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Archivo .xlsx"
// @Success      200   {object}  dto.ImportResultResponse
// @Success      207   {object}  dto.ImportResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/import [post]
func (h *MovementHandler) Import(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "el campo file es requerido"})
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()

	rows, err := xlsx.ParseMovementRows(f)
	if err != nil {
		return writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
	}
	return h.runImport(c, rows)
}

// runImport completa CreatedBy con el usuario del token y responde 200 o 207.
func (h *MovementHandler) runImport(c *fiber.Ctx, rows []inventory.RawImportRow) error {
	if user := GetUserID(c); user != "" {
		for i := range rows {
			cells := rows[i].Cells
			for len(cells) <= inventory.ColCreatedBy {
				cells = append(cells, "")
			}
			if cells[inventory.ColCreatedBy] == "" {
				cells[inventory.ColCreatedBy] = user
			}
			rows[i].Cells = cells
		}
	}
	res, err := h.uc.BulkImport(c.Context(), rows)
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusOK
	if res.Err() != nil {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(toImportResponse(res))
}

// Export godoc
// @Summary      Exportar movimientos a xlsx
// @Description  Mismos filtros que el listado. El archivo puede reimportarse.
// @Tags         movements
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/export [get]
func (h *MovementHandler) Export(c *fiber.Ctx) error {
	q, err := parseMovementQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	q.Page = inventory.PageParams{Page: 1, PageSize: inventory.MaxPageSize}

	var all []*entity.StockMovement
	for len(all) < exportMaxRows {
		page, err := h.uc.ListMovements(c.Context(), q)
		if err != nil {
			return writeError(c, err)
		}
		all = append(all, page.Items...)
		if len(page.Items) < q.Page.PageSize || len(all) >= page.Total {
			break
		}
		q.Page.Page++
	}

	var buf bytes.Buffer
	if err := xlsx.WriteMovements(&buf, all); err != nil {
		return writeError(c, err)
	}
	c.Attachment("movimientos.xlsx")
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(buf.Bytes())
}

// Template godoc
// @Summary      Plantilla de importación xlsx
// @Tags         movements
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200
// @Router       /api/inventory/movements/template [get]
func (h *MovementHandler) Template(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := xlsx.WriteTemplate(&buf); err != nil {
		return writeError(c, err)
	}
	c.Attachment("plantilla_movimientos.xlsx")
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(buf.Bytes())
}

func parseMovementQuery(c *fiber.Ctx) (inventory.MovementQuery, error) {
	var in dto.ListMovementsQuery
	if err := c.QueryParser(&in); err != nil {
		return inventory.MovementQuery{}, invalidQuery(err)
	}
	if err := validation.Struct(in); err != nil {
		return inventory.MovementQuery{}, err
	}
	from, err := parseQueryTime(in.From, "from", false)
	if err != nil {
		return inventory.MovementQuery{}, err
	}
	to, err := parseQueryTime(in.To, "to", true)
	if err != nil {
		return inventory.MovementQuery{}, err
	}
	return inventory.MovementQuery{
		Filter: repository.MovementFilter{
			Type:          entity.MovementType(in.Type),
			RefType:       entity.RefType(in.RefType),
			RefID:         in.RefID,
			WarehouseID:   in.WarehouseID,
			WarehouseToID: in.WarehouseToID,
			ProductID:     in.ProductID,
			CreatedBy:     in.CreatedBy,
			From:          from,
			To:            to,
			Search:        in.Search,
		},
		Page: inventory.PageParams{Page: in.Page, PageSize: in.PageSize},
	}, nil
}

func invalidQuery(err error) error {
	return fmt.Errorf("%w: parámetros de consulta inválidos: %v", domain.ErrInvalidInput, err)
}
