package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/validation"
)

// Columnas de una fila de importación.
const (
	ColType = iota
	ColRefType
	ColRefID
	ColWarehouseID
	ColWarehouseToID
	ColProductID
	ColQty
	ColUnitCost
	ColReason
	ColOccurredAt
	ColCreatedBy
	ColDirection // opcional
)

// ImportColumns encabezados en el orden de las columnas.
var ImportColumns = []string{
	"Type", "RefType", "RefId", "WarehouseId", "WarehouseToId", "ProductId",
	"Qty", "UnitCost", "Reason", "OccurredAt", "CreatedBy", "Direction",
}

var fieldColumns = map[string]int{
	FieldType:          ColType,
	FieldRefType:       ColRefType,
	FieldRefID:         ColRefID,
	FieldWarehouseID:   ColWarehouseID,
	FieldWarehouseToID: ColWarehouseToID,
	FieldProductID:     ColProductID,
	FieldQty:           ColQty,
	FieldUnitCost:      ColUnitCost,
	FieldReason:        ColReason,
	FieldOccurredAt:    ColOccurredAt,
	FieldCreatedBy:     ColCreatedBy,
	FieldDirection:     ColDirection,
}

// Formatos aceptados para OccurredAt.
var occurredAtLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// RawImportRow fila tal como llega (celdas de texto). RowIndex lo define el origen
// (número de fila de la hoja, o posición base 1 en JSON).
type RawImportRow struct {
	RowIndex int
	Cells    []string
}

// RowError fila rechazada.
type RowError struct {
	RowIndex   int
	ErrorCells []int
	Message    string
	CellValues []string
}

// ImportResult resultado de una importación. Las filas válidas quedan confirmadas aunque otras fallen.
type ImportResult struct {
	InsertedCount int
	InvalidRows   []RowError
}

// Err devuelve domain.ErrValidationBatch si hubo filas inválidas.
func (r *ImportResult) Err() error {
	if len(r.InvalidRows) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d filas inválidas", domain.ErrValidationBatch, len(r.InvalidRows))
}

// importRecord forma textual de una fila; las reglas estructurales se declaran con tags.
type importRecord struct {
	Type          string `json:"type" validate:"required,oneof=IN OUT TRANSFER ADJUST RETURN LOSS"`
	RefType       string `json:"refType" validate:"omitempty,oneof=RECEIPT STOCK_OUT TRANSFER ADJUSTMENT MANUAL"`
	RefID         string `json:"refId" validate:"required_with=RefType,max=100"`
	WarehouseID   string `json:"warehouseId" validate:"required,uuid"`
	WarehouseToID string `json:"warehouseToId" validate:"required_if=Type TRANSFER"`
	ProductID     string `json:"productId" validate:"required,uuid"`
	Qty           string `json:"qty" validate:"required,number"`
	UnitCost      string `json:"unitCost" validate:"omitempty,numeric"`
	Reason        string `json:"reason" validate:"max=500"`
	OccurredAt    string `json:"occurredAt" validate:"required"`
	CreatedBy     string `json:"createdBy" validate:"required,max=100"`
	Direction     string `json:"direction" validate:"omitempty,oneof=INCREASE DECREASE"`
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return strings.TrimSpace(cells[i])
	}
	return ""
}

// parseImportRow convierte una fila cruda en MovementRequest o en un RowError con las celdas culpables.
func parseImportRow(raw RawImportRow) (*MovementRequest, *RowError) {
	rec := importRecord{
		Type:          strings.ToUpper(cell(raw.Cells, ColType)),
		RefType:       strings.ToUpper(cell(raw.Cells, ColRefType)),
		RefID:         cell(raw.Cells, ColRefID),
		WarehouseID:   cell(raw.Cells, ColWarehouseID),
		WarehouseToID: cell(raw.Cells, ColWarehouseToID),
		ProductID:     cell(raw.Cells, ColProductID),
		Qty:           cell(raw.Cells, ColQty),
		UnitCost:      cell(raw.Cells, ColUnitCost),
		Reason:        cell(raw.Cells, ColReason),
		OccurredAt:    cell(raw.Cells, ColOccurredAt),
		CreatedBy:     cell(raw.Cells, ColCreatedBy),
		Direction:     strings.ToUpper(cell(raw.Cells, ColDirection)),
	}
	if err := validation.Struct(rec); err != nil {
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			return nil, rowError(raw, err.Error())
		}
		re := rowError(raw, verrs.Error())
		for _, fe := range verrs {
			re.ErrorCells = appendCell(re.ErrorCells, fieldColumns[fe.Field])
		}
		return nil, re
	}

	qty, err := strconv.ParseInt(rec.Qty, 10, 64)
	if err != nil {
		return nil, rowError(raw, "qty: fuera de rango", ColQty)
	}
	var unitCost *decimal.Decimal
	if rec.UnitCost != "" {
		d, err := decimal.NewFromString(rec.UnitCost)
		if err != nil {
			return nil, rowError(raw, "unitCost: debe ser numérico", ColUnitCost)
		}
		unitCost = &d
	}
	occurredAt, ok := parseOccurredAt(rec.OccurredAt)
	if !ok {
		return nil, rowError(raw, "occurredAt: formato de fecha inválido (use RFC3339 o AAAA-MM-DD)", ColOccurredAt)
	}

	return &MovementRequest{
		Type:          entity.MovementType(rec.Type),
		RefType:       entity.RefType(rec.RefType),
		RefID:         rec.RefID,
		WarehouseID:   rec.WarehouseID,
		WarehouseToID: rec.WarehouseToID,
		ProductID:     rec.ProductID,
		Qty:           qty,
		UnitCost:      unitCost,
		Reason:        rec.Reason,
		Direction:     entity.AdjustDirection(rec.Direction),
		OccurredAt:    occurredAt,
		CreatedBy:     rec.CreatedBy,
	}, nil
}

func parseOccurredAt(s string) (time.Time, bool) {
	for _, layout := range occurredAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func rowError(raw RawImportRow, msg string, cols ...int) *RowError {
	values := make([]string, len(raw.Cells))
	copy(values, raw.Cells)
	return &RowError{RowIndex: raw.RowIndex, ErrorCells: cols, Message: msg, CellValues: values}
}

func appendCell(cells []int, col int) []int {
	for _, c := range cells {
		if c == col {
			return cells
		}
	}
	return append(cells, col)
}

// BulkImport valida y registra filas en orden, cada una en su propia transacción. Una fila ve el
// efecto de las filas anteriores del mismo lote. Un fallo de fila nunca revierte filas ya confirmadas;
// solo la cancelación del contexto detiene el lote.
func (uc *RegisterMovementUseCase) BulkImport(ctx context.Context, rows []RawImportRow) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: el lote está vacío", domain.ErrInvalidInput)
	}
	if uc.importMaxRows > 0 && len(rows) > uc.importMaxRows {
		return nil, fmt.Errorf("%w: el lote supera %d filas", domain.ErrInvalidInput, uc.importMaxRows)
	}

	res := &ImportResult{InvalidRows: []RowError{}}
	for _, raw := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		req, rowErr := parseImportRow(raw)
		if rowErr != nil {
			res.InvalidRows = append(res.InvalidRows, *rowErr)
			continue
		}
		if _, err := uc.CreateMovement(ctx, *req); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.InvalidRows = append(res.InvalidRows, *rowErrorFrom(raw, err))
			continue
		}
		res.InsertedCount++
	}

	uc.log.Info().
		Int("rows", len(rows)).
		Int("inserted", res.InsertedCount).
		Int("invalid", len(res.InvalidRows)).
		Msg("importación de movimientos finalizada")
	return res, nil
}

func rowErrorFrom(raw RawImportRow, err error) *RowError {
	var fe *FieldError
	if errors.As(err, &fe) {
		re := rowError(raw, fe.Msg)
		for _, f := range fe.Fields {
			if col, ok := fieldColumns[f]; ok {
				re.ErrorCells = appendCell(re.ErrorCells, col)
			}
		}
		return re
	}
	return rowError(raw, err.Error())
}
