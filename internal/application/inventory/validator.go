package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Nombres de campo usados en FieldError. Coinciden con las columnas de importación.
const (
	FieldType          = "type"
	FieldRefType       = "refType"
	FieldRefID         = "refId"
	FieldWarehouseID   = "warehouseId"
	FieldWarehouseToID = "warehouseToId"
	FieldProductID     = "productId"
	FieldQty           = "qty"
	FieldUnitCost      = "unitCost"
	FieldReason        = "reason"
	FieldOccurredAt    = "occurredAt"
	FieldCreatedBy     = "createdBy"
	FieldDirection     = "direction"
)

// FieldError violación de una regla atribuible a uno o más campos.
// Unwrap devuelve el error de dominio (errors.Is(err, domain.ErrNotFound) etc.).
type FieldError struct {
	Fields []string
	Err    error
	Msg    string
}

func (e *FieldError) Error() string { return e.Err.Error() + ": " + e.Msg }
func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(sentinel error, msg string, fields ...string) *FieldError {
	return &FieldError{Fields: fields, Err: sentinel, Msg: msg}
}

// MovementRequest solicitud de movimiento antes de validar.
type MovementRequest struct {
	Type          entity.MovementType
	RefType       entity.RefType
	RefID         string
	WarehouseID   string
	WarehouseToID string
	ProductID     string
	Qty           int64
	UnitCost      *decimal.Decimal
	Reason        string
	Direction     entity.AdjustDirection
	OccurredAt    time.Time
	CreatedBy     string
}

func (r MovementRequest) sourceKey() entity.StockKey {
	return entity.StockKey{WarehouseID: r.WarehouseID, ProductID: r.ProductID}
}

func (r MovementRequest) destinationKey() entity.StockKey {
	return entity.StockKey{WarehouseID: r.WarehouseToID, ProductID: r.ProductID}
}

func (r MovementRequest) movement() *entity.StockMovement {
	m := &entity.StockMovement{
		Type:          r.Type,
		RefType:       r.RefType,
		RefID:         r.RefID,
		WarehouseID:   r.WarehouseID,
		WarehouseToID: r.WarehouseToID,
		ProductID:     r.ProductID,
		Qty:           r.Qty,
		Reason:        r.Reason,
		Direction:     r.Direction,
		OccurredAt:    storedTime(r.OccurredAt),
		CreatedBy:     r.CreatedBy,
	}
	if r.UnitCost != nil {
		c := *r.UnitCost
		m.UnitCost = &c
	}
	if m.Type == entity.MovementTypeAdjust && m.Direction == "" {
		m.Direction = entity.DirectionIncrease
	}
	return m
}

// MovementValidator aplica las reglas de negocio de un movimiento, en orden y con fallo rápido:
//
//	0. estructura (tipo, ids, dirección, referencia, costo)
//	1. bodega(s) existen y están activas
//	2. producto existe y está activo
//	3. TRANSFER <=> bodega destino presente y distinta del origen
//	4. Qty > 0
//	5. OUT/TRANSFER: disponible en origen >= Qty (sobre la fila bloqueada)
//	6. OccurredAt no está en el futuro
//	7. documento referenciado existe (RECEIPT, STOCK_OUT)
//
// 0-4 se evalúan antes de bloquear; 5-7 con la fila ya bloqueada (ValidateLocked).
type MovementValidator struct {
	warehouses repository.WarehouseRepository
	products   repository.ProductRepository
	documents  repository.DocumentRepository
	clock      Clock
}

// NewMovementValidator construye el validador. clock nil = time.Now.
func NewMovementValidator(
	warehouses repository.WarehouseRepository,
	products repository.ProductRepository,
	documents repository.DocumentRepository,
	clock Clock,
) *MovementValidator {
	return &MovementValidator{warehouses: warehouses, products: products, documents: documents, clock: clock}
}

// Validate reglas 0 a 4.
func (v *MovementValidator) Validate(ctx context.Context, req MovementRequest) error {
	if err := v.validateStructure(req); err != nil {
		return err
	}
	if err := v.checkWarehouse(ctx, req.WarehouseID, FieldWarehouseID); err != nil {
		return err
	}
	if req.WarehouseToID != "" {
		if err := v.checkWarehouse(ctx, req.WarehouseToID, FieldWarehouseToID); err != nil {
			return err
		}
	}
	if err := v.checkProduct(ctx, req.ProductID); err != nil {
		return err
	}
	if err := v.validateTransferShape(req); err != nil {
		return err
	}
	if req.Qty <= 0 {
		return fieldErr(domain.ErrInvalidInput, "qty debe ser mayor que cero", FieldQty)
	}
	return nil
}

// ValidateLocked reglas 5 a 7. source es la fila de origen bloqueada para la mutación.
func (v *MovementValidator) ValidateLocked(ctx context.Context, req MovementRequest, source *entity.Stock) error {
	if req.Type == entity.MovementTypeOut || req.Type == entity.MovementTypeTransfer {
		if err := CheckAvailability(source, req.Qty); err != nil {
			return err
		}
	}
	if req.OccurredAt.After(v.clock.now()) {
		return fieldErr(domain.ErrInvalidInput, "occurredAt no puede estar en el futuro", FieldOccurredAt)
	}
	return v.checkDocument(ctx, req)
}

// CheckAvailability falla con ErrInsufficientStock si el disponible no cubre qty.
func CheckAvailability(s *entity.Stock, qty int64) error {
	if s.Available() < qty {
		return fieldErr(domain.ErrInsufficientStock,
			fmt.Sprintf("disponible %d, solicitado %d", s.Available(), qty), FieldQty)
	}
	return nil
}

func (v *MovementValidator) validateStructure(req MovementRequest) error {
	if !req.Type.Valid() {
		return fieldErr(domain.ErrInvalidInput, fmt.Sprintf("tipo de movimiento desconocido %q", req.Type), FieldType)
	}
	if err := validateID(req.WarehouseID, FieldWarehouseID); err != nil {
		return err
	}
	if req.WarehouseToID != "" {
		if err := validateID(req.WarehouseToID, FieldWarehouseToID); err != nil {
			return err
		}
	}
	if err := validateID(req.ProductID, FieldProductID); err != nil {
		return err
	}
	if req.CreatedBy == "" {
		return fieldErr(domain.ErrInvalidInput, "createdBy es obligatorio", FieldCreatedBy)
	}
	if req.Direction != "" {
		if req.Type != entity.MovementTypeAdjust {
			return fieldErr(domain.ErrInvalidInput, "direction solo aplica a ADJUST", FieldDirection)
		}
		if !req.Direction.Valid() {
			return fieldErr(domain.ErrInvalidInput, fmt.Sprintf("direction desconocida %q", req.Direction), FieldDirection)
		}
	}
	if (req.RefType == "") != (req.RefID == "") {
		return fieldErr(domain.ErrInvalidInput, "refType y refId van juntos", FieldRefType, FieldRefID)
	}
	if req.RefType != "" && !req.RefType.Valid() {
		return fieldErr(domain.ErrInvalidInput, fmt.Sprintf("refType desconocido %q", req.RefType), FieldRefType)
	}
	if req.UnitCost != nil {
		if err := validateUnitCost(*req.UnitCost); err != nil {
			return err
		}
	}
	if req.OccurredAt.IsZero() {
		return fieldErr(domain.ErrInvalidInput, "occurredAt es obligatorio", FieldOccurredAt)
	}
	return nil
}

// Límites de NUMERIC(18,4).
const (
	unitCostScale     = 4
	unitCostIntDigits = 14
)

var unitCostLimit = decimal.New(1, unitCostIntDigits)

func validateUnitCost(c decimal.Decimal) error {
	if c.IsNegative() {
		return fieldErr(domain.ErrInvalidInput, "unitCost no puede ser negativo", FieldUnitCost)
	}
	if !c.Equal(c.Truncate(unitCostScale)) {
		return fieldErr(domain.ErrInvalidInput,
			fmt.Sprintf("unitCost admite hasta %d decimales", unitCostScale), FieldUnitCost)
	}
	if c.GreaterThanOrEqual(unitCostLimit) {
		return fieldErr(domain.ErrInvalidInput,
			fmt.Sprintf("unitCost admite hasta %d dígitos enteros", unitCostIntDigits), FieldUnitCost)
	}
	return nil
}

func (v *MovementValidator) validateTransferShape(req MovementRequest) error {
	isTransfer := req.Type == entity.MovementTypeTransfer
	switch {
	case isTransfer && req.WarehouseToID == "":
		return fieldErr(domain.ErrInvalidInput, "TRANSFER requiere bodega destino", FieldWarehouseToID)
	case isTransfer && req.WarehouseToID == req.WarehouseID:
		return fieldErr(domain.ErrInvalidInput, "bodega origen y destino deben ser distintas", FieldWarehouseID, FieldWarehouseToID)
	case !isTransfer && req.WarehouseToID != "":
		return fieldErr(domain.ErrInvalidInput, "bodega destino solo aplica a TRANSFER", FieldWarehouseToID)
	}
	return nil
}

func (v *MovementValidator) checkWarehouse(ctx context.Context, id, field string) error {
	w, err := v.warehouses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fieldErr(domain.ErrNotFound, fmt.Sprintf("bodega %s no existe", id), field)
		}
		return fmt.Errorf("get warehouse: %w", err)
	}
	if !w.Active {
		return fieldErr(domain.ErrInactiveEntity, fmt.Sprintf("bodega %s inactiva", id), field)
	}
	return nil
}

func (v *MovementValidator) checkProduct(ctx context.Context, id string) error {
	p, err := v.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fieldErr(domain.ErrNotFound, fmt.Sprintf("producto %s no existe", id), FieldProductID)
		}
		return fmt.Errorf("get product: %w", err)
	}
	if !p.Active {
		return fieldErr(domain.ErrInactiveEntity, fmt.Sprintf("producto %s inactivo", id), FieldProductID)
	}
	return nil
}

// checkDocument solo verifica tipos con repositorio propio; TRANSFER, ADJUSTMENT y MANUAL se aceptan tal cual.
func (v *MovementValidator) checkDocument(ctx context.Context, req MovementRequest) error {
	if req.RefType != entity.RefTypeReceipt && req.RefType != entity.RefTypeStockOut {
		return nil
	}
	ok, err := v.documents.Exists(ctx, req.RefType, req.RefID)
	if err != nil {
		return fmt.Errorf("check document: %w", err)
	}
	if !ok {
		return fieldErr(domain.ErrNotFound, fmt.Sprintf("documento %s %s no existe", req.RefType, req.RefID), FieldRefID)
	}
	return nil
}

// checkMasterData valida bodega y producto para operaciones de stock sin movimiento solicitado.
func (v *MovementValidator) checkMasterData(ctx context.Context, warehouseID, productID string) error {
	if err := validateID(warehouseID, FieldWarehouseID); err != nil {
		return err
	}
	if err := validateID(productID, FieldProductID); err != nil {
		return err
	}
	if err := v.checkWarehouse(ctx, warehouseID, FieldWarehouseID); err != nil {
		return err
	}
	return v.checkProduct(ctx, productID)
}

func validateID(id, field string) error {
	if id == "" {
		return fieldErr(domain.ErrInvalidInput, field+" es obligatorio", field)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fieldErr(domain.ErrInvalidInput, field+" debe ser un UUID", field)
	}
	return nil
}
