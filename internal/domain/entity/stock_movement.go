package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

const (
	MovementTypeIn       MovementType = "IN"       // entrada
	MovementTypeOut      MovementType = "OUT"      // salida
	MovementTypeTransfer MovementType = "TRANSFER" // entre bodegas
	MovementTypeAdjust   MovementType = "ADJUST"   // ajuste (ver AdjustDirection)
	MovementTypeReturn   MovementType = "RETURN"   // devolución
	MovementTypeLoss     MovementType = "LOSS"     // merma
)

// MovementTypes lista de tipos válidos, en orden de presentación.
var MovementTypes = []MovementType{
	MovementTypeIn, MovementTypeOut, MovementTypeTransfer,
	MovementTypeAdjust, MovementTypeReturn, MovementTypeLoss,
}

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	for _, v := range MovementTypes {
		if v == t {
			return true
		}
	}
	return false
}

// RefType tipo de documento que origina un movimiento.
type RefType string

const (
	RefTypeReceipt    RefType = "RECEIPT"
	RefTypeStockOut   RefType = "STOCK_OUT"
	RefTypeTransfer   RefType = "TRANSFER"
	RefTypeAdjustment RefType = "ADJUSTMENT"
	RefTypeManual     RefType = "MANUAL"
)

// RefTypes lista de tipos de documento válidos.
var RefTypes = []RefType{RefTypeReceipt, RefTypeStockOut, RefTypeTransfer, RefTypeAdjustment, RefTypeManual}

// Valid indica si el tipo de documento es conocido.
func (r RefType) Valid() bool {
	for _, v := range RefTypes {
		if v == r {
			return true
		}
	}
	return false
}

// AdjustDirection sentido de un ajuste. Solo aplica a ADJUST.
type AdjustDirection string

const (
	DirectionIncrease AdjustDirection = "INCREASE"
	DirectionDecrease AdjustDirection = "DECREASE"
)

// Valid indica si la dirección es conocida.
func (d AdjustDirection) Valid() bool {
	return d == DirectionIncrease || d == DirectionDecrease
}

// StockMovement registro inmutable del diario de movimientos.
// Type, Qty, WarehouseID, WarehouseToID, ProductID y Direction no cambian después del commit.
type StockMovement struct {
	ID            string
	Type          MovementType
	RefType       RefType // vacío si no hay documento
	RefID         string
	WarehouseID   string // origen
	WarehouseToID string // destino, solo TRANSFER
	ProductID     string
	Qty           int64
	UnitCost      *decimal.Decimal
	Reason        string
	Direction     AdjustDirection
	OccurredAt    time.Time
	CreatedBy     string
	CreatedAt     time.Time

	// Solo lectura (join con datos maestros).
	WarehouseName   string
	WarehouseToName string
	ProductName     string
	ProductCode     string
}

// HasReference indica si el movimiento está atado a un documento.
func (m *StockMovement) HasReference() bool {
	return m.RefType != "" || m.RefID != ""
}

// Clone copia el movimiento, incluido el costo.
func (m *StockMovement) Clone() *StockMovement {
	c := *m
	if m.UnitCost != nil {
		uc := *m.UnitCost
		c.UnitCost = &uc
	}
	return &c
}
