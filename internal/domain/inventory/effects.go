package inventory

import "github.com/jhoicas/inventario-ledger/internal/domain/entity"

// Effect variación firmada de QtyOnHand sobre una clave.
type Effect struct {
	Key   entity.StockKey
	Delta int64
}

// Flow clasificación de un movimiento para reportes.
type Flow int

const (
	FlowIn Flow = iota
	FlowOut
	FlowTransfer
)

// SourceDelta efecto sobre la bodega de origen.
// IN, RETURN: +qty. OUT, LOSS, TRANSFER: -qty. ADJUST: según dirección (INCREASE por defecto).
func SourceDelta(t entity.MovementType, dir entity.AdjustDirection, qty int64) int64 {
	switch t {
	case entity.MovementTypeIn, entity.MovementTypeReturn:
		return qty
	case entity.MovementTypeAdjust:
		if dir == entity.DirectionDecrease {
			return -qty
		}
		return qty
	default:
		return -qty
	}
}

// Effects efectos de un movimiento: uno, o dos para TRANSFER (origen y destino).
func Effects(m *entity.StockMovement) []Effect {
	src := Effect{
		Key:   entity.StockKey{WarehouseID: m.WarehouseID, ProductID: m.ProductID},
		Delta: SourceDelta(m.Type, m.Direction, m.Qty),
	}
	if m.Type != entity.MovementTypeTransfer {
		return []Effect{src}
	}
	dst := Effect{
		Key:   entity.StockKey{WarehouseID: m.WarehouseToID, ProductID: m.ProductID},
		Delta: m.Qty,
	}
	return []Effect{src, dst}
}

// FlowOf clasifica el movimiento como entrada, salida o transferencia.
func FlowOf(m *entity.StockMovement) Flow {
	if m.Type == entity.MovementTypeTransfer {
		return FlowTransfer
	}
	if SourceDelta(m.Type, m.Direction, m.Qty) > 0 {
		return FlowIn
	}
	return FlowOut
}
