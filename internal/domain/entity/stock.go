package entity

import "time"

// StockKey identifica una posición de inventario: un producto dentro de una bodega.
type StockKey struct {
	WarehouseID string
	ProductID   string
}

// Less ordena claves de forma determinista (bodega, luego producto) para tomar bloqueos sin deadlocks.
func (k StockKey) Less(o StockKey) bool {
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.ProductID < o.ProductID
}

// Stock representa el saldo actual de un producto en una bodega.
// Invariante: QtyOnHand >= QtyReserved >= 0.
type Stock struct {
	ID           string
	WarehouseID  string
	ProductID    string
	QtyOnHand    int64
	QtyReserved  int64
	SafetyStock  int64
	ReorderPoint int64
	MinQty       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Solo lectura (join con datos maestros).
	WarehouseName string
	ProductName   string
}

// StockThresholds umbrales de reposición. No se validan contra el saldo.
type StockThresholds struct {
	SafetyStock  int64
	ReorderPoint int64
	MinQty       int64
}

// Key devuelve la clave (bodega, producto) del stock.
func (s *Stock) Key() StockKey {
	return StockKey{WarehouseID: s.WarehouseID, ProductID: s.ProductID}
}

// Available cantidad disponible para salidas.
func (s *Stock) Available() int64 {
	return s.QtyOnHand - s.QtyReserved
}

// Consistent indica si el registro cumple el invariante de stock.
func (s *Stock) Consistent() bool {
	return s.QtyReserved >= 0 && s.QtyOnHand >= s.QtyReserved
}

// IsLow indica si el saldo está en o por debajo del stock de seguridad o del punto de reorden.
func (s *Stock) IsLow() bool {
	return s.QtyOnHand <= s.SafetyStock || s.QtyOnHand <= s.ReorderPoint
}

// Clone copia superficial; los campos son valores.
func (s *Stock) Clone() *Stock {
	c := *s
	return &c
}
