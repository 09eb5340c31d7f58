package entity

import "github.com/shopspring/decimal"

// MovementStats agregados del diario para un filtro dado. Un rango vacío produce ceros.
type MovementStats struct {
	TotalMovements    int64
	InMovements       int64
	OutMovements      int64
	TransferMovements int64
	TotalValue        decimal.Decimal
	ByType            []TypeStats
	ByWarehouse       []WarehouseStats
	ByProduct         []ProductStats
	ByDate            []DateStats
}

// TypeStats totales por tipo de movimiento.
type TypeStats struct {
	Type       MovementType
	Count      int64
	TotalQty   int64
	TotalValue decimal.Decimal
}

// WarehouseStats conteos por bodega. Una transferencia cuenta en ambas bodegas.
type WarehouseStats struct {
	WarehouseID      string
	WarehouseName    string
	InCount          int64
	OutCount         int64
	TransferInCount  int64
	TransferOutCount int64
	TotalValue       decimal.Decimal
}

// ProductStats cantidades por producto.
type ProductStats struct {
	ProductID     string
	ProductName   string
	TotalIn       int64
	TotalOut      int64
	TotalTransfer int64
	TotalValue    decimal.Decimal
}

// DateStats serie diaria (UTC, formato 2006-01-02).
type DateStats struct {
	Date          string
	InCount       int64
	OutCount      int64
	TransferCount int64
	TotalValue    decimal.Decimal
}

// StockSummary resumen del saldo actual.
type StockSummary struct {
	TotalProducts    int64
	TotalStock       int64
	TotalReserved    int64
	LowStockProducts int64
	WarehouseCount   int64
	ByWarehouse      []WarehouseStockSummary
	ByProduct        []ProductStockSummary
}

// WarehouseStockSummary saldo agregado de una bodega.
type WarehouseStockSummary struct {
	WarehouseID   string
	WarehouseName string
	ProductCount  int64
	QtyOnHand     int64
	QtyReserved   int64
}

// ProductStockSummary saldo agregado de un producto en todas las bodegas.
type ProductStockSummary struct {
	ProductID      string
	ProductName    string
	WarehouseCount int64
	QtyOnHand      int64
	QtyReserved    int64
}

// KeyBalance saldo de una clave según la tabla de stock y según el diario.
// StockOnHand es nil si no existe fila de stock para la clave.
type KeyBalance struct {
	WarehouseID   string
	ProductID     string
	StockOnHand   *int64
	JournalOnHand int64
}
