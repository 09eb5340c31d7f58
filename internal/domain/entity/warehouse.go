package entity

import "time"

// Warehouse bodega. Datos maestros de solo lectura para el libro de inventario.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
