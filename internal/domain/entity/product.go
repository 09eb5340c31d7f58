package entity

import "time"

// Product producto o SKU. Datos maestros de solo lectura para el libro de inventario.
type Product struct {
	ID        string
	Code      string
	SKU       string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
