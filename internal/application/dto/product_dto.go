package dto

import "time"

// ProductResponse producto (datos maestros, solo lectura).
type ProductResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	SKU       string    `json:"sku,omitempty"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
