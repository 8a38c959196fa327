package entity

import "time"

// Warehouse representa una bodega o punto de venta donde se mantiene stock de
// forma independiente (multi-bodega).
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
