package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel es la proyección materializada del kardex: cantidad disponible
// actual de una (variación, bodega). Se actualiza incrementalmente con cada
// asiento, nunca se recalcula desde cero salvo durante una reparación.
// Invariante: Quantity == suma de Quantity de los asientos no anulados de la
// misma (variación, bodega), en orden (transaction_date, id).
type StockLevel struct {
	CompanyID   string
	ProductID   string
	VariationID string
	WarehouseID string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}
