package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. El stock no vive aquí: se
// rastrea por variación y bodega en StockLevel, derivado de los movimientos.
type Product struct {
	ID          string
	CompanyID   string
	SKU         string // código único por empresa
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta
	Cost        decimal.Decimal // costo promedio ponderado (inicia en 0)
	UnitMeasure string
	Attributes  json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductVariation es la versión vendible a nivel SKU de un producto
// (talla/color); la unidad mínima de rastreo de stock en el kardex.
type ProductVariation struct {
	ID         string
	CompanyID  string
	ProductID  string
	SKU        string // código único por empresa (variación)
	Name       string // ej. "Talla M / Azul"
	Attributes json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
