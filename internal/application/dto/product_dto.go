package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU         string          `json:"sku" validate:"required,min=1,max=100"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	UnitMeasure string          `json:"unit_measure"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// UpdateProductRequest entrada para actualizar un producto. Cost no se toca
// aquí: se deriva de los movimientos.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	UnitMeasure *string          `json:"unit_measure"`
	Attributes  json.RawMessage  `json:"attributes,omitempty"`
}

// CreateVariationRequest entrada para crear una variación de producto.
type CreateVariationRequest struct {
	SKU        string          `json:"sku" validate:"required,min=1,max=100"`
	Name       string          `json:"name" validate:"required,min=1,max=200"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string              `json:"id"`
	CompanyID   string              `json:"company_id"`
	SKU         string              `json:"sku"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	Cost        decimal.Decimal     `json:"cost"`
	UnitMeasure string              `json:"unit_measure"`
	Attributes  json.RawMessage     `json:"attributes,omitempty"`
	Variations  []VariationResponse `json:"variations,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// VariationResponse salida de una variación.
type VariationResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
