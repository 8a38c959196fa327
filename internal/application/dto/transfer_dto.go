package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransferRequest entrada para crear un traslado entre bodegas.
type CreateTransferRequest struct {
	FromWarehouseID string                `json:"from_warehouse_id" validate:"required,uuid"`
	ToWarehouseID   string                `json:"to_warehouse_id" validate:"required,uuid"`
	Notes           string                `json:"notes"`
	Items           []TransferItemRequest `json:"items" validate:"required,min=1"`
}

// TransferItemRequest línea del traslado.
type TransferItemRequest struct {
	ProductID   string          `json:"product_id" validate:"required,uuid"`
	VariationID string          `json:"variation_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// TransferItemResponse salida de una línea de traslado.
type TransferItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	VariationID string          `json:"variation_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// TransferResponse salida del documento de traslado.
type TransferResponse struct {
	ID              string                 `json:"id"`
	CompanyID       string                 `json:"company_id"`
	FromWarehouseID string                 `json:"from_warehouse_id"`
	ToWarehouseID   string                 `json:"to_warehouse_id"`
	Status          string                 `json:"status"`
	Notes           string                 `json:"notes,omitempty"`
	Items           []TransferItemResponse `json:"items"`
	SentAt          *time.Time             `json:"sent_at,omitempty"`
	ReceivedAt      *time.Time             `json:"received_at,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	CreatedBy       string                 `json:"created_by"`
}

// TransferListResponse lista paginada de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
