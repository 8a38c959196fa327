package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/ledger/movements. Un evento de
// negocio clasificado y asentado en una sola llamada. Quantity lleva el signo
// según el tipo (ventas negativas, recepciones positivas); para transfer es la
// cantidad trasladada (positiva) con from/to.
type RegisterMovementRequest struct {
	Type            string           `json:"type" validate:"required"`
	ProductID       string           `json:"product_id" validate:"required,uuid"`
	VariationID     string           `json:"variation_id" validate:"required,uuid"`
	WarehouseID     string           `json:"warehouse_id,omitempty"`
	FromWarehouseID string           `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string           `json:"to_warehouse_id,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType   string           `json:"reference_type" validate:"required"`
	ReferenceID     string           `json:"reference_id" validate:"required"`
	TransactionDate *time.Time       `json:"transaction_date,omitempty"`
}

// MovementResponse salida de un asiento del kardex.
type MovementResponse struct {
	ID              int64            `json:"id"`
	ProductID       string           `json:"product_id"`
	VariationID     string           `json:"variation_id"`
	WarehouseID     string           `json:"warehouse_id"`
	Type            string           `json:"type"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType   string           `json:"reference_type"`
	ReferenceID     string           `json:"reference_id"`
	TransactionDate time.Time        `json:"transaction_date"`
	CreatedAt       time.Time        `json:"created_at"`
	CreatedBy       string           `json:"created_by"`
	Voided          bool             `json:"voided,omitempty"`
}

// AppendResponse resultado de asentar un evento.
type AppendResponse struct {
	Movements []MovementResponse `json:"movements"`
	// Duplicate indica que el evento ya estaba asentado (clave de idempotencia);
	// la llamada fue un no-op y Movements trae los asientos preexistentes.
	Duplicate bool `json:"duplicate"`
}

// BalanceResponse saldo actual de una (variación, bodega) leído de la
// proyección, sin replay del log.
type BalanceResponse struct {
	ProductID   string          `json:"product_id"`
	VariationID string          `json:"variation_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// KardexLineDTO renglón del kardex con saldo corrido.
type KardexLineDTO struct {
	Movement MovementResponse `json:"movement"`
	Balance  decimal.Decimal  `json:"balance"`
}

// KardexResponse estado de cuenta de una (variación, bodega) en orden
// (fecha efectiva, id).
type KardexResponse struct {
	ProductID   string          `json:"product_id"`
	VariationID string          `json:"variation_id"`
	WarehouseID string          `json:"warehouse_id"`
	Lines       []KardexLineDTO `json:"lines"`
	Balance     decimal.Decimal `json:"balance"`
}

// ReconciliationReportDTO resultado de conciliar el log contra la proyección.
// Una variación distinta de cero es un hallazgo reportable, nunca un error que
// tumbe la página: el reparador es una operación explícita aparte.
type ReconciliationReportDTO struct {
	ProductID     string          `json:"product_id"`
	VariationID   string          `json:"variation_id"`
	WarehouseID   string          `json:"warehouse_id"`
	AsOf          *time.Time      `json:"as_of,omitempty"`
	Computed      decimal.Decimal `json:"computed"` // suma del replay
	Stored        decimal.Decimal `json:"stored"`   // proyección en stock_levels
	Variance      decimal.Decimal `json:"variance"` // computed - stored
	MovementCount int             `json:"movement_count"`
	Lines         []KardexLineDTO `json:"lines,omitempty"`
}

// RepairResponse resultado de una reparación de saldo.
type RepairResponse struct {
	Report ReconciliationReportDTO `json:"report"`
	// Repaired indica si hubo ajuste; false cuando la variación era cero.
	Repaired bool `json:"repaired"`
	// CorrectionID id del asiento sintético de auditoría, si hubo ajuste.
	CorrectionID *int64 `json:"correction_id,omitempty"`
}
