package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos canónicos de movimiento del kardex. Cada acción de negocio que afecta
// stock produce exactamente un asiento de uno de estos tipos.
const (
	MovementOpeningStock    = "opening_stock"    // saldo inicial (+)
	MovementPurchaseReceipt = "purchase_receipt" // recepción de compra (+)
	MovementSale            = "sale"             // venta (-)
	MovementTransferOut     = "transfer_out"     // salida por traslado (-)
	MovementTransferIn      = "transfer_in"      // entrada por traslado (+)
	MovementCorrection      = "correction"       // ajuste, cualquier signo
	MovementCustomerReturn  = "customer_return"  // devolución de cliente (+)
	MovementSupplierReturn  = "supplier_return"  // devolución a proveedor (-)
)

// Tipos de documento de referencia (reference_type). La resolución al documento
// concreto es responsabilidad del caller; el kardex solo guarda el puntero.
const (
	RefOpening      = "opening"
	RefPurchase     = "purchase"
	RefSale         = "sale"
	RefTransfer     = "transfer"
	RefCorrection   = "correction"
	RefReturn       = "return"
	RefLedgerRepair = "ledger_repair"
)

// StockMovement es un asiento inmutable del kardex: un cambio atómico con signo
// sobre la cantidad disponible de una (variación, bodega). Una vez insertado no
// se edita ni se borra; las correcciones son asientos nuevos y la anulación es
// soft-delete (VoidedAt) para conservar la pista de auditoría.
type StockMovement struct {
	ID              int64 // asignado por la BD al insertar (BIGSERIAL), monotónico
	CompanyID       string
	ProductID       string
	VariationID     string
	WarehouseID     string
	Type            string          // ver constantes Movement*
	Quantity        decimal.Decimal // con signo: positivo suma stock, negativo resta
	UnitCost        *decimal.Decimal
	ReferenceType   string // documento de negocio que originó el asiento
	ReferenceID     string
	TransactionDate time.Time // fecha efectiva de negocio (puede diferir de CreatedAt)
	CreatedAt       time.Time
	CreatedBy       string // UserID
	VoidedAt        *time.Time
	VoidedBy        string
}

// Voided indica si el asiento fue anulado (excluido de saldos y replays).
func (m *StockMovement) Voided() bool {
	return m.VoidedAt != nil
}

// IdempotencyKey identifica un evento de negocio ya asentado: la combinación
// (referencia, tipo, variación, bodega) dentro de la empresa. Un índice único
// sobre estos campos en stock_movements impide asientos duplicados.
type IdempotencyKey struct {
	CompanyID     string
	ReferenceType string
	ReferenceID   string
	Type          string
	VariationID   string
	WarehouseID   string
}

// Key devuelve la clave de idempotencia del asiento.
func (m *StockMovement) Key() IdempotencyKey {
	return IdempotencyKey{
		CompanyID:     m.CompanyID,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Type:          m.Type,
		VariationID:   m.VariationID,
		WarehouseID:   m.WarehouseID,
	}
}
