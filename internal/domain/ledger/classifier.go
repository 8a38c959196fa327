package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// Tipos de evento de negocio que el clasificador sabe mapear a asientos.
const (
	EventOpeningStock    = "opening_stock"
	EventPurchaseReceipt = "purchase_receipt"
	EventSale            = "sale"
	EventTransfer        = "transfer"
	EventCorrection      = "correction"
	EventCustomerReturn  = "customer_return"
	EventSupplierReturn  = "supplier_return"

	// Lados sueltos de un traslado documental: el envío asienta la salida y la
	// recepción la entrada, cada uno en su propia transición de estado.
	EventTransferOut = "transfer_out"
	EventTransferIn  = "transfer_in"
)

// Event es un evento de negocio que afecta stock, tal como lo entrega el
// handler del documento (aprobación de compra, cierre de venta, envío o
// recepción de traslado, ajuste). Quantity es el delta solicitado CON signo;
// el clasificador valida la convención de signo por tipo y nunca la voltea.
type Event struct {
	Type            string
	CompanyID       string
	ProductID       string
	VariationID     string
	WarehouseID     string // eventos de una sola bodega
	FromWarehouseID string // solo traslados
	ToWarehouseID   string // solo traslados
	Quantity        decimal.Decimal
	UnitCost        *decimal.Decimal
	ReferenceType   string
	ReferenceID     string
	TransactionDate time.Time
	CreatedBy       string
}

// Intent es la intención de asiento que produce el clasificador: tipo canónico,
// bodega afectada y delta con signo. Un traslado produce dos intents que el
// escritor debe asentar juntos o no asentar.
type Intent struct {
	Type        string
	WarehouseID string
	Quantity    decimal.Decimal
	UnitCost    *decimal.Decimal
}

// signConvention: +1 exige delta positivo, -1 exige delta negativo,
// 0 admite cualquier signo (nunca cero).
var signConvention = map[string]int{
	EventOpeningStock:    +1,
	EventPurchaseReceipt: +1,
	EventCustomerReturn:  +1,
	EventTransferIn:      +1,
	EventSale:            -1,
	EventSupplierReturn:  -1,
	EventTransferOut:     -1,
	EventCorrection:      0,
}

// costRequired: tipos que afectan valoración y exigen costo unitario.
var costRequired = map[string]bool{
	EventOpeningStock:    true,
	EventPurchaseReceipt: true,
}

// Classify mapea un evento de negocio a sus intenciones de asiento.
// Determinista: el mismo evento produce siempre los mismos intents.
// Rechaza cantidad cero (no ensucia el kardex), signo inconsistente con el
// tipo (jamás se voltea en silencio) y tipos desconocidos, todo con
// domain.ErrInvalidInput envuelto con el detalle.
func Classify(ev Event) ([]Intent, error) {
	if ev.Quantity.IsZero() {
		return nil, fmt.Errorf("%w: cantidad cero no genera movimiento", domain.ErrInvalidInput)
	}
	if ev.UnitCost != nil && ev.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}

	if ev.Type == EventTransfer {
		return classifyTransfer(ev)
	}

	sign, ok := signConvention[ev.Type]
	if !ok {
		return nil, fmt.Errorf("%w: tipo de evento desconocido %q", domain.ErrInvalidInput, ev.Type)
	}
	if ev.WarehouseID == "" {
		return nil, fmt.Errorf("%w: bodega requerida", domain.ErrInvalidInput)
	}
	if sign > 0 && ev.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: %s exige delta positivo", domain.ErrInvalidInput, ev.Type)
	}
	if sign < 0 && ev.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: %s exige delta negativo", domain.ErrInvalidInput, ev.Type)
	}
	if costRequired[ev.Type] && ev.UnitCost == nil {
		return nil, fmt.Errorf("%w: %s exige costo unitario", domain.ErrInvalidInput, ev.Type)
	}

	return []Intent{{
		Type:        movementTypeFor(ev.Type),
		WarehouseID: ev.WarehouseID,
		Quantity:    ev.Quantity,
		UnitCost:    ev.UnitCost,
	}}, nil
}

// classifyTransfer produce el par salida/entrada. Quantity es la cantidad
// trasladada y debe ser positiva; el signo lo pone el clasificador.
func classifyTransfer(ev Event) ([]Intent, error) {
	if ev.FromWarehouseID == "" || ev.ToWarehouseID == "" {
		return nil, fmt.Errorf("%w: traslado requiere bodega origen y destino", domain.ErrInvalidInput)
	}
	if ev.FromWarehouseID == ev.ToWarehouseID {
		return nil, fmt.Errorf("%w: bodega origen y destino iguales", domain.ErrInvalidInput)
	}
	if !ev.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: traslado exige cantidad positiva", domain.ErrInvalidInput)
	}
	return []Intent{
		{
			Type:        entity.MovementTransferOut,
			WarehouseID: ev.FromWarehouseID,
			Quantity:    ev.Quantity.Neg(),
			UnitCost:    ev.UnitCost,
		},
		{
			Type:        entity.MovementTransferIn,
			WarehouseID: ev.ToWarehouseID,
			Quantity:    ev.Quantity,
			UnitCost:    ev.UnitCost,
		},
	}, nil
}

// movementTypeFor mapea tipo de evento a tipo canónico de asiento. Para los
// eventos de una sola bodega coinciden uno a uno.
func movementTypeFor(eventType string) string {
	switch eventType {
	case EventOpeningStock:
		return entity.MovementOpeningStock
	case EventPurchaseReceipt:
		return entity.MovementPurchaseReceipt
	case EventSale:
		return entity.MovementSale
	case EventCorrection:
		return entity.MovementCorrection
	case EventCustomerReturn:
		return entity.MovementCustomerReturn
	case EventSupplierReturn:
		return entity.MovementSupplierReturn
	}
	return eventType
}

// Movements materializa los intents del evento como asientos listos para
// persistir (sin ID: lo asigna la BD al insertar).
func Movements(ev Event) ([]*entity.StockMovement, error) {
	intents, err := Classify(ev)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	txDate := ev.TransactionDate
	if txDate.IsZero() {
		txDate = now
	}
	movements := make([]*entity.StockMovement, 0, len(intents))
	for _, in := range intents {
		movements = append(movements, &entity.StockMovement{
			CompanyID:       ev.CompanyID,
			ProductID:       ev.ProductID,
			VariationID:     ev.VariationID,
			WarehouseID:     in.WarehouseID,
			Type:            in.Type,
			Quantity:        in.Quantity,
			UnitCost:        in.UnitCost,
			ReferenceType:   ev.ReferenceType,
			ReferenceID:     ev.ReferenceID,
			TransactionDate: txDate,
			CreatedAt:       now,
			CreatedBy:       ev.CreatedBy,
		})
	}
	return movements, nil
}
