package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del documento de traslado entre bodegas.
const (
	TransferCreated   = "created"
	TransferSent      = "sent"
	TransferInTransit = "in_transit"
	TransferReceived  = "received"
	TransferCompleted = "completed"
	TransferCancelled = "cancelled"
)

// transferTransitions define las transiciones permitidas del documento.
// Solo Send (created→sent) y Receive (in_transit→received) asientan movimientos
// en el kardex, y cada una a lo más una vez (clave de idempotencia).
var transferTransitions = map[string][]string{
	TransferCreated:   {TransferSent, TransferCancelled},
	TransferSent:      {TransferInTransit, TransferCancelled},
	TransferInTransit: {TransferReceived, TransferCancelled},
	TransferReceived:  {TransferCompleted, TransferCancelled},
}

// CanTransition indica si el paso from→to está permitido por la máquina de
// estados. completed y cancelled son terminales.
func CanTransition(from, to string) bool {
	for _, next := range transferTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StockTransfer es el documento de traslado de stock entre dos bodegas de la
// misma empresa. La salida se asienta al enviar y la entrada al recibir; la
// cancelación después de asentar exige movimientos de reversa explícitos,
// nunca borrado de historia.
type StockTransfer struct {
	ID              string
	CompanyID       string
	FromWarehouseID string
	ToWarehouseID   string
	Status          string // ver constantes Transfer*
	Notes           string
	SentAt          *time.Time
	ReceivedAt      *time.Time
	CancelledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CreatedBy       string

	Items []StockTransferItem
}

// StockTransferItem es una línea del traslado (una variación, una cantidad).
type StockTransferItem struct {
	ID          string
	TransferID  string
	ProductID   string
	VariationID string
	Quantity    decimal.Decimal // siempre positiva; el signo lo pone el clasificador
}
