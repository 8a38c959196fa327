package entity

import "time"

// Company representa una organización/tenant del sistema (multi-tenant).
// Todo el kardex está particionado por CompanyID; nunca hay agregación cruzada.
type Company struct {
	ID      string
	Name    string
	NIT     string // NIT colombiano (con o sin dígito de verificación)
	Address string
	Phone   string
	Email   string
	Status  string // active, suspended, inactive

	// AllowNegativeStock permite saldos negativos transitorios (backorder /
	// sobreventa). Si es false, un asiento que dejaría el saldo bajo cero
	// falla con ErrInsufficientStock antes de escribirse.
	AllowNegativeStock bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
