package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// LedgerKey identifica la serie de kardex de una (variación, bodega) dentro de
// la empresa.
type LedgerKey struct {
	CompanyID   string
	ProductID   string
	VariationID string
	WarehouseID string
}

// StockMovementRepository define el puerto de persistencia para el log de
// asientos del kardex. Los asientos son append-only: no hay Update ni Delete,
// solo Void (soft-delete auditada).
type StockMovementRepository interface {
	// Create inserta el asiento y asigna movement.ID (secuencia de la BD).
	// Devuelve domain.ErrDuplicateMovement si ya existe un asiento con la
	// misma clave de idempotencia.
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, companyID string, id int64) (*entity.StockMovement, error)
	// GetByKey busca el asiento existente para una clave de idempotencia.
	GetByKey(ctx context.Context, key entity.IdempotencyKey) (*entity.StockMovement, error)
	// ListForReplay carga los asientos de la serie en orden (transaction_date,
	// id), incluidos los anulados (el replay los omite pero el kardex los
	// muestra). asOf acota por fecha efectiva; nil = toda la historia.
	ListForReplay(ctx context.Context, key LedgerKey, asOf *time.Time) ([]*entity.StockMovement, error)
	// ListByReference devuelve los asientos originados por un documento.
	ListByReference(ctx context.Context, companyID, referenceType, referenceID string) ([]*entity.StockMovement, error)
	ListByWarehouse(ctx context.Context, companyID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// Void anula el asiento (voided_at/voided_by); nunca lo borra.
	Void(ctx context.Context, companyID string, id int64, voidedBy string) error
}
