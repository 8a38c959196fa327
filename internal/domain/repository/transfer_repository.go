package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia para documentos de
// traslado y sus líneas.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.StockTransfer) error
	// GetByID carga el documento con sus líneas. nil si no existe.
	GetByID(ctx context.Context, companyID, id string) (*entity.StockTransfer, error)
	// UpdateStatus aplica la transición de estado y los timestamps asociados.
	// Devuelve domain.ErrConflict si el estado en BD ya no es fromStatus
	// (protección contra transiciones concurrentes del mismo documento).
	UpdateStatus(ctx context.Context, transfer *entity.StockTransfer, fromStatus string) error
	ListByCompany(ctx context.Context, companyID string, status string, limit, offset int) ([]*entity.StockTransfer, error)
}
