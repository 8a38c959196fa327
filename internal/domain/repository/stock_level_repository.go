package repository

import (
	"context"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// StockLevelRepository define el puerto para la proyección de saldos por
// (variación, bodega). Usado dentro de transacciones junto con el log: el
// asiento y la actualización del saldo van en la misma unidad de trabajo.
type StockLevelRepository interface {
	Get(ctx context.Context, key LedgerKey) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para serializar
	// asientos concurrentes sobre la misma (variación, bodega). Si la fila no
	// existe devuelve un nivel en cero (se crea perezosamente en Upsert).
	GetForUpdate(ctx context.Context, key LedgerKey) (*entity.StockLevel, error)
	Upsert(ctx context.Context, level *entity.StockLevel) error
	ListByWarehouse(ctx context.Context, companyID, warehouseID string, limit, offset int) ([]*entity.StockLevel, error)
	ListByVariation(ctx context.Context, companyID, variationID string) ([]*entity.StockLevel, error)
}
