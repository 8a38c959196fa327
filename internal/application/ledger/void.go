package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// VoidMovement anula un asiento (soft-delete auditada) y retira su delta de la
// proyección en la misma transacción: el invariante saldo == suma de asientos
// no anulados se conserva sin necesidad de reparación. Idempotente: anular un
// asiento ya anulado es un no-op.
func (uc *AppendUseCase) VoidMovement(ctx context.Context, companyID string, movementID int64, actor string) error {
	if actor == "" {
		return domain.ErrInvalidInput
	}
	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil {
		return err
	}
	if company == nil {
		return domain.ErrNotFound
	}

	return uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		_ repository.ProductRepository,
	) error {
		m, err := movRepo.GetByID(ctx, companyID, movementID)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.ErrNotFound
		}
		if m.Voided() {
			return nil
		}

		key := repository.LedgerKey{
			CompanyID:   m.CompanyID,
			ProductID:   m.ProductID,
			VariationID: m.VariationID,
			WarehouseID: m.WarehouseID,
		}
		level, err := levelRepo.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		newQty := level.Quantity.Sub(m.Quantity)
		// Anular una entrada ya consumida dejaría saldo negativo: aplica la
		// misma política de sobreventa que un asiento de salida.
		if m.Quantity.IsPositive() && newQty.IsNegative() && !company.AllowNegativeStock {
			return domain.ErrInsufficientStock
		}
		if err := movRepo.Void(ctx, companyID, movementID, actor); err != nil {
			return err
		}
		level.Quantity = newQty
		level.UpdatedAt = time.Now()
		return levelRepo.Upsert(ctx, level)
	})
}
