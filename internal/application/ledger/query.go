package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	domainledger "github.com/jhoicas/Kardex-api/internal/domain/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// QueryUseCase lecturas del kardex para la capa de reportes. Solo consulta;
// jamás repara (la reparación es una acción de mantenimiento explícita).
type QueryUseCase struct {
	movRepo   repository.StockMovementRepository
	levelRepo repository.StockLevelRepository
}

// NewQueryUseCase construye el caso de uso de consulta.
func NewQueryUseCase(movRepo repository.StockMovementRepository, levelRepo repository.StockLevelRepository) *QueryUseCase {
	return &QueryUseCase{movRepo: movRepo, levelRepo: levelRepo}
}

// CurrentBalance lee el saldo actual desde la proyección, sin replicar el log.
// Devuelve cero para una serie sin movimientos (nivel creado perezosamente).
func (uc *QueryUseCase) CurrentBalance(ctx context.Context, key repository.LedgerKey) (*entity.StockLevel, error) {
	level, err := uc.levelRepo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if level == nil {
		level = &entity.StockLevel{
			CompanyID:   key.CompanyID,
			ProductID:   key.ProductID,
			VariationID: key.VariationID,
			WarehouseID: key.WarehouseID,
			Quantity:    decimal.Zero,
		}
	}
	return level, nil
}

// Kardex devuelve el estado de cuenta de la serie: todos los asientos en orden
// (fecha efectiva, id) con saldo corrido, opcionalmente cortado en asOf. Usa el
// mismo replay que la conciliación, por lo que ambos contextos muestran
// exactamente el mismo orden y los mismos saldos.
func (uc *QueryUseCase) Kardex(ctx context.Context, key repository.LedgerKey, asOf *time.Time) ([]domainledger.Line, decimal.Decimal, error) {
	movements, err := uc.movRepo.ListForReplay(ctx, key, asOf)
	if err != nil {
		return nil, decimal.Zero, err
	}
	lines, balance := domainledger.Replay(movements)
	return lines, balance, nil
}
