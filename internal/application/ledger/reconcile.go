package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	domainledger "github.com/jhoicas/Kardex-api/internal/domain/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

// ReconcileUseCase verifica (y bajo orden explícita repara) que la proyección
// stock_levels coincida con la suma replicada del log. La detección es de solo
// lectura y nunca corrige en silencio: Repair es una operación privilegiada
// aparte, con su propio rastro de auditoría.
type ReconcileUseCase struct {
	txRunner  TxRunner
	movRepo   repository.StockMovementRepository
	levelRepo repository.StockLevelRepository
	log       *logger.Logger
}

// NewReconcileUseCase construye el caso de uso. movRepo y levelRepo van atados
// al pool (lecturas); las reparaciones abren su propia transacción vía txRunner.
func NewReconcileUseCase(
	txRunner TxRunner,
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	log *logger.Logger,
) *ReconcileUseCase {
	return &ReconcileUseCase{txRunner: txRunner, movRepo: movRepo, levelRepo: levelRepo, log: log}
}

// Report resultado de una conciliación. Variance distinta de cero es un
// hallazgo esperado durante investigación, no un error.
type Report struct {
	Key           repository.LedgerKey
	AsOf          *time.Time
	Lines         []domainledger.Line
	Computed      decimal.Decimal
	Stored        decimal.Decimal
	Variance      decimal.Decimal // Computed - Stored; solo significativa sin AsOf
	MovementCount int
}

// RepairResult resultado de una reparación.
type RepairResult struct {
	Report     *Report
	Repaired   bool
	Correction *entity.StockMovement // asiento sintético de auditoría, nil si no hubo ajuste
}

// Reconcile replica el log de la (variación, bodega) en orden (fecha efectiva,
// id), omite anulados y compara contra la proyección almacenada. Con asOf, el
// replay se corta en esa fecha y el reporte es un estado histórico: no existe
// proyección histórica contra la cual variar, así que Variance queda en cero.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, key repository.LedgerKey, asOf *time.Time) (*Report, error) {
	movements, err := uc.movRepo.ListForReplay(ctx, key, asOf)
	if err != nil {
		return nil, err
	}
	lines, computed := domainledger.Replay(movements)

	report := &Report{
		Key:           key,
		AsOf:          asOf,
		Lines:         lines,
		Computed:      computed,
		Stored:        computed,
		Variance:      decimal.Zero,
		MovementCount: len(lines),
	}
	if asOf == nil {
		stored := decimal.Zero
		level, err := uc.levelRepo.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if level != nil {
			stored = level.Quantity
		}
		report.Stored = stored
		report.Variance = computed.Sub(stored)
		if !report.Variance.IsZero() {
			uc.log.Warn().
				Str("variation_id", key.VariationID).
				Str("warehouse_id", key.WarehouseID).
				Str("computed", computed.String()).
				Str("stored", stored.String()).
				Str("variance", report.Variance.String()).
				Int("movements", len(lines)).
				Msg("descuadre entre kardex y proyección")
		}
	}
	return report, nil
}

// Repair recalcula la suma del log con la fila de saldo bloqueada y fija la
// proyección al valor replicado, dejando un asiento sintético de corrección
// que documenta el ajuste. El asiento nace anulado: es auditoría pura; un
// asiento vivo entraría a la suma y duplicaría la corrección. Idempotente:
// con variación cero no escribe nada.
func (uc *ReconcileUseCase) Repair(ctx context.Context, key repository.LedgerKey, actor string) (*RepairResult, error) {
	if actor == "" {
		return nil, domain.ErrInvalidInput
	}
	result := &RepairResult{}
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		_ repository.ProductRepository,
	) error {
		level, err := levelRepo.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		movements, err := movRepo.ListForReplay(ctx, key, nil)
		if err != nil {
			return err
		}
		lines, computed := domainledger.Replay(movements)
		variance := computed.Sub(level.Quantity)

		result.Report = &Report{
			Key:           key,
			Lines:         lines,
			Computed:      computed,
			Stored:        level.Quantity,
			Variance:      variance,
			MovementCount: len(lines),
		}
		if variance.IsZero() {
			return nil
		}

		now := time.Now()
		correction := &entity.StockMovement{
			CompanyID:       key.CompanyID,
			ProductID:       key.ProductID,
			VariationID:     key.VariationID,
			WarehouseID:     key.WarehouseID,
			Type:            entity.MovementCorrection,
			Quantity:        variance,
			ReferenceType:   entity.RefLedgerRepair,
			ReferenceID:     uuid.New().String(),
			TransactionDate: now,
			CreatedAt:       now,
			CreatedBy:       actor,
			VoidedAt:        &now,
			VoidedBy:        actor,
		}
		if err := movRepo.Create(ctx, correction); err != nil {
			return err
		}
		level.Quantity = computed
		level.UpdatedAt = now
		if err := levelRepo.Upsert(ctx, level); err != nil {
			return err
		}

		result.Repaired = true
		result.Correction = correction
		uc.log.Warn().
			Str("variation_id", key.VariationID).
			Str("warehouse_id", key.WarehouseID).
			Str("variance", variance.String()).
			Str("actor", actor).
			Int64("correction_id", correction.ID).
			Msg("proyección reparada desde el kardex")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
