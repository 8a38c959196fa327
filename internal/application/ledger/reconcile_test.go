package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	domainledger "github.com/jhoicas/Kardex-api/internal/domain/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

func newReconcileUC(s *fakeStore) *ledger.ReconcileUseCase {
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return ledger.NewReconcileUseCase(&fakeTxRunner{s}, &fakeMovementRepo{s}, &fakeLevelRepo{s}, log)
}

func seriesKey() repository.LedgerKey {
	return repository.LedgerKey{
		CompanyID: "co-1", ProductID: "prod-1", VariationID: "var-1", WarehouseID: "wh-1",
	}
}

// Después de asientos normales, log y proyección cuadran.
func TestReconcile_SinDescuadre(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	in := f.input(domainledger.EventOpeningStock, "100", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("10")
	_, err := f.appendUC.Append(ctx, in)
	require.NoError(t, err)
	_, err = f.appendUC.Append(ctx, f.input(domainledger.EventSale, "-30", entity.RefSale, "venta-1"))
	require.NoError(t, err)

	report, err := newReconcileUC(f.store).Reconcile(ctx, seriesKey(), nil)
	require.NoError(t, err)
	assert.True(t, report.Variance.IsZero())
	assert.True(t, report.Computed.Equal(dec("70")))
	assert.True(t, report.Stored.Equal(dec("70")))
	assert.Equal(t, 2, report.MovementCount)
}

// Una proyección corrompida a mano se detecta, y la detección no la toca.
func TestReconcile_DetectaDescuadreSinCorregir(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	in := f.input(domainledger.EventOpeningStock, "100", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("10")
	_, err := f.appendUC.Append(ctx, in)
	require.NoError(t, err)

	// Corrupción simulada: alguien escribió el saldo por fuera del escritor.
	f.store.levels[levelKey("co-1", "var-1", "wh-1")].Quantity = dec("93")

	report, err := newReconcileUC(f.store).Reconcile(ctx, seriesKey(), nil)
	require.NoError(t, err)
	assert.True(t, report.Computed.Equal(dec("100")))
	assert.True(t, report.Stored.Equal(dec("93")))
	assert.True(t, report.Variance.Equal(dec("7")))

	assert.True(t, f.balance(t, "wh-1").Equal(dec("93")),
		"la conciliación es de solo lectura")
}

// Reparar fija la proyección al valor replicado y deja el asiento sintético de
// auditoría, que nace anulado para no entrar a la suma.
func TestRepair_CorrigeYDejaRastro(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	in := f.input(domainledger.EventOpeningStock, "100", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("10")
	_, err := f.appendUC.Append(ctx, in)
	require.NoError(t, err)
	f.store.levels[levelKey("co-1", "var-1", "wh-1")].Quantity = dec("93")

	uc := newReconcileUC(f.store)
	result, err := uc.Repair(ctx, seriesKey(), "admin-1")
	require.NoError(t, err)
	assert.True(t, result.Repaired)
	require.NotNil(t, result.Correction)
	assert.True(t, result.Correction.Voided(), "el asiento sintético nace anulado")
	assert.Equal(t, entity.MovementCorrection, result.Correction.Type)
	assert.Equal(t, entity.RefLedgerRepair, result.Correction.ReferenceType)
	assert.Equal(t, "admin-1", result.Correction.CreatedBy)
	assert.True(t, result.Correction.Quantity.Equal(dec("7")), "documenta la variación")

	assert.True(t, f.balance(t, "wh-1").Equal(dec("100")))

	// La serie sigue cuadrando después de reparar: el asiento anulado no suma.
	report, err := uc.Reconcile(ctx, seriesKey(), nil)
	require.NoError(t, err)
	assert.True(t, report.Variance.IsZero())
}

// Con la proyección sana, reparar no escribe nada.
func TestRepair_Idempotente(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	in := f.input(domainledger.EventOpeningStock, "100", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("10")
	_, err := f.appendUC.Append(ctx, in)
	require.NoError(t, err)
	f.store.levels[levelKey("co-1", "var-1", "wh-1")].Quantity = dec("93")

	uc := newReconcileUC(f.store)
	first, err := uc.Repair(ctx, seriesKey(), "admin-1")
	require.NoError(t, err)
	require.True(t, first.Repaired)
	movimientos := len(f.store.movements)

	second, err := uc.Repair(ctx, seriesKey(), "admin-1")
	require.NoError(t, err)
	assert.False(t, second.Repaired)
	assert.Nil(t, second.Correction)
	assert.Len(t, f.store.movements, movimientos, "la segunda pasada no deja asientos nuevos")
}

func TestRepair_RequiereActor(t *testing.T) {
	f := newFixture(t, false)
	_, err := newReconcileUC(f.store).Repair(context.Background(), seriesKey(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Con asOf el reporte es un estado histórico: no hay proyección histórica
// contra la cual variar.
func TestReconcile_ConFechaDeCorte(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	ayer := time.Now().Add(-24 * time.Hour)
	in := f.input(domainledger.EventOpeningStock, "100", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("10")
	in.TransactionDate = ayer
	_, err := f.appendUC.Append(ctx, in)
	require.NoError(t, err)
	_, err = f.appendUC.Append(ctx, f.input(domainledger.EventSale, "-30", entity.RefSale, "venta-1"))
	require.NoError(t, err)

	corte := ayer.Add(time.Hour)
	report, err := newReconcileUC(f.store).Reconcile(ctx, seriesKey(), &corte)
	require.NoError(t, err)
	assert.True(t, report.Computed.Equal(dec("100")), "la venta de hoy queda fuera del corte")
	assert.True(t, report.Variance.IsZero())
	assert.True(t, report.Stored.Equal(report.Computed))
	assert.Equal(t, 1, report.MovementCount)
}

// Consultas de lectura: saldo actual y estado de cuenta usan el mismo replay.
func TestQuery_SaldoYKardex(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	queryUC := ledger.NewQueryUseCase(&fakeMovementRepo{f.store}, &fakeLevelRepo{f.store})

	// Serie sin movimientos: saldo cero, no error.
	level, err := queryUC.CurrentBalance(ctx, seriesKey())
	require.NoError(t, err)
	assert.True(t, level.Quantity.IsZero())

	in := f.input(domainledger.EventOpeningStock, "100", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("10")
	_, err = f.appendUC.Append(ctx, in)
	require.NoError(t, err)
	_, err = f.appendUC.Append(ctx, f.input(domainledger.EventSale, "-30", entity.RefSale, "venta-1"))
	require.NoError(t, err)

	level, err = queryUC.CurrentBalance(ctx, seriesKey())
	require.NoError(t, err)
	assert.True(t, level.Quantity.Equal(dec("70")))

	lines, balance, err := queryUC.Kardex(ctx, seriesKey(), nil)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, balance.Equal(dec("70")))
	assert.True(t, lines[0].Balance.Equal(dec("100")))
	assert.True(t, lines[1].Balance.Equal(dec("70")))
	assert.True(t, balance.Equal(level.Quantity), "mismo replay, mismo saldo")
}
