package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	domainledger "github.com/jhoicas/Kardex-api/internal/domain/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// fixture arma una empresa con dos bodegas, un producto y una variación.
type fixture struct {
	store    *fakeStore
	appendUC *ledger.AppendUseCase
	movRepo  *fakeMovementRepo
	lvlRepo  *fakeLevelRepo
}

func newFixture(t *testing.T, allowNegative bool) *fixture {
	t.Helper()
	s := newFakeStore()
	s.companies["co-1"] = &entity.Company{ID: "co-1", Name: "Tienda", Status: "active", AllowNegativeStock: allowNegative}
	s.companies["co-2"] = &entity.Company{ID: "co-2", Name: "Otra", Status: "active"}
	s.warehouses["wh-1"] = &entity.Warehouse{ID: "wh-1", CompanyID: "co-1", Name: "Principal"}
	s.warehouses["wh-2"] = &entity.Warehouse{ID: "wh-2", CompanyID: "co-1", Name: "Sucursal"}
	s.warehouses["wh-ajena"] = &entity.Warehouse{ID: "wh-ajena", CompanyID: "co-2", Name: "Ajena"}
	s.products["prod-1"] = &entity.Product{ID: "prod-1", CompanyID: "co-1", SKU: "CAM-001", Cost: decimal.Zero}
	s.products["prod-ajeno"] = &entity.Product{ID: "prod-ajeno", CompanyID: "co-2", SKU: "X-1"}
	s.variations["var-1"] = &entity.ProductVariation{ID: "var-1", CompanyID: "co-1", ProductID: "prod-1", SKU: "CAM-001-M"}

	uc := ledger.NewAppendUseCase(&fakeTxRunner{s}, &fakeCompanyRepo{s}, &fakeProductRepo{s}, &fakeWarehouseRepo{s})
	return &fixture{store: s, appendUC: uc, movRepo: &fakeMovementRepo{s}, lvlRepo: &fakeLevelRepo{s}}
}

func (f *fixture) input(tipo, qty, refType, refID string) ledger.AppendInput {
	return ledger.AppendInput{
		CompanyID:       "co-1",
		UserID:          "user-1",
		Type:            tipo,
		ProductID:       "prod-1",
		VariationID:     "var-1",
		WarehouseID:     "wh-1",
		Quantity:        dec(qty),
		ReferenceType:   refType,
		ReferenceID:     refID,
		TransactionDate: time.Now(),
	}
}

func (f *fixture) balance(t *testing.T, warehouseID string) decimal.Decimal {
	t.Helper()
	level, err := f.lvlRepo.Get(context.Background(), repository.LedgerKey{
		CompanyID: "co-1", ProductID: "prod-1", VariationID: "var-1", WarehouseID: warehouseID,
	})
	require.NoError(t, err)
	return level.Quantity
}

// Identidad del kardex: el saldo proyectado es la suma de los asientos.
func TestAppend_SaldoIgualASumaDeAsientos(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	in := f.input(domainledger.EventOpeningStock, "100", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("10")
	_, err := f.appendUC.Append(ctx, in)
	require.NoError(t, err)

	in = f.input(domainledger.EventPurchaseReceipt, "50", entity.RefPurchase, "compra-1")
	in.UnitCost = decPtr("10")
	_, err = f.appendUC.Append(ctx, in)
	require.NoError(t, err)

	_, err = f.appendUC.Append(ctx, f.input(domainledger.EventSale, "-30", entity.RefSale, "venta-1"))
	require.NoError(t, err)

	assert.True(t, f.balance(t, "wh-1").Equal(dec("120")))

	movements, err := f.movRepo.ListForReplay(ctx, repository.LedgerKey{
		CompanyID: "co-1", ProductID: "prod-1", VariationID: "var-1", WarehouseID: "wh-1",
	}, nil)
	require.NoError(t, err)
	_, computed := domainledger.Replay(movements)
	assert.True(t, computed.Equal(f.balance(t, "wh-1")),
		"la proyección debe coincidir con la suma replicada del log")
}

// Idempotencia: reintentar el mismo evento es un no-op exitoso, nunca un
// doble asiento.
func TestAppend_ReintentoEsNoOp(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.appendUC.Append(ctx, f.input(domainledger.EventSale, "-5", entity.RefSale, "venta-9"))
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	require.Len(t, first.Movements, 1)

	retry, err := f.appendUC.Append(ctx, f.input(domainledger.EventSale, "-5", entity.RefSale, "venta-9"))
	require.NoError(t, err, "el reintento debe ser éxito, no fallo")
	assert.True(t, retry.Duplicate)
	require.Len(t, retry.Movements, 1)
	assert.Equal(t, first.Movements[0].ID, retry.Movements[0].ID,
		"el reintento devuelve el asiento preexistente")

	assert.Len(t, f.store.movements, 1, "solo un asiento en el log")
	assert.True(t, f.balance(t, "wh-1").Equal(dec("-5")), "el saldo se aplicó una sola vez")
}

// Sobreventa bloqueada: el asiento falla antes de escribir y el saldo queda
// intacto.
func TestAppend_SobreventaBloqueada(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	in := f.input(domainledger.EventOpeningStock, "5", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("10")
	_, err := f.appendUC.Append(ctx, in)
	require.NoError(t, err)

	_, err = f.appendUC.Append(ctx, f.input(domainledger.EventSale, "-10", entity.RefSale, "venta-2"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, f.balance(t, "wh-1").Equal(dec("5")), "el saldo queda en 5")
	assert.Len(t, f.store.movements, 1, "la venta rechazada no deja fila")
}

// Con allow_negative_stock la misma venta pasa y el saldo queda negativo.
func TestAppend_SobreventaPermitidaPorPolitica(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.appendUC.Append(ctx, f.input(domainledger.EventSale, "-10", entity.RefSale, "venta-3"))
	require.NoError(t, err)
	assert.True(t, f.balance(t, "wh-1").Equal(dec("-10")))
}

// Traslado directo: el par salida/entrada se asienta junto y el total entre
// bodegas se conserva.
func TestAppend_TrasladoAtomico(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	in := f.input(domainledger.EventOpeningStock, "100", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("10")
	_, err := f.appendUC.Append(ctx, in)
	require.NoError(t, err)

	transfer := f.input(domainledger.EventTransfer, "20", entity.RefTransfer, "tras-1")
	transfer.WarehouseID = ""
	transfer.FromWarehouseID = "wh-1"
	transfer.ToWarehouseID = "wh-2"
	result, err := f.appendUC.Append(ctx, transfer)
	require.NoError(t, err)
	require.Len(t, result.Movements, 2, "el traslado asienta salida y entrada juntas")

	assert.True(t, f.balance(t, "wh-1").Equal(dec("80")))
	assert.True(t, f.balance(t, "wh-2").Equal(dec("20")))
}

// Atomicidad del par: si la salida no alcanza stock, tampoco queda la entrada.
func TestAppend_TrasladoSinStockNoDejaNingunLado(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	transfer := f.input(domainledger.EventTransfer, "20", entity.RefTransfer, "tras-2")
	transfer.WarehouseID = ""
	transfer.FromWarehouseID = "wh-1"
	transfer.ToWarehouseID = "wh-2"
	_, err := f.appendUC.Append(ctx, transfer)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Empty(t, f.store.movements, "jamás se observa exactamente un lado del par")
	assert.True(t, f.balance(t, "wh-1").IsZero())
	assert.True(t, f.balance(t, "wh-2").IsZero())
}

// Entradas valorizadas mueven el costo promedio ponderado del producto.
func TestAppend_ActualizaCostoPromedio(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	in := f.input(domainledger.EventOpeningStock, "10", entity.RefOpening, "op-1")
	in.UnitCost = decPtr("100")
	_, err := f.appendUC.Append(ctx, in)
	require.NoError(t, err)
	assert.True(t, f.store.products["prod-1"].Cost.Equal(dec("100")))

	in = f.input(domainledger.EventPurchaseReceipt, "10", entity.RefPurchase, "compra-2")
	in.UnitCost = decPtr("200")
	_, err = f.appendUC.Append(ctx, in)
	require.NoError(t, err)
	assert.True(t, f.store.products["prod-1"].Cost.Equal(dec("150")),
		"(10*100 + 10*200) / 20 = 150")

	// La venta no toca el costo promedio.
	_, err = f.appendUC.Append(ctx, f.input(domainledger.EventSale, "-5", entity.RefSale, "venta-4"))
	require.NoError(t, err)
	assert.True(t, f.store.products["prod-1"].Cost.Equal(dec("150")))
}

// Tenencia multi-tenant: recursos de otra empresa se rechazan.
func TestAppend_RechazaRecursosDeOtraEmpresa(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	in := f.input(domainledger.EventSale, "-1", entity.RefSale, "venta-5")
	in.ProductID = "prod-ajeno"
	_, err := f.appendUC.Append(ctx, in)
	assert.ErrorIs(t, err, domain.ErrForbidden, "producto de otra empresa")

	in = f.input(domainledger.EventSale, "-1", entity.RefSale, "venta-6")
	in.WarehouseID = "wh-ajena"
	_, err = f.appendUC.Append(ctx, in)
	assert.ErrorIs(t, err, domain.ErrNotFound, "bodega de otra empresa no es visible")

	assert.Empty(t, f.store.movements)
}

// Validaciones del lote.
func TestAppendBatch_Validaciones(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.appendUC.AppendBatch(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "lote vacío")

	sinRef := f.input(domainledger.EventSale, "-1", "", "")
	_, err = f.appendUC.AppendBatch(ctx, []ledger.AppendInput{sinRef})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "referencia requerida")

	a := f.input(domainledger.EventSale, "-1", entity.RefSale, "v-1")
	b := f.input(domainledger.EventSale, "-1", entity.RefSale, "v-2")
	b.CompanyID = "co-2"
	_, err = f.appendUC.AppendBatch(ctx, []ledger.AppendInput{a, b})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "empresas mezcladas")
}
