package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/ledger"
)

func mov(id int64, date time.Time, qty string) *entity.StockMovement {
	return &entity.StockMovement{
		ID:              id,
		CompanyID:       "co-1",
		ProductID:       "prod-1",
		VariationID:     "var-1",
		WarehouseID:     "wh-1",
		Type:            entity.MovementCorrection,
		Quantity:        dec(qty),
		TransactionDate: date,
	}
}

// Escenario de referencia en la bodega origen: saldo inicial +100, recepción
// de compra +50, venta -30 y salida por traslado -20 (la entrada +20 vive en
// la serie de la bodega destino). Saldos corridos [100, 150, 120, 100].
func TestReplay_SaldosCorridos(t *testing.T) {
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	movements := []*entity.StockMovement{
		mov(1, day, "100"),
		mov(2, day, "50"),
		mov(3, day, "-30"),
		mov(4, day, "-20"),
	}

	lines, balance := ledger.Replay(movements)
	require.Len(t, lines, 4)

	want := []string{"100", "150", "120", "100"}
	for i, w := range want {
		assert.True(t, lines[i].Balance.Equal(dec(w)),
			"saldo corrido en el renglón %d: esperado %s, obtuvo %s", i, w, lines[i].Balance)
	}
	assert.True(t, balance.Equal(dec("100")))

	// La serie de la bodega destino solo ve la entrada del traslado.
	destino := []*entity.StockMovement{mov(5, day, "20")}
	_, balanceDestino := ledger.Replay(destino)
	assert.True(t, balanceDestino.Equal(dec("20")))
}

// Mismo día: el desempate es por id ascendente (orden de inserción), sin
// importar el orden de llegada del slice.
func TestReplay_DesempatePorID(t *testing.T) {
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	movements := []*entity.StockMovement{
		mov(9, day, "-5"),
		mov(3, day, "10"),
		mov(7, day, "2"),
	}

	lines, balance := ledger.Replay(movements)
	require.Len(t, lines, 3)
	assert.Equal(t, int64(3), lines[0].Movement.ID)
	assert.Equal(t, int64(7), lines[1].Movement.ID)
	assert.Equal(t, int64(9), lines[2].Movement.ID)
	assert.True(t, balance.Equal(dec("7")))
}

// La fecha efectiva manda sobre el id: un asiento retroactivo (fecha anterior,
// id mayor) se replica en su posición cronológica.
func TestReplay_FechaEfectivaAntesQueID(t *testing.T) {
	d1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	movements := []*entity.StockMovement{
		mov(1, d2, "10"),
		mov(2, d1, "100"), // retroactivo: insertado después, fecha anterior
	}

	lines, balance := ledger.Replay(movements)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(2), lines[0].Movement.ID, "el retroactivo va primero")
	assert.True(t, lines[0].Balance.Equal(dec("100")))
	assert.True(t, lines[1].Balance.Equal(dec("110")))
	assert.True(t, balance.Equal(dec("110")))
}

// Los asientos anulados se omiten del saldo.
func TestReplay_OmiteAnulados(t *testing.T) {
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	voided := mov(2, day, "-40")
	now := time.Now()
	voided.VoidedAt = &now

	movements := []*entity.StockMovement{
		mov(1, day, "100"),
		voided,
		mov(3, day, "-10"),
	}

	lines, balance := ledger.Replay(movements)
	require.Len(t, lines, 2, "el anulado no produce renglón")
	assert.True(t, balance.Equal(dec("90")))
}

// Determinismo: dos réplicas del mismo log producen el mismo resultado.
func TestReplay_Determinista(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	build := func() []*entity.StockMovement {
		return []*entity.StockMovement{
			mov(5, day.Add(time.Hour), "-3"),
			mov(2, day, "10"),
			mov(4, day, "-1"),
		}
	}

	linesA, balA := ledger.Replay(build())
	linesB, balB := ledger.Replay(build())

	require.Equal(t, len(linesA), len(linesB))
	for i := range linesA {
		assert.Equal(t, linesA[i].Movement.ID, linesB[i].Movement.ID)
		assert.True(t, linesA[i].Balance.Equal(linesB[i].Balance))
	}
	assert.True(t, balA.Equal(balB))
}

func TestReplay_LogVacio(t *testing.T) {
	lines, balance := ledger.Replay(nil)
	assert.Empty(t, lines)
	assert.True(t, balance.IsZero(), "serie sin asientos equivale a saldo cero")
}

// Costo promedio ponderado: entrada a costo distinto mueve el promedio.
func TestWeightedAverageCost(t *testing.T) {
	// 10 unidades a $100, entran 10 a $200 → promedio $150
	got := ledger.WeightedAverageCost(dec("10"), dec("100"), dec("10"), dec("200"))
	assert.True(t, got.Equal(dec("150")))

	// Stock cero: el costo de la entrada define el promedio.
	got = ledger.WeightedAverageCost(decimal.Zero, decimal.Zero, dec("5"), dec("80"))
	assert.True(t, got.Equal(dec("80")))

	// Suma no positiva: promedio indefinido, se devuelve cero.
	got = ledger.WeightedAverageCost(dec("-5"), dec("100"), dec("5"), dec("80"))
	assert.True(t, got.IsZero())
}
