package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// Line es un renglón del kardex: un asiento con su saldo acumulado.
type Line struct {
	Movement *entity.StockMovement
	Balance  decimal.Decimal // saldo después de aplicar el asiento
}

// SortForReplay ordena asientos por (fecha efectiva, id ascendente). El
// desempate por id define el orden total determinista que usan por igual el
// kardex y la conciliación: dos réplicas del mismo log producen siempre el
// mismo saldo corrido.
func SortForReplay(movements []*entity.StockMovement) {
	sort.SliceStable(movements, func(i, j int) bool {
		a, b := movements[i], movements[j]
		if a.TransactionDate.Equal(b.TransactionDate) {
			return a.ID < b.ID
		}
		return a.TransactionDate.Before(b.TransactionDate)
	})
}

// Replay recorre los asientos en orden (fecha, id), omite los anulados y
// devuelve los renglones con saldo corrido más el saldo final. Los asientos
// deben venir del mismo (empresa, variación, bodega); la función no lo valida.
func Replay(movements []*entity.StockMovement) ([]Line, decimal.Decimal) {
	SortForReplay(movements)
	lines := make([]Line, 0, len(movements))
	balance := decimal.Zero
	for _, m := range movements {
		if m.Voided() {
			continue
		}
		balance = balance.Add(m.Quantity)
		lines = append(lines, Line{Movement: m, Balance: balance})
	}
	return lines, balance
}
