package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// TxRunner ejecuta casos de uso del kardex dentro de una transacción pgx.
// Los repositorios que recibe el callback están atados a la tx, así que todos
// los asientos y actualizaciones de proyección comparten la misma unidad de
// trabajo.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = fn(
		NewStockMovementRepository(tx),
		NewStockLevelRepository(tx),
		NewProductRepository(tx),
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
