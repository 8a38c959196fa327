package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo implementación de la proyección de saldos sobre PostgreSQL
// (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const levelColumns = `company_id, product_id, variation_id, warehouse_id, quantity, updated_at`

// Get obtiene el saldo actual de una (variación, bodega). Si no hay fila
// devuelve un nivel en cero: serie sin asientos equivale a saldo cero.
func (r *StockLevelRepo) Get(ctx context.Context, key repository.LedgerKey) (*entity.StockLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM stock_levels
		WHERE company_id = $1 AND variation_id = $2 AND warehouse_id = $3`
	var l entity.StockLevel
	err := r.q.QueryRow(ctx, query, key.CompanyID, key.VariationID, key.WarehouseID).Scan(
		&l.CompanyID, &l.ProductID, &l.VariationID, &l.WarehouseID, &l.Quantity, &l.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return zeroLevel(key), nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &l, nil
}

// GetForUpdate toma el lock de fila de la (variación, bodega) para serializar
// asientos concurrentes. Primero garantiza la existencia de la fila (INSERT ..
// ON CONFLICT DO NOTHING) para que el FOR UPDATE siempre tenga qué bloquear,
// incluso en la primera escritura de la serie.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, key repository.LedgerKey) (*entity.StockLevel, error) {
	seed := `
		INSERT INTO stock_levels (company_id, product_id, variation_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, 0, now())
		ON CONFLICT (company_id, variation_id, warehouse_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, seed, key.CompanyID, key.ProductID, key.VariationID, key.WarehouseID); err != nil {
		return nil, fmt.Errorf("seed stock level: %w", err)
	}

	query := `
		SELECT ` + levelColumns + `
		FROM stock_levels
		WHERE company_id = $1 AND variation_id = $2 AND warehouse_id = $3
		FOR UPDATE`
	var l entity.StockLevel
	err := r.q.QueryRow(ctx, query, key.CompanyID, key.VariationID, key.WarehouseID).Scan(
		&l.CompanyID, &l.ProductID, &l.VariationID, &l.WarehouseID, &l.Quantity, &l.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("lock stock level: %w", err)
	}
	return &l, nil
}

// Upsert escribe el saldo de la (variación, bodega).
func (r *StockLevelRepo) Upsert(ctx context.Context, level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (company_id, product_id, variation_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (company_id, variation_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(ctx, query,
		level.CompanyID, level.ProductID, level.VariationID, level.WarehouseID, level.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// ListByWarehouse lista los saldos de una bodega con paginación.
func (r *StockLevelRepo) ListByWarehouse(ctx context.Context, companyID, warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM stock_levels
		WHERE company_id = $1 AND warehouse_id = $2
		ORDER BY variation_id LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, companyID, warehouseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list levels by warehouse: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockLevel
	for rows.Next() {
		var l entity.StockLevel
		if err := rows.Scan(&l.CompanyID, &l.ProductID, &l.VariationID, &l.WarehouseID, &l.Quantity, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// ListByVariation lista los saldos de una variación en todas las bodegas.
func (r *StockLevelRepo) ListByVariation(ctx context.Context, companyID, variationID string) ([]*entity.StockLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM stock_levels
		WHERE company_id = $1 AND variation_id = $2
		ORDER BY warehouse_id`
	rows, err := r.q.Query(ctx, query, companyID, variationID)
	if err != nil {
		return nil, fmt.Errorf("list levels by variation: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockLevel
	for rows.Next() {
		var l entity.StockLevel
		if err := rows.Scan(&l.CompanyID, &l.ProductID, &l.VariationID, &l.WarehouseID, &l.Quantity, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

func zeroLevel(key repository.LedgerKey) *entity.StockLevel {
	return &entity.StockLevel{
		CompanyID:   key.CompanyID,
		ProductID:   key.ProductID,
		VariationID: key.VariationID,
		WarehouseID: key.WarehouseID,
		Quantity:    decimal.Zero,
	}
}
