package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del log de asientos sobre PostgreSQL
// (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, company_id, product_id, variation_id, warehouse_id, type, quantity,
	unit_cost, reference_type, reference_id, transaction_date, created_at, created_by, voided_at, voided_by`

// Create inserta el asiento y asigna movement.ID desde la secuencia. La clave
// de idempotencia está protegida por el índice único ux_stock_movements_idem;
// una colisión se mapea a domain.ErrDuplicateMovement.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (company_id, product_id, variation_id, warehouse_id, type, quantity,
			unit_cost, reference_type, reference_id, transaction_date, created_at, created_by, voided_at, voided_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	createdBy := (*string)(nil)
	if m.CreatedBy != "" {
		createdBy = &m.CreatedBy
	}
	voidedBy := (*string)(nil)
	if m.VoidedBy != "" {
		voidedBy = &m.VoidedBy
	}
	err := r.q.QueryRow(ctx, query,
		m.CompanyID, m.ProductID, m.VariationID, m.WarehouseID, m.Type, m.Quantity,
		m.UnitCost, m.ReferenceType, m.ReferenceID, m.TransactionDate,
		m.CreatedAt, createdBy, m.VoidedAt, voidedBy,
	).Scan(&m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateMovement
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento por ID dentro de la empresa. nil si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, companyID string, id int64) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE company_id = $1 AND id = $2`
	m, err := r.scanOne(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// GetByKey busca el asiento ya existente para una clave de idempotencia.
// nil si el evento aún no fue asentado.
func (r *StockMovementRepo) GetByKey(ctx context.Context, key entity.IdempotencyKey) (*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE company_id = $1 AND reference_type = $2 AND reference_id = $3
		  AND type = $4 AND variation_id = $5 AND warehouse_id = $6`
	m, err := r.scanOne(r.q.QueryRow(ctx, query,
		key.CompanyID, key.ReferenceType, key.ReferenceID,
		key.Type, key.VariationID, key.WarehouseID,
	))
	if err != nil {
		return nil, fmt.Errorf("get movement by key: %w", err)
	}
	return m, nil
}

// ListForReplay carga la serie completa de una (variación, bodega) en el orden
// canónico de replay (transaction_date, id), anulados incluidos.
func (r *StockMovementRepo) ListForReplay(ctx context.Context, key repository.LedgerKey, asOf *time.Time) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE company_id = $1 AND variation_id = $2 AND warehouse_id = $3`
	args := []any{key.CompanyID, key.VariationID, key.WarehouseID}
	if asOf != nil {
		query += ` AND transaction_date <= $4`
		args = append(args, *asOf)
	}
	query += ` ORDER BY transaction_date ASC, id ASC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list for replay: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListByReference devuelve los asientos originados por un documento, en orden
// de inserción.
func (r *StockMovementRepo) ListByReference(ctx context.Context, companyID, referenceType, referenceID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE company_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY id ASC`
	rows, err := r.q.Query(ctx, query, companyID, referenceType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list by reference: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListByWarehouse lista asientos de una bodega en un rango de fechas efectivas,
// más recientes primero.
func (r *StockMovementRepo) ListByWarehouse(ctx context.Context, companyID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE company_id = $1 AND warehouse_id = $2`
	args := []any{companyID, warehouseID}
	pos := 3
	if from != nil {
		query += fmt.Sprintf(" AND transaction_date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND transaction_date <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY transaction_date DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by warehouse: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// Void marca el asiento como anulado. Es idempotente a nivel de fila: si ya
// estaba anulado no toca voided_at (se conserva la primera anulación).
func (r *StockMovementRepo) Void(ctx context.Context, companyID string, id int64, voidedBy string) error {
	query := `
		UPDATE stock_movements SET voided_at = now(), voided_by = $3
		WHERE company_id = $1 AND id = $2 AND voided_at IS NULL`
	cmd, err := r.q.Exec(ctx, query, companyID, id, voidedBy)
	if err != nil {
		return fmt.Errorf("void movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *StockMovementRepo) scanOne(row rowScanner) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var createdBy, voidedBy *string
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.ProductID, &m.VariationID, &m.WarehouseID,
		&m.Type, &m.Quantity, &m.UnitCost, &m.ReferenceType, &m.ReferenceID,
		&m.TransactionDate, &m.CreatedAt, &createdBy, &m.VoidedAt, &voidedBy,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	if voidedBy != nil {
		m.VoidedBy = *voidedBy
	}
	return &m, nil
}

func (r *StockMovementRepo) scanAll(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
