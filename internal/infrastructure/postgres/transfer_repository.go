package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación del puerto TransferRepository sobre PostgreSQL
// (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador de persistencia para traslados.
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste el documento de traslado con sus líneas.
func (r *TransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_transfers (id, company_id, from_warehouse_id, to_warehouse_id, status, notes, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.CompanyID, t.FromWarehouseID, t.ToWarehouseID, t.Status, t.Notes,
		t.CreatedAt, t.UpdatedAt, t.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}

	itemQuery := `
		INSERT INTO stock_transfer_items (id, transfer_id, product_id, variation_id, quantity)
		VALUES ($1, $2, $3, $4, $5)`
	for i := range t.Items {
		item := &t.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.TransferID = t.ID
		if _, err := r.q.Exec(ctx, itemQuery,
			item.ID, item.TransferID, item.ProductID, item.VariationID, item.Quantity,
		); err != nil {
			return fmt.Errorf("insert transfer item: %w", err)
		}
	}
	return nil
}

// GetByID carga el documento con sus líneas. nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, companyID, id string) (*entity.StockTransfer, error) {
	query := `
		SELECT id, company_id, from_warehouse_id, to_warehouse_id, status, notes,
		       sent_at, received_at, cancelled_at, created_at, updated_at, created_by
		FROM stock_transfers WHERE company_id = $1 AND id = $2`
	var t entity.StockTransfer
	err := r.q.QueryRow(ctx, query, companyID, id).Scan(
		&t.ID, &t.CompanyID, &t.FromWarehouseID, &t.ToWarehouseID, &t.Status, &t.Notes,
		&t.SentAt, &t.ReceivedAt, &t.CancelledAt, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}

	items, err := r.listItems(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Items = items
	return &t, nil
}

// UpdateStatus aplica la transición de estado con chequeo optimista: la fila
// debe seguir en fromStatus. Si otro proceso ya la movió, domain.ErrConflict.
func (r *TransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer, fromStatus string) error {
	query := `
		UPDATE stock_transfers
		SET status = $3, sent_at = $4, received_at = $5, cancelled_at = $6, updated_at = now()
		WHERE company_id = $1 AND id = $2 AND status = $7`
	cmd, err := r.q.Exec(ctx, query,
		t.CompanyID, t.ID, t.Status, t.SentAt, t.ReceivedAt, t.CancelledAt, fromStatus,
	)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// ListByCompany devuelve traslados de la empresa, opcionalmente filtrados por
// estado, más recientes primero. Las líneas no se cargan en el listado.
func (r *TransferRepo) ListByCompany(ctx context.Context, companyID string, status string, limit, offset int) ([]*entity.StockTransfer, error) {
	query := `
		SELECT id, company_id, from_warehouse_id, to_warehouse_id, status, notes,
		       sent_at, received_at, cancelled_at, created_at, updated_at, created_by
		FROM stock_transfers WHERE company_id = $1`
	args := []any{companyID}
	pos := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockTransfer
	for rows.Next() {
		var t entity.StockTransfer
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.FromWarehouseID, &t.ToWarehouseID, &t.Status, &t.Notes,
			&t.SentAt, &t.ReceivedAt, &t.CancelledAt, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

func (r *TransferRepo) listItems(ctx context.Context, transferID string) ([]entity.StockTransferItem, error) {
	query := `
		SELECT id, transfer_id, product_id, variation_id, quantity
		FROM stock_transfer_items WHERE transfer_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer items: %w", err)
	}
	defer rows.Close()

	var items []entity.StockTransferItem
	for rows.Next() {
		var item entity.StockTransferItem
		if err := rows.Scan(&item.ID, &item.TransferID, &item.ProductID, &item.VariationID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan transfer item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
