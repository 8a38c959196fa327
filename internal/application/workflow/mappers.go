package workflow

import (
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// ToTransferResponse mapea el documento de traslado a su DTO.
func ToTransferResponse(t *entity.StockTransfer) dto.TransferResponse {
	out := dto.TransferResponse{
		ID:              t.ID,
		CompanyID:       t.CompanyID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Status:          t.Status,
		Notes:           t.Notes,
		SentAt:          t.SentAt,
		ReceivedAt:      t.ReceivedAt,
		CancelledAt:     t.CancelledAt,
		CreatedAt:       t.CreatedAt,
		CreatedBy:       t.CreatedBy,
	}
	for _, item := range t.Items {
		out.Items = append(out.Items, dto.TransferItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
		})
	}
	return out
}
