package ledger

import (
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	domainledger "github.com/jhoicas/Kardex-api/internal/domain/ledger"
)

// ToMovementResponse mapea un asiento a su DTO.
func ToMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		ProductID:       m.ProductID,
		VariationID:     m.VariationID,
		WarehouseID:     m.WarehouseID,
		Type:            m.Type,
		Quantity:        m.Quantity,
		UnitCost:        m.UnitCost,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		TransactionDate: m.TransactionDate,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
		Voided:          m.Voided(),
	}
}

// ToAppendResponse mapea el resultado de Append.
func ToAppendResponse(r *AppendResult) *dto.AppendResponse {
	out := &dto.AppendResponse{Duplicate: r.Duplicate}
	for _, m := range r.Movements {
		out.Movements = append(out.Movements, ToMovementResponse(m))
	}
	return out
}

// ToKardexLines mapea renglones de replay.
func ToKardexLines(lines []domainledger.Line) []dto.KardexLineDTO {
	out := make([]dto.KardexLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.KardexLineDTO{
			Movement: ToMovementResponse(l.Movement),
			Balance:  l.Balance,
		})
	}
	return out
}

// ToReconciliationReport mapea un reporte de conciliación. includeLines
// controla si se adjunta el detalle renglón a renglón.
func ToReconciliationReport(r *Report, includeLines bool) dto.ReconciliationReportDTO {
	out := dto.ReconciliationReportDTO{
		ProductID:     r.Key.ProductID,
		VariationID:   r.Key.VariationID,
		WarehouseID:   r.Key.WarehouseID,
		AsOf:          r.AsOf,
		Computed:      r.Computed,
		Stored:        r.Stored,
		Variance:      r.Variance,
		MovementCount: r.MovementCount,
	}
	if includeLines {
		out.Lines = ToKardexLines(r.Lines)
	}
	return out
}
