package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	domainledger "github.com/jhoicas/Kardex-api/internal/domain/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// TransferUseCase maneja el documento de traslado entre bodegas y su máquina
// de estados: created → sent → in_transit → received → completed (cancelled
// terminal). Solo Send y Receive asientan movimientos, cada uno a lo más una
// vez: la clave de idempotencia del kardex hace que un reintento tras timeout
// sea inofensivo.
type TransferUseCase struct {
	transferRepo  repository.TransferRepository
	warehouseRepo repository.WarehouseRepository
	movRepo       repository.StockMovementRepository
	appendUC      *ledger.AppendUseCase
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	transferRepo repository.TransferRepository,
	warehouseRepo repository.WarehouseRepository,
	movRepo repository.StockMovementRepository,
	appendUC *ledger.AppendUseCase,
) *TransferUseCase {
	return &TransferUseCase{
		transferRepo:  transferRepo,
		warehouseRepo: warehouseRepo,
		movRepo:       movRepo,
		appendUC:      appendUC,
	}
}

// Create crea el documento en estado created. No toca el kardex.
func (uc *TransferUseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateTransferRequest) (*entity.StockTransfer, error) {
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, fmt.Errorf("%w: bodega origen y destino iguales", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: traslado sin líneas", domain.ErrInvalidInput)
	}
	for _, whID := range []string{in.FromWarehouseID, in.ToWarehouseID} {
		wh, err := uc.warehouseRepo.GetByID(whID)
		if err != nil {
			return nil, err
		}
		if wh == nil || wh.CompanyID != companyID {
			return nil, domain.ErrNotFound
		}
	}

	now := time.Now()
	transfer := &entity.StockTransfer{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Status:          entity.TransferCreated,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
		CreatedBy:       userID,
	}
	for _, item := range in.Items {
		if !item.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: cantidad de línea debe ser positiva", domain.ErrInvalidInput)
		}
		transfer.Items = append(transfer.Items, entity.StockTransferItem{
			ID:          uuid.New().String(),
			TransferID:  transfer.ID,
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
		})
	}
	if err := uc.transferRepo.Create(ctx, transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

// Send transiciona created→sent y asienta la salida (transfer_out) de todas
// las líneas en una sola transacción del kardex. Si el asiento ya existía
// (reintento), el no-op cuenta como éxito y solo se avanza el estado.
func (uc *TransferUseCase) Send(ctx context.Context, companyID, userID, transferID string) (*entity.StockTransfer, error) {
	transfer, err := uc.load(ctx, companyID, transferID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(transfer.Status, entity.TransferSent) {
		return nil, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, transfer.Status, entity.TransferSent)
	}

	if _, err := uc.appendUC.AppendBatch(ctx, uc.movementInputs(transfer, userID, domainledger.EventTransferOut)); err != nil {
		return nil, err
	}

	now := time.Now()
	from := transfer.Status
	transfer.Status = entity.TransferSent
	transfer.SentAt = &now
	transfer.UpdatedAt = now
	if err := uc.transferRepo.UpdateStatus(ctx, transfer, from); err != nil {
		return nil, err
	}
	return transfer, nil
}

// MarkInTransit transiciona sent→in_transit. Sin movimientos.
func (uc *TransferUseCase) MarkInTransit(ctx context.Context, companyID, transferID string) (*entity.StockTransfer, error) {
	return uc.plainTransition(ctx, companyID, transferID, entity.TransferInTransit)
}

// Receive transiciona in_transit→received y asienta la entrada (transfer_in)
// de todas las líneas en una sola transacción del kardex.
func (uc *TransferUseCase) Receive(ctx context.Context, companyID, userID, transferID string) (*entity.StockTransfer, error) {
	transfer, err := uc.load(ctx, companyID, transferID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(transfer.Status, entity.TransferReceived) {
		return nil, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, transfer.Status, entity.TransferReceived)
	}

	if _, err := uc.appendUC.AppendBatch(ctx, uc.movementInputs(transfer, userID, domainledger.EventTransferIn)); err != nil {
		return nil, err
	}

	now := time.Now()
	from := transfer.Status
	transfer.Status = entity.TransferReceived
	transfer.ReceivedAt = &now
	transfer.UpdatedAt = now
	if err := uc.transferRepo.UpdateStatus(ctx, transfer, from); err != nil {
		return nil, err
	}
	return transfer, nil
}

// Complete transiciona received→completed. Sin movimientos.
func (uc *TransferUseCase) Complete(ctx context.Context, companyID, transferID string) (*entity.StockTransfer, error) {
	return uc.plainTransition(ctx, companyID, transferID, entity.TransferCompleted)
}

// Cancel transiciona a cancelled desde cualquier estado no terminal. Si el
// documento ya asentó movimientos, se asientan reversas explícitas
// (correction con delta opuesto) en una sola transacción; la historia jamás
// se borra. Cancelar antes de asentar no deja rastro en el kardex.
func (uc *TransferUseCase) Cancel(ctx context.Context, companyID, userID, transferID string) (*entity.StockTransfer, error) {
	transfer, err := uc.load(ctx, companyID, transferID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(transfer.Status, entity.TransferCancelled) {
		return nil, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, transfer.Status, entity.TransferCancelled)
	}

	posted, err := uc.movRepo.ListByReference(ctx, companyID, entity.RefTransfer, transfer.ID)
	if err != nil {
		return nil, err
	}
	var reversals []ledger.AppendInput
	for _, m := range posted {
		if m.Voided() {
			continue
		}
		reversals = append(reversals, ledger.AppendInput{
			CompanyID:       companyID,
			UserID:          userID,
			Type:            domainledger.EventCorrection,
			ProductID:       m.ProductID,
			VariationID:     m.VariationID,
			WarehouseID:     m.WarehouseID,
			Quantity:        m.Quantity.Neg(),
			ReferenceType:   "transfer_cancel",
			ReferenceID:     transfer.ID,
			TransactionDate: time.Now(),
		})
	}
	if len(reversals) > 0 {
		if _, err := uc.appendUC.AppendBatch(ctx, reversals); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	from := transfer.Status
	transfer.Status = entity.TransferCancelled
	transfer.CancelledAt = &now
	transfer.UpdatedAt = now
	if err := uc.transferRepo.UpdateStatus(ctx, transfer, from); err != nil {
		return nil, err
	}
	return transfer, nil
}

// GetByID carga el documento con sus líneas.
func (uc *TransferUseCase) GetByID(ctx context.Context, companyID, transferID string) (*entity.StockTransfer, error) {
	return uc.load(ctx, companyID, transferID)
}

// List lista traslados de la empresa, opcionalmente por estado.
func (uc *TransferUseCase) List(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.StockTransfer, error) {
	return uc.transferRepo.ListByCompany(ctx, companyID, status, limit, offset)
}

func (uc *TransferUseCase) load(ctx context.Context, companyID, transferID string) (*entity.StockTransfer, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, companyID, transferID)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, domain.ErrNotFound
	}
	return transfer, nil
}

func (uc *TransferUseCase) plainTransition(ctx context.Context, companyID, transferID, to string) (*entity.StockTransfer, error) {
	transfer, err := uc.load(ctx, companyID, transferID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(transfer.Status, to) {
		return nil, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, transfer.Status, to)
	}
	from := transfer.Status
	transfer.Status = to
	transfer.UpdatedAt = time.Now()
	if err := uc.transferRepo.UpdateStatus(ctx, transfer, from); err != nil {
		return nil, err
	}
	return transfer, nil
}

// movementInputs arma los eventos de un lado del traslado (salida o entrada),
// una línea del documento por evento, todas con la referencia del traslado.
func (uc *TransferUseCase) movementInputs(transfer *entity.StockTransfer, userID, eventType string) []ledger.AppendInput {
	warehouseID := transfer.FromWarehouseID
	quantitySign := decimal.NewFromInt(-1)
	if eventType == domainledger.EventTransferIn {
		warehouseID = transfer.ToWarehouseID
		quantitySign = decimal.NewFromInt(1)
	}
	now := time.Now()
	inputs := make([]ledger.AppendInput, 0, len(transfer.Items))
	for _, item := range transfer.Items {
		inputs = append(inputs, ledger.AppendInput{
			CompanyID:       transfer.CompanyID,
			UserID:          userID,
			Type:            eventType,
			ProductID:       item.ProductID,
			VariationID:     item.VariationID,
			WarehouseID:     warehouseID,
			Quantity:        item.Quantity.Mul(quantitySign),
			ReferenceType:   entity.RefTransfer,
			ReferenceID:     transfer.ID,
			TransactionDate: now,
		})
	}
	return inputs
}
