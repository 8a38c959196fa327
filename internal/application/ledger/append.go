package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	domainledger "github.com/jhoicas/Kardex-api/internal/domain/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// AppendUseCase es el escritor del kardex: el ÚNICO camino de código que puede
// mutar stock_movements y stock_levels. Clasifica eventos, valida tenencia y
// asienta log + proyección en una sola transacción con bloqueo de fila
// (SELECT FOR UPDATE) y Commit/Rollback.
type AppendUseCase struct {
	txRunner      TxRunner
	companyRepo   repository.CompanyRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewAppendUseCase construye el caso de uso.
func NewAppendUseCase(
	txRunner TxRunner,
	companyRepo repository.CompanyRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *AppendUseCase {
	return &AppendUseCase{
		txRunner:      txRunner,
		companyRepo:   companyRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// AppendInput un evento de negocio a asentar. Quantity con signo según el tipo;
// para transfer es la cantidad trasladada (positiva) con From/To.
type AppendInput struct {
	CompanyID       string
	UserID          string
	Type            string
	ProductID       string
	VariationID     string
	WarehouseID     string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	UnitCost        *decimal.Decimal
	ReferenceType   string
	ReferenceID     string
	TransactionDate time.Time
}

// AppendResult resultado del asiento. Si Duplicate es true, todos los asientos
// del llamado ya existían (clave de idempotencia) y Movements trae los
// preexistentes: los callers deben tratarlo como éxito, no como fallo.
type AppendResult struct {
	Movements []*entity.StockMovement
	Duplicate bool
}

// Append asienta un solo evento. Azúcar sobre AppendBatch.
func (uc *AppendUseCase) Append(ctx context.Context, input AppendInput) (*AppendResult, error) {
	return uc.AppendBatch(ctx, []AppendInput{input})
}

// AppendBatch clasifica los eventos, valida que productos/variaciones/bodegas
// pertenezcan a la empresa, e inserta todos los asientos junto con la
// actualización de saldos en UNA transacción: o entra el lote completo o no
// entra nada (atomicidad del par transfer_out/transfer_in y de documentos
// multi-línea). Los eventos del lote deben ser de la misma empresa.
func (uc *AppendUseCase) AppendBatch(ctx context.Context, inputs []AppendInput) (*AppendResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: lote vacío", domain.ErrInvalidInput)
	}
	companyID := inputs[0].CompanyID
	for _, in := range inputs {
		if in.CompanyID != companyID {
			return nil, fmt.Errorf("%w: lote con empresas mezcladas", domain.ErrInvalidInput)
		}
		if in.ReferenceType == "" || in.ReferenceID == "" {
			return nil, fmt.Errorf("%w: referencia del documento requerida", domain.ErrInvalidInput)
		}
	}

	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}

	var movements []*entity.StockMovement
	products := make(map[string]*entity.Product)
	for _, in := range inputs {
		classified, err := domainledger.Movements(domainledger.Event{
			Type:            in.Type,
			CompanyID:       in.CompanyID,
			ProductID:       in.ProductID,
			VariationID:     in.VariationID,
			WarehouseID:     in.WarehouseID,
			FromWarehouseID: in.FromWarehouseID,
			ToWarehouseID:   in.ToWarehouseID,
			Quantity:        in.Quantity,
			UnitCost:        in.UnitCost,
			ReferenceType:   in.ReferenceType,
			ReferenceID:     in.ReferenceID,
			TransactionDate: in.TransactionDate,
			CreatedBy:       in.UserID,
		})
		if err != nil {
			return nil, err
		}
		if err := uc.validateOwnership(company, in, classified, products); err != nil {
			return nil, err
		}
		movements = append(movements, classified...)
	}

	result := &AppendResult{}
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		productRepo repository.ProductRepository,
	) error {
		return uc.appendInTx(ctx, movRepo, levelRepo, productRepo, company, products, movements, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validateOwnership verifica producto, variación y bodegas del evento antes de
// abrir la transacción. El kardex no autoriza actores: eso ya lo hizo el caller.
func (uc *AppendUseCase) validateOwnership(
	company *entity.Company,
	input AppendInput,
	movements []*entity.StockMovement,
	products map[string]*entity.Product,
) error {
	product, ok := products[input.ProductID]
	if !ok {
		var err error
		product, err = uc.productRepo.GetByID(input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		products[input.ProductID] = product
	}
	if product.CompanyID != company.ID {
		return domain.ErrForbidden
	}
	variation, err := uc.productRepo.GetVariationByID(input.VariationID)
	if err != nil {
		return err
	}
	if variation == nil || variation.ProductID != input.ProductID {
		return domain.ErrNotFound
	}
	for _, m := range movements {
		wh, err := uc.warehouseRepo.GetByID(m.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil || wh.CompanyID != company.ID {
			return domain.ErrNotFound
		}
	}
	return nil
}

// appendInTx asienta los movimientos dentro de la transacción. Bloquea las
// filas de saldo en orden determinista (evita deadlocks entre traslados
// cruzados), verifica sobreventa y aplica cada delta a la proyección.
func (uc *AppendUseCase) appendInTx(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	productRepo repository.ProductRepository,
	company *entity.Company,
	products map[string]*entity.Product,
	movements []*entity.StockMovement,
	result *AppendResult,
) error {
	levels := make(map[string]*entity.StockLevel)
	for _, lk := range distinctKeys(movements) {
		level, err := levelRepo.GetForUpdate(ctx, lk)
		if err != nil {
			return err
		}
		levels[lk.VariationID+"/"+lk.WarehouseID] = level
	}

	now := time.Now()
	duplicates := 0
	touched := make(map[string]bool)
	for _, m := range movements {
		existing, err := movRepo.GetByKey(ctx, m.Key())
		if err != nil {
			return err
		}
		if existing == nil {
			if createErr := movRepo.Create(ctx, m); createErr != nil {
				if !errors.Is(createErr, domain.ErrDuplicateMovement) {
					return createErr
				}
				// Carrera perdida contra otro asiento del mismo evento:
				// recuperar el existente y seguir como no-op.
				existing, err = movRepo.GetByKey(ctx, m.Key())
				if err != nil {
					return err
				}
			}
		}
		if existing != nil {
			result.Movements = append(result.Movements, existing)
			duplicates++
			continue
		}

		level := levels[m.VariationID+"/"+m.WarehouseID]
		prevQty := level.Quantity
		newQty := prevQty.Add(m.Quantity)
		if m.Quantity.IsNegative() && newQty.IsNegative() && !company.AllowNegativeStock {
			return domain.ErrInsufficientStock
		}
		level.Quantity = newQty
		level.UpdatedAt = now
		touched[m.VariationID+"/"+m.WarehouseID] = true

		// Entradas con valoración mueven el costo promedio ponderado del producto.
		if m.UnitCost != nil && (m.Type == entity.MovementOpeningStock || m.Type == entity.MovementPurchaseReceipt) {
			product := products[m.ProductID]
			newCost := domainledger.WeightedAverageCost(prevQty, product.Cost, m.Quantity, *m.UnitCost)
			if err := productRepo.UpdateCost(product.ID, newCost); err != nil {
				return err
			}
			product.Cost = newCost
		}

		result.Movements = append(result.Movements, m)
	}

	for k := range touched {
		if err := levelRepo.Upsert(ctx, levels[k]); err != nil {
			return err
		}
	}
	result.Duplicate = duplicates == len(movements)
	return nil
}

// distinctKeys devuelve las series (variación, bodega) afectadas, en orden
// fijo. Ese orden es el orden de bloqueo de filas.
func distinctKeys(movements []*entity.StockMovement) []repository.LedgerKey {
	seen := make(map[string]bool)
	var keys []repository.LedgerKey
	for _, m := range movements {
		k := m.VariationID + "/" + m.WarehouseID
		if !seen[k] {
			seen[k] = true
			keys = append(keys, repository.LedgerKey{
				CompanyID:   m.CompanyID,
				ProductID:   m.ProductID,
				VariationID: m.VariationID,
				WarehouseID: m.WarehouseID,
			})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].VariationID != keys[j].VariationID {
			return keys[i].VariationID < keys[j].VariationID
		}
		return keys[i].WarehouseID < keys[j].WarehouseID
	})
	return keys
}
