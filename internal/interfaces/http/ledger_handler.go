package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/ledger"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// LedgerHandler maneja las peticiones HTTP del kardex: asientos, consultas,
// conciliación y mantenimiento (protegido).
type LedgerHandler struct {
	appendUC    *ledger.AppendUseCase
	queryUC     *ledger.QueryUseCase
	reconcileUC *ledger.ReconcileUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(appendUC *ledger.AppendUseCase, queryUC *ledger.QueryUseCase, reconcileUC *ledger.ReconcileUseCase) *LedgerHandler {
	return &LedgerHandler{appendUC: appendUC, queryUC: queryUC, reconcileUC: reconcileUC}
}

// RegisterMovement godoc
// @Summary      Asentar un movimiento de stock
// @Description  Clasifica el evento de negocio y lo asienta en el kardex junto
//
//	con la actualización del saldo, en una sola transacción. Un reintento con la
//	misma referencia es un no-op (duplicate=true), nunca un doble asiento.
//
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "type, product_id, variation_id, warehouse_id (o from/to para transfer), quantity con signo, reference_type, reference_id"
// @Success      201   {object}  dto.AppendResponse
// @Success      200   {object}  dto.AppendResponse  "evento ya asentado (idempotencia)"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [post]
func (h *LedgerHandler) RegisterMovement(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	txDate := time.Now()
	if in.TransactionDate != nil {
		txDate = *in.TransactionDate
	}
	result, err := h.appendUC.Append(c.Context(), ledger.AppendInput{
		CompanyID:       companyID,
		UserID:          userID,
		Type:            in.Type,
		ProductID:       in.ProductID,
		VariationID:     in.VariationID,
		WarehouseID:     in.WarehouseID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		TransactionDate: txDate,
	})
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	status := fiber.StatusCreated
	if result.Duplicate {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(ledger.ToAppendResponse(result))
}

// GetBalance godoc
// @Summary      Saldo actual de una (variación, bodega)
// @Description  Lee la proyección materializada; nunca replica el log.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "ID del producto"
// @Param        variation_id  query  string  true  "ID de la variación"
// @Param        warehouse_id  query  string  true  "ID de la bodega"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/balance [get]
func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	key, ok := h.ledgerKey(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id, variation_id y warehouse_id son requeridos"})
	}
	level, err := h.queryUC.CurrentBalance(c.Context(), key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.BalanceResponse{
		ProductID:   level.ProductID,
		VariationID: level.VariationID,
		WarehouseID: level.WarehouseID,
		Quantity:    level.Quantity,
		UpdatedAt:   level.UpdatedAt,
	})
}

// GetKardex godoc
// @Summary      Kardex (estado de cuenta) de una (variación, bodega)
// @Description  Asientos en orden (fecha efectiva, id) con saldo corrido.
//
//	as_of corta la historia en esa fecha (RFC3339).
//
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "ID del producto"
// @Param        variation_id  query  string  true   "ID de la variación"
// @Param        warehouse_id  query  string  true   "ID de la bodega"
// @Param        as_of         query  string  false  "Corte temporal RFC3339"
// @Success      200  {object}  dto.KardexResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/kardex [get]
func (h *LedgerHandler) GetKardex(c *fiber.Ctx) error {
	key, ok := h.ledgerKey(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id, variation_id y warehouse_id son requeridos"})
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "as_of debe ser RFC3339"})
	}
	lines, balance, err := h.queryUC.Kardex(c.Context(), key, asOf)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.KardexResponse{
		ProductID:   key.ProductID,
		VariationID: key.VariationID,
		WarehouseID: key.WarehouseID,
		Lines:       ledger.ToKardexLines(lines),
		Balance:     balance,
	})
}

// Reconcile godoc
// @Summary      Conciliar el kardex contra la proyección
// @Description  Replica el log y compara contra el saldo almacenado. Solo
//
//	lectura: una variación distinta de cero se reporta, jamás se corrige aquí.
//
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "ID del producto"
// @Param        variation_id  query  string  true   "ID de la variación"
// @Param        warehouse_id  query  string  true   "ID de la bodega"
// @Param        as_of         query  string  false  "Corte temporal RFC3339"
// @Param        lines         query  bool    false  "Incluir detalle renglón a renglón"
// @Success      200  {object}  dto.ReconciliationReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/reconcile [get]
func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	key, ok := h.ledgerKey(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id, variation_id y warehouse_id son requeridos"})
	}
	asOf, err := parseAsOf(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "as_of debe ser RFC3339"})
	}
	report, err := h.reconcileUC.Reconcile(c.Context(), key, asOf)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(ledger.ToReconciliationReport(report, c.QueryBool("lines", false)))
}

// Repair godoc
// @Summary      Reparar la proyección desde el kardex (solo admin)
// @Description  Fija el saldo almacenado a la suma replicada del log y deja un
//
//	asiento sintético de auditoría. Con variación cero no escribe nada.
//
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "ID del producto"
// @Param        variation_id  query  string  true  "ID de la variación"
// @Param        warehouse_id  query  string  true  "ID de la bodega"
// @Success      200  {object}  dto.RepairResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/ledger/repair [post]
func (h *LedgerHandler) Repair(c *fiber.Ctx) error {
	key, ok := h.ledgerKey(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id, variation_id y warehouse_id son requeridos"})
	}
	result, err := h.reconcileUC.Repair(c.Context(), key, GetUserID(c))
	if err != nil {
		return h.mapLedgerError(c, err)
	}
	out := dto.RepairResponse{
		Report:   ledger.ToReconciliationReport(result.Report, false),
		Repaired: result.Repaired,
	}
	if result.Correction != nil {
		out.CorrectionID = &result.Correction.ID
	}
	return c.JSON(out)
}

// VoidMovement godoc
// @Summary      Anular un asiento (solo admin)
// @Description  Soft-delete auditada: retira el delta de la proyección en la
//
//	misma transacción; el asiento queda visible en el kardex como anulado.
//
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "ID del asiento"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/movements/{id}/void [post]
func (h *LedgerHandler) VoidMovement(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	movementID, err := c.ParamsInt("id")
	if err != nil || movementID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de asiento inválido"})
	}
	if err := h.appendUC.VoidMovement(c.Context(), companyID, int64(movementID), userID); err != nil {
		return h.mapLedgerError(c, err)
	}
	return c.JSON(fiber.Map{"message": "asiento anulado"})
}

// ledgerKey arma la LedgerKey de la empresa del token + query params.
func (h *LedgerHandler) ledgerKey(c *fiber.Ctx) (repository.LedgerKey, bool) {
	key := repository.LedgerKey{
		CompanyID:   GetCompanyID(c),
		ProductID:   c.Query("product_id"),
		VariationID: c.Query("variation_id"),
		WarehouseID: c.Query("warehouse_id"),
	}
	ok := key.CompanyID != "" && key.ProductID != "" && key.VariationID != "" && key.WarehouseID != ""
	return key, ok
}

func parseAsOf(c *fiber.Ctx) (*time.Time, error) {
	raw := c.Query("as_of")
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// mapLedgerError traduce errores de dominio del kardex a respuestas HTTP.
func (h *LedgerHandler) mapLedgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto, variación o bodega no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
