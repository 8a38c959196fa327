package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/application/workflow"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
)

// TransferHandler maneja el documento de traslado entre bodegas y sus
// transiciones de estado (protegido).
type TransferHandler struct {
	uc *workflow.TransferUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *workflow.TransferUseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Create godoc
// @Summary      Crear traslado entre bodegas
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "from_warehouse_id, to_warehouse_id, items"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	transfer, err := h.uc.Create(c.Context(), companyID, userID, in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(workflow.ToTransferResponse(transfer))
}

// GetByID godoc
// @Summary      Obtener traslado con sus líneas
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	transfer, err := h.uc.GetByID(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(workflow.ToTransferResponse(transfer))
}

// List godoc
// @Summary      Listar traslados de la empresa
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Param        limit   query  int     false  "Límite"   default(20)
// @Param        offset  query  int     false  "Offset"   default(0)
// @Success      200  {object}  dto.TransferListResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	status := c.Query("status")
	if !statusFilterValid(status) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status desconocido"})
	}
	transfers, err := h.uc.List(c.Context(), companyID, status, limit, offset)
	if err != nil {
		return h.mapError(c, err)
	}
	out := dto.TransferListResponse{Page: dto.PageResponse{Limit: limit, Offset: offset}}
	for _, t := range transfers {
		out.Items = append(out.Items, workflow.ToTransferResponse(t))
	}
	return c.JSON(out)
}

// Send godoc
// @Summary      Enviar traslado (asienta la salida)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/send [post]
func (h *TransferHandler) Send(c *fiber.Ctx) error {
	transfer, err := h.uc.Send(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(workflow.ToTransferResponse(transfer))
}

// MarkInTransit godoc
// @Summary      Marcar traslado en tránsito
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/in-transit [post]
func (h *TransferHandler) MarkInTransit(c *fiber.Ctx) error {
	transfer, err := h.uc.MarkInTransit(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(workflow.ToTransferResponse(transfer))
}

// Receive godoc
// @Summary      Recibir traslado (asienta la entrada)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	transfer, err := h.uc.Receive(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(workflow.ToTransferResponse(transfer))
}

// Complete godoc
// @Summary      Completar traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/complete [post]
func (h *TransferHandler) Complete(c *fiber.Ctx) error {
	transfer, err := h.uc.Complete(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(workflow.ToTransferResponse(transfer))
}

// Cancel godoc
// @Summary      Cancelar traslado (con reversas si ya asentó movimientos)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	transfer, err := h.uc.Cancel(c.Context(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(workflow.ToTransferResponse(transfer))
}

func (h *TransferHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "traslado o bodega no encontrado"})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "el traslado cambió de estado; recargar y reintentar"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente en bodega origen"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// statusFilterValid reporta si el filtro de estado del listado es un estado
// conocido (vacío = sin filtro).
func statusFilterValid(status string) bool {
	switch status {
	case "", entity.TransferCreated, entity.TransferSent, entity.TransferInTransit,
		entity.TransferReceived, entity.TransferCompleted, entity.TransferCancelled:
		return true
	}
	return false
}
