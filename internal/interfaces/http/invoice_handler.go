package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	appbilling "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/billing"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/dto"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain"
)

// InvoiceHandler maneja la contabilización y consulta de facturas (protegido).
type InvoiceHandler struct {
	uc *appbilling.PostInvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *appbilling.PostInvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Post godoc
// @Summary      Contabilizar factura
// @Description  Calcula los totales, los contrasta con los declarados (puerta de
//               coherencia de IVA) y encadena la factura en el registro de integridad.
//               Un descuadre responde 422 con el diagnóstico estructurado.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostInvoiceRequest  true  "Factura con líneas y totales declarados"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.CoherenceResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Post(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.PostInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	invoice, err := h.uc.Post(c.Context(), companyID, in)
	if err != nil {
		var cohErr *appbilling.CoherenceError
		if errors.As(err, &cohErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(cohErr.Result)
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrChainConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CHAIN_CONFLICT", Message: "demasiada concurrencia al encadenar; reintentar"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetByID godoc
// @Summary      Consultar factura
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	invoice, err := h.uc.Get(c.Context(), companyID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		if errors.Is(err, domain.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(invoice)
}
