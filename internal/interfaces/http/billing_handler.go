package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	appbilling "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/billing"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/dto"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain"
)

// BillingHandler maneja el cálculo de totales y la validación de coherencia
// (operaciones puras, sin persistencia).
type BillingHandler struct {
	uc *appbilling.TotalsUseCase
}

// NewBillingHandler construye el handler.
func NewBillingHandler(uc *appbilling.TotalsUseCase) *BillingHandler {
	return &BillingHandler{uc: uc}
}

// CalculateTotals godoc
// @Summary      Calcular totales de factura
// @Description  Calcula subtotal, descuento, cuota de IVA y total por línea y agregado,
//               con redondeo a céntimos en cada paso intermedio.
// @Tags         billing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TotalsRequest  true  "Líneas crudas de la factura"
// @Success      200   {object}  dto.TotalsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices/totals [post]
func (h *BillingHandler) CalculateTotals(c *fiber.Ctx) error {
	var in dto.TotalsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.uc.CalculateTotals(in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}

// ValidateCoherence godoc
// @Summary      Validar coherencia de IVA
// @Description  Contrasta subtotal, cuota y total declarados (y el desglose por tipos si
//               viene informado). Un resultado incoherente responde 200 con valid=false:
//               es diagnóstico de dominio, no un error de la petición.
// @Tags         billing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CoherenceRequest  true  "Totales declarados"
// @Success      200   {object}  dto.CoherenceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices/vat/coherence [post]
func (h *BillingHandler) ValidateCoherence(c *fiber.Ctx) error {
	var in dto.CoherenceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return c.JSON(h.uc.ValidateCoherence(in))
}
