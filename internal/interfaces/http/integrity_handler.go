package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/dto"
	appintegrity "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/integrity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
)

// IntegrityHandler maneja la verificación de la cadena de integridad (protegido).
type IntegrityHandler struct {
	chain *appintegrity.ChainManager
}

// NewIntegrityHandler construye el handler.
func NewIntegrityHandler(chain *appintegrity.ChainManager) *IntegrityHandler {
	return &IntegrityHandler{chain: chain}
}

// Verify godoc
// @Summary      Verificar cadena de integridad
// @Description  Recorre la partición (emitidas o recibidas) en orden ascendente y
//               recomputa cada hash. Reporta el PRIMER eslabón roto; una cadena rota
//               nunca se repara automáticamente.
// @Tags         integrity
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "Partición: issued | received"
// @Success      200   {object}  dto.VerifyChainResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/integrity/{type}/verify [get]
func (h *IntegrityHandler) Verify(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	invoiceType, ok := parseInvoiceType(c.Params("type"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo de cadena: issued | received"})
	}

	result, err := h.chain.Verify(c.Context(), companyID, invoiceType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.VerifyChainResponse{
		InvoiceType:      invoiceType,
		IsValid:          result.IsValid,
		Entries:          result.Entries,
		BrokenAtPosition: result.BrokenAtPosition,
		Reason:           result.Reason,
	})
}

func parseInvoiceType(s string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case entity.InvoiceTypeIssued:
		return entity.InvoiceTypeIssued, true
	case entity.InvoiceTypeReceived:
		return entity.InvoiceTypeReceived, true
	default:
		return "", false
	}
}
