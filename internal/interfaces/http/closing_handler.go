package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/closing"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/dto"
)

// ClosingHandler maneja las validaciones de cierre de ejercicio (protegido).
type ClosingHandler struct {
	validator *closing.BalanceValidator
}

// NewClosingHandler construye el handler.
func NewClosingHandler(validator *closing.BalanceValidator) *ClosingHandler {
	return &ClosingHandler{validator: validator}
}

// Validate godoc
// @Summary      Validar cierre de ejercicio
// @Description  Ejecuta las cuatro comprobaciones independientes del ejercicio: cuadre
//               global debe/haber, balance de comprobación por naturaleza, conciliación
//               de IVA y correlatividad de asientos. Los descuadres son diagnóstico, no
//               errores HTTP: siempre responde 200 con el informe completo.
// @Tags         closing
// @Security     Bearer
// @Produce      json
// @Param        year  path  int  true  "Ejercicio fiscal (YYYY)"
// @Success      200   {object}  dto.ClosingReportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/closing/{year} [get]
func (h *ClosingHandler) Validate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil || year < 1900 || year > 9999 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "ejercicio inválido"})
	}

	report := h.validator.ValidateFiscalYear(c.Context(), companyID, year)
	return c.JSON(toClosingReportResponse(report))
}

func toClosingReportResponse(r closing.Report) dto.ClosingReportResponse {
	resp := dto.ClosingReportResponse{
		FiscalYear: r.FiscalYear,
		GlobalBalance: dto.GlobalBalanceDTO{
			Valid:        r.GlobalBalance.Valid,
			TotalDebit:   r.GlobalBalance.TotalDebit,
			TotalCredit:  r.GlobalBalance.TotalCredit,
			Difference:   r.GlobalBalance.Difference,
			ErrorMessage: r.GlobalBalance.ErrorMessage,
		},
		EntrySequence: dto.EntrySequenceDTO{
			MinEntryNumber:   r.EntrySequence.MinEntryNumber,
			MaxEntryNumber:   r.EntrySequence.MaxEntryNumber,
			ExpectedCount:    r.EntrySequence.ExpectedCount,
			ActualCount:      r.EntrySequence.ActualCount,
			MissingNumbers:   r.EntrySequence.MissingNumbers,
			DuplicateNumbers: r.EntrySequence.DuplicateNumbers,
			HasGaps:          r.EntrySequence.HasGaps,
			HasDuplicates:    r.EntrySequence.HasDuplicates,
			Valid:            r.EntrySequence.Valid,
			WarningMessage:   r.EntrySequence.WarningMessage,
		},
		CriticalErrors: r.CriticalErrors,
		Warnings:       r.Warnings,
		OverallValid:   r.OverallValid,
	}
	resp.TrialBalance.Valid = r.TrialBalance.Valid
	resp.VATReconciliation.Valid = r.VATReconciliation.Valid
	for _, l := range r.TrialBalance.Lines {
		resp.TrialBalance.Lines = append(resp.TrialBalance.Lines, dto.TrialBalanceLineDTO{
			AccountCode:         l.AccountCode,
			AccountName:         l.AccountName,
			Balance:             l.Balance,
			BalanceType:         l.BalanceType,
			ExpectedBalanceType: l.ExpectedBalanceType,
			Valid:               l.Valid,
			Warning:             l.Warning,
		})
	}
	for _, l := range r.VATReconciliation.Lines {
		resp.VATReconciliation.Lines = append(resp.VATReconciliation.Lines, dto.VATReconciliationLineDTO{
			VATType:         l.VATType,
			VATRate:         l.VATRate,
			VATIssued:       l.VATIssued,
			VATReceived:     l.VATReceived,
			VATInAccounting: l.VATInAccounting,
			Difference:      l.Difference,
			Valid:           l.Valid,
			ErrorMessage:    l.ErrorMessage,
		})
	}
	return resp
}
