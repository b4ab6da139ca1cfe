package billing

import (
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/dto"
	billingdomain "github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/billing"
)

// TotalsUseCase expone el cálculo puro de totales y la validación de coherencia
// de IVA, sin persistencia. Se usa para previsualizar antes de contabilizar.
type TotalsUseCase struct {
	validator *billingdomain.VATValidator
}

// NewTotalsUseCase construye el caso de uso.
func NewTotalsUseCase(validator *billingdomain.VATValidator) *TotalsUseCase {
	return &TotalsUseCase{validator: validator}
}

// CalculateTotals calcula línea a línea y agrega los totales de la factura.
func (uc *TotalsUseCase) CalculateTotals(in dto.TotalsRequest) (*dto.TotalsResponse, error) {
	inputs := toLineInputs(in.Lines)
	totals, err := billingdomain.CalculateInvoiceTotals(inputs)
	if err != nil {
		return nil, err
	}
	resp := &dto.TotalsResponse{
		Subtotal:      totals.Subtotal,
		TotalDiscount: totals.TotalDiscount,
		TotalTax:      totals.TotalTax,
		Total:         totals.Total,
		Lines:         make([]dto.LineResultResponse, 0, len(inputs)),
	}
	for _, input := range inputs {
		r, err := billingdomain.CalculateLine(input)
		if err != nil {
			return nil, err
		}
		resp.Lines = append(resp.Lines, toLineResultResponse(r))
	}
	return resp, nil
}

// ValidateCoherence contrasta subtotal, cuota y total declarados, y el desglose
// por tipos si viene informado. Un resultado inválido NO es un error: es el
// diagnóstico que el llamador debe mostrar.
func (uc *TotalsUseCase) ValidateCoherence(in dto.CoherenceRequest) *dto.CoherenceResponse {
	resp := &dto.CoherenceResponse{Valid: true}

	coherence := uc.validator.ValidateCoherence(in.Subtotal, in.TaxTotal, in.Total)
	if !coherence.Valid {
		resp.Valid = false
		resp.Code = coherence.Code
		switch coherence.Code {
		case billingdomain.CodeTotalMismatch:
			expected := coherence.ExpectedTotal
			resp.ExpectedTotal = &expected
		case billingdomain.CodeNonStandardRate:
			ratio := coherence.DetectedRatio
			resp.DetectedRatio = &ratio
		}
		return resp
	}

	if rate, ok := uc.validator.DetectRate(in.Subtotal, in.TaxTotal); ok {
		resp.DetectedRate = &rate
	}

	if len(in.Items) > 0 {
		items := make([]billingdomain.BreakdownItem, len(in.Items))
		for i, it := range in.Items {
			items[i] = billingdomain.BreakdownItem{Base: it.Base, Tax: it.Tax, Rate: it.Rate}
		}
		breakdown := uc.validator.ValidateBreakdown(items, in.Total)
		if !breakdown.Valid {
			resp.Valid = false
			resp.Code = breakdown.Code
			if breakdown.FailedItem >= 0 {
				idx := breakdown.FailedItem
				resp.FailedItem = &idx
				expectedTax := breakdown.ExpectedTax
				resp.ExpectedTax = &expectedTax
			} else {
				expected := breakdown.ExpectedTotal
				resp.ExpectedTotal = &expected
			}
		}
	}
	return resp
}

func toLineInputs(lines []dto.LineRequest) []billingdomain.LineInput {
	inputs := make([]billingdomain.LineInput, len(lines))
	for i, l := range lines {
		inputs[i] = billingdomain.LineInput{
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice,
			DiscountPercentage: l.DiscountPercentage,
			TaxRate:            l.TaxRate,
		}
	}
	return inputs
}

func toLineResultResponse(r billingdomain.LineResult) dto.LineResultResponse {
	return dto.LineResultResponse{
		Subtotal:              r.Subtotal,
		DiscountAmount:        r.DiscountAmount,
		SubtotalAfterDiscount: r.SubtotalAfterDiscount,
		TaxAmount:             r.TaxAmount,
		Total:                 r.Total,
	}
}
