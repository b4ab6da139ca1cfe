// Package billing contiene el cálculo monetario de líneas de factura y la
// validación de coherencia de IVA. Todo el paquete es puro: funciones sin estado
// compartido, seguras para cualquier número de llamadores concurrentes.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// LineInput datos crudos de una línea de factura. Transitorio, no se persiste.
type LineInput struct {
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal // En [0,100]
	TaxRate            decimal.Decimal // Porcentaje (21, 10, 4, 0)
}

// LineResult importes de una línea, todos redondeados a 2 decimales.
// Inmutable; se recalcula siempre desde el input, nunca se cachea.
type LineResult struct {
	Subtotal              decimal.Decimal
	DiscountAmount        decimal.Decimal
	SubtotalAfterDiscount decimal.Decimal
	TaxAmount             decimal.Decimal
	Total                 decimal.Decimal
}

// InvoiceTotals agregado de todas las líneas de una factura.
type InvoiceTotals struct {
	Subtotal      decimal.Decimal // Suma de bases tras descuento
	TotalDiscount decimal.Decimal
	TotalTax      decimal.Decimal
	Total         decimal.Decimal
}

// round2 redondea a 2 decimales con half-up. Para importes no negativos,
// Round de shopspring (half away from zero) equivale a half-up.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateLine calcula los importes de una línea. El redondeo a céntimos se
// aplica en CADA paso intermedio, no solo al final: así los totales encadenados
// reproducen céntimo a céntimo las columnas de la factura impresa.
func CalculateLine(in LineInput) (LineResult, error) {
	if in.Quantity.IsNegative() {
		return LineResult{}, fmt.Errorf("%w: cantidad negativa (%s)", domain.ErrInvalidInput, in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return LineResult{}, fmt.Errorf("%w: precio unitario negativo (%s)", domain.ErrInvalidInput, in.UnitPrice)
	}
	if in.DiscountPercentage.IsNegative() || in.DiscountPercentage.GreaterThan(hundred) {
		return LineResult{}, fmt.Errorf("%w: descuento fuera de [0,100] (%s)", domain.ErrInvalidInput, in.DiscountPercentage)
	}
	if in.TaxRate.IsNegative() {
		return LineResult{}, fmt.Errorf("%w: tipo impositivo negativo (%s)", domain.ErrInvalidInput, in.TaxRate)
	}

	subtotal := round2(in.Quantity.Mul(in.UnitPrice))
	discount := round2(subtotal.Mul(in.DiscountPercentage).Div(hundred))
	base := round2(subtotal.Sub(discount))
	tax := round2(base.Mul(in.TaxRate).Div(hundred))
	total := round2(base.Add(tax))

	return LineResult{
		Subtotal:              subtotal,
		DiscountAmount:        discount,
		SubtotalAfterDiscount: base,
		TaxAmount:             tax,
		Total:                 total,
	}, nil
}

// CalculateInvoiceTotals agrega las líneas de una factura. Cada línea pasa por
// CalculateLine y el agregado es la suma exacta de los valores ya redondeados:
// sin redondeo cruzado entre líneas, para que el total coincida con la suma de
// la columna de totales visibles de la factura.
func CalculateInvoiceTotals(lines []LineInput) (InvoiceTotals, error) {
	var t InvoiceTotals
	for i, in := range lines {
		r, err := CalculateLine(in)
		if err != nil {
			return InvoiceTotals{}, fmt.Errorf("línea %d: %w", i+1, err)
		}
		t.Subtotal = t.Subtotal.Add(r.SubtotalAfterDiscount)
		t.TotalDiscount = t.TotalDiscount.Add(r.DiscountAmount)
		t.TotalTax = t.TotalTax.Add(r.TaxAmount)
		t.Total = t.Total.Add(r.Total)
	}
	return t, nil
}
