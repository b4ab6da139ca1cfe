package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/billing"
)

// ──────────────────────────────────────────────────────────────────────────────
// TestCalculateLine_VectorCanonico valida el vector de referencia del cálculo
// de línea: 2 unidades a 50.00, 10% de descuento, IVA 21%.
//
//	subtotal  = 2 × 50.00          = 100.00
//	descuento = 100.00 × 10%       =  10.00
//	base      = 100.00 − 10.00     =  90.00
//	cuota     = 90.00 × 21%        =  18.90
//	total     = 90.00 + 18.90      = 108.90
//
// Si alguien cambia el orden de los pasos o el punto de redondeo, este test
// falla antes de que el descuadre llegue a una factura real.
// ──────────────────────────────────────────────────────────────────────────────
func TestCalculateLine_VectorCanonico(t *testing.T) {
	r, err := billing.CalculateLine(billing.LineInput{
		Quantity:           decimal.NewFromInt(2),
		UnitPrice:          decimal.NewFromInt(50),
		DiscountPercentage: decimal.NewFromInt(10),
		TaxRate:            decimal.NewFromInt(21),
	})
	require.NoError(t, err, "una línea válida no debe producir error")

	assert.True(t, r.Subtotal.Equal(decimal.NewFromFloat(100.00)), "subtotal: esperado 100.00, obtenido %s", r.Subtotal)
	assert.True(t, r.DiscountAmount.Equal(decimal.NewFromFloat(10.00)), "descuento: esperado 10.00, obtenido %s", r.DiscountAmount)
	assert.True(t, r.SubtotalAfterDiscount.Equal(decimal.NewFromFloat(90.00)), "base: esperado 90.00, obtenido %s", r.SubtotalAfterDiscount)
	assert.True(t, r.TaxAmount.Equal(decimal.NewFromFloat(18.90)), "cuota: esperado 18.90, obtenido %s", r.TaxAmount)
	assert.True(t, r.Total.Equal(decimal.NewFromFloat(108.90)), "total: esperado 108.90, obtenido %s", r.Total)
}

// TestCalculateLine_RedondeoPorPaso comprueba que el redondeo a céntimos se
// aplica en cada paso intermedio y no solo al final. Con 3 × 0.333 el subtotal
// ya redondeado (1.00) alimenta los pasos siguientes.
func TestCalculateLine_RedondeoPorPaso(t *testing.T) {
	r, err := billing.CalculateLine(billing.LineInput{
		Quantity:  decimal.NewFromInt(3),
		UnitPrice: decimal.NewFromFloat(0.333),
		TaxRate:   decimal.NewFromInt(21),
	})
	require.NoError(t, err)

	// 3 × 0.333 = 0.999 → 1.00; cuota = 1.00 × 21% = 0.21
	assert.True(t, r.Subtotal.Equal(decimal.NewFromFloat(1.00)), "subtotal redondeado: esperado 1.00, obtenido %s", r.Subtotal)
	assert.True(t, r.TaxAmount.Equal(decimal.NewFromFloat(0.21)), "la cuota debe calcularse sobre la base ya redondeada")
	assert.True(t, r.Total.Equal(decimal.NewFromFloat(1.21)))
}

// TestCalculateLine_MitadHaciaArriba verifica el redondeo half-up en el punto
// medio exacto: 0.125 debe ir a 0.13, nunca a 0.12 (redondeo bancario).
func TestCalculateLine_MitadHaciaArriba(t *testing.T) {
	r, err := billing.CalculateLine(billing.LineInput{
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.NewFromFloat(0.125),
	})
	require.NoError(t, err)
	assert.True(t, r.Subtotal.Equal(decimal.NewFromFloat(0.13)),
		"0.125 debe redondear a 0.13 (half-up), obtenido %s", r.Subtotal)
}

// TestCalculateLine_DescuentoTotal con descuento del 100% la base, la cuota y
// el total quedan a cero; el subtotal bruto se conserva.
func TestCalculateLine_DescuentoTotal(t *testing.T) {
	r, err := billing.CalculateLine(billing.LineInput{
		Quantity:           decimal.NewFromInt(4),
		UnitPrice:          decimal.NewFromFloat(25.50),
		DiscountPercentage: decimal.NewFromInt(100),
		TaxRate:            decimal.NewFromInt(21),
	})
	require.NoError(t, err)

	assert.True(t, r.Subtotal.Equal(decimal.NewFromFloat(102.00)))
	assert.True(t, r.DiscountAmount.Equal(decimal.NewFromFloat(102.00)))
	assert.True(t, r.SubtotalAfterDiscount.IsZero(), "base tras descuento total debe ser cero")
	assert.True(t, r.TaxAmount.IsZero(), "cuota sobre base cero debe ser cero")
	assert.True(t, r.Total.IsZero())
}

// TestCalculateLine_CantidadCero una línea con cantidad cero es válida y
// produce todos los importes a cero.
func TestCalculateLine_CantidadCero(t *testing.T) {
	r, err := billing.CalculateLine(billing.LineInput{
		Quantity:  decimal.Zero,
		UnitPrice: decimal.NewFromInt(99),
		TaxRate:   decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.True(t, r.Total.IsZero())
}

// TestCalculateLine_EntradasInvalidas cada violación de rango debe rechazarse
// con domain.ErrInvalidInput envuelto, nunca con un pánico ni un cero silencioso.
func TestCalculateLine_EntradasInvalidas(t *testing.T) {
	casos := []struct {
		nombre string
		input  billing.LineInput
	}{
		{"cantidad negativa", billing.LineInput{Quantity: decimal.NewFromInt(-1), UnitPrice: decimal.NewFromInt(10)}},
		{"precio negativo", billing.LineInput{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-10)}},
		{"descuento negativo", billing.LineInput{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10), DiscountPercentage: decimal.NewFromInt(-5)}},
		{"descuento mayor que 100", billing.LineInput{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10), DiscountPercentage: decimal.NewFromInt(101)}},
		{"tipo impositivo negativo", billing.LineInput{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10), TaxRate: decimal.NewFromInt(-21)}},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			_, err := billing.CalculateLine(c.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

// TestCalculateInvoiceTotals_SumaExacta el agregado es la suma exacta de los
// importes por línea ya redondeados, sin redondeo cruzado: el total de la
// factura tiene que coincidir céntimo a céntimo con la suma de la columna de
// totales visibles.
func TestCalculateInvoiceTotals_SumaExacta(t *testing.T) {
	lines := []billing.LineInput{
		{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), DiscountPercentage: decimal.NewFromInt(10), TaxRate: decimal.NewFromInt(21)},
		{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(33.33), TaxRate: decimal.NewFromInt(10)},
		{Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromFloat(1.99), TaxRate: decimal.NewFromInt(4)},
	}

	totals, err := billing.CalculateInvoiceTotals(lines)
	require.NoError(t, err)

	// Suma manual de las líneas ya redondeadas
	var base, discount, tax, total decimal.Decimal
	for _, l := range lines {
		r, err := billing.CalculateLine(l)
		require.NoError(t, err)
		base = base.Add(r.SubtotalAfterDiscount)
		discount = discount.Add(r.DiscountAmount)
		tax = tax.Add(r.TaxAmount)
		total = total.Add(r.Total)
	}

	assert.True(t, totals.Subtotal.Equal(base), "subtotal agregado: esperado %s, obtenido %s", base, totals.Subtotal)
	assert.True(t, totals.TotalDiscount.Equal(discount))
	assert.True(t, totals.TotalTax.Equal(tax))
	assert.True(t, totals.Total.Equal(total), "el total debe ser la suma exacta de los totales de línea")
}

// TestCalculateInvoiceTotals_PropiedadCuadre para cualquier factura válida se
// cumple Total == Subtotal + TotalTax, porque cada línea lo cumple tras el
// redondeo por paso y la suma preserva la igualdad.
func TestCalculateInvoiceTotals_PropiedadCuadre(t *testing.T) {
	lines := []billing.LineInput{
		{Quantity: decimal.NewFromFloat(3.5), UnitPrice: decimal.NewFromFloat(12.345), DiscountPercentage: decimal.NewFromFloat(7.5), TaxRate: decimal.NewFromInt(21)},
		{Quantity: decimal.NewFromInt(7), UnitPrice: decimal.NewFromFloat(0.07), TaxRate: decimal.NewFromInt(4)},
		{Quantity: decimal.NewFromFloat(0.25), UnitPrice: decimal.NewFromInt(1000), DiscountPercentage: decimal.NewFromInt(50), TaxRate: decimal.Zero},
	}

	totals, err := billing.CalculateInvoiceTotals(lines)
	require.NoError(t, err)
	assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.TotalTax)),
		"total (%s) debe ser subtotal (%s) + cuota (%s)", totals.Total, totals.Subtotal, totals.TotalTax)
}

// TestCalculateInvoiceTotals_SinLineas una factura sin líneas agrega a cero sin
// error; el rechazo de facturas vacías es responsabilidad del caso de uso.
func TestCalculateInvoiceTotals_SinLineas(t *testing.T) {
	totals, err := billing.CalculateInvoiceTotals(nil)
	require.NoError(t, err)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.TotalTax.IsZero())
	assert.True(t, totals.Total.IsZero())
}

// TestCalculateInvoiceTotals_LineaInvalida el error de una línea identifica su
// posición (base 1) y aborta el agregado completo.
func TestCalculateInvoiceTotals_LineaInvalida(t *testing.T) {
	_, err := billing.CalculateInvoiceTotals([]billing.LineInput{
		{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
		{Quantity: decimal.NewFromInt(-2), UnitPrice: decimal.NewFromInt(10)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "línea 2", "el error debe señalar la línea ofensora")
}
