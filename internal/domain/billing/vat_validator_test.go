package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/billing"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// TestValidateCoherence_Valida 100 + 21 = 121 con ratio 0.21 (tipo general):
// coherente sin diagnóstico.
func TestValidateCoherence_Valida(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	r := v.ValidateCoherence(d(100), d(21), d(121))
	assert.True(t, r.Valid, "100 + 21 = 121 al 21%% debe ser coherente")
	assert.Empty(t, r.Code, "sin fallo no debe haber código")
}

// TestValidateCoherence_DentroDeTolerancia un descuadre de exactamente dos
// céntimos sigue siendo válido; la tolerancia es inclusiva.
func TestValidateCoherence_DentroDeTolerancia(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	r := v.ValidateCoherence(d(100), d(21), d(121.02))
	assert.True(t, r.Valid, "una diferencia de 0.02 no debe marcar descuadre")

	r = v.ValidateCoherence(d(100), d(21), d(120.98))
	assert.True(t, r.Valid)
}

// TestValidateCoherence_TotalMismatch 100 + 21 declarado como 120: descuadre de
// total con el total esperado (121) en el diagnóstico.
func TestValidateCoherence_TotalMismatch(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	r := v.ValidateCoherence(d(100), d(21), d(120))
	require.False(t, r.Valid)
	assert.Equal(t, billing.CodeTotalMismatch, r.Code)
	assert.True(t, r.ExpectedTotal.Equal(d(121)), "el diagnóstico debe llevar el total esperado 121, obtenido %s", r.ExpectedTotal)
}

// TestValidateCoherence_TipoNoEstandar cuota del 15% sobre la base: el total
// cuadra pero el ratio no corresponde a ningún tipo legal español.
func TestValidateCoherence_TipoNoEstandar(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	r := v.ValidateCoherence(d(100), d(15), d(115))
	require.False(t, r.Valid)
	assert.Equal(t, billing.CodeNonStandardRate, r.Code)
	assert.True(t, r.DetectedRatio.Equal(d(0.15)), "el diagnóstico debe llevar el ratio detectado 0.15")
}

// TestValidateCoherence_PrimeroElTotal con total descuadrado Y ratio ilegal se
// reporta el descuadre de total: es el fallo más grave y el primero del orden
// de evaluación.
func TestValidateCoherence_PrimeroElTotal(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	r := v.ValidateCoherence(d(100), d(15), d(200))
	require.False(t, r.Valid)
	assert.Equal(t, billing.CodeTotalMismatch, r.Code)
}

// TestValidateCoherence_SubtotalCero con base cero la comprobación de tipo pasa
// trivialmente; el total sigue teniendo que cuadrar.
func TestValidateCoherence_SubtotalCero(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	assert.True(t, v.ValidateCoherence(decimal.Zero, decimal.Zero, decimal.Zero).Valid,
		"factura a cero debe ser coherente")

	r := v.ValidateCoherence(decimal.Zero, decimal.Zero, d(5))
	require.False(t, r.Valid)
	assert.Equal(t, billing.CodeTotalMismatch, r.Code)
}

// TestValidateCalculation cuota ≈ base × tipo dentro de la tolerancia.
func TestValidateCalculation(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	assert.True(t, v.ValidateCalculation(d(90), d(18.90), d(0.21)).Valid)
	assert.True(t, v.ValidateCalculation(d(90), d(18.91), d(0.21)).Valid,
		"un céntimo de diferencia entra en la tolerancia")

	r := v.ValidateCalculation(d(90), d(19.50), d(0.21))
	require.False(t, r.Valid)
	assert.Equal(t, billing.CodeTaxMiscalculated, r.Code)
	assert.True(t, r.ExpectedTax.Equal(d(18.90)), "la cuota esperada debe ser 18.90, obtenido %s", r.ExpectedTax)
}

// TestDetectRate resolución del tipo implicado por (base, cuota).
func TestDetectRate(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	rate, ok := v.DetectRate(d(100), d(21))
	require.True(t, ok)
	assert.True(t, rate.Equal(d(0.21)))

	rate, ok = v.DetectRate(d(100), d(10))
	require.True(t, ok)
	assert.True(t, rate.Equal(d(0.10)))

	rate, ok = v.DetectRate(d(100), d(4))
	require.True(t, ok)
	assert.True(t, rate.Equal(d(0.04)))

	rate, ok = v.DetectRate(d(100), decimal.Zero)
	require.True(t, ok)
	assert.True(t, rate.IsZero(), "cuota cero sobre base positiva implica tipo 0%%")
}

// TestDetectRate_Indeterminado base no positiva o ratio fuera de todos los
// tipos legales: sin resultado.
func TestDetectRate_Indeterminado(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	_, ok := v.DetectRate(decimal.Zero, d(10))
	assert.False(t, ok, "con base cero el tipo es indeterminado")

	_, ok = v.DetectRate(d(100), d(15))
	assert.False(t, ok, "15%% no es un tipo legal español")
}

// TestDetectRate_PrimerTipoAscendente los tipos se evalúan en orden ascendente:
// un ratio equidistante resuelve siempre al tipo menor, de forma determinista.
func TestDetectRate_PrimerTipoAscendente(t *testing.T) {
	// Tolerancia amplia a propósito para que 0.07 encaje en 0.04 y 0.10
	v := billing.NewVATValidator([]decimal.Decimal{d(0.10), d(0.04)}, d(0.03))

	rate, ok := v.DetectRate(d(100), d(7))
	require.True(t, ok)
	assert.True(t, rate.Equal(d(0.04)), "ante ambigüedad debe resolverse el tipo menor, obtenido %s", rate)
}

// TestValidateBreakdown desglose por tipos: cada ítem debe pasar el cálculo y
// la suma base+cuota debe cuadrar con el total declarado.
func TestValidateBreakdown(t *testing.T) {
	v := billing.NewDefaultVATValidator()
	items := []billing.BreakdownItem{
		{Base: d(100), Tax: d(21), Rate: d(0.21)},
		{Base: d(50), Tax: d(5), Rate: d(0.10)},
	}

	r := v.ValidateBreakdown(items, d(176))
	assert.True(t, r.Valid, "desglose correcto con total 176 debe validar")
	assert.Equal(t, -1, r.FailedItem)
}

// TestValidateBreakdown_ItemIncorrecto un solo ítem con la cuota mal calculada
// invalida el desglose completo e identifica su índice.
func TestValidateBreakdown_ItemIncorrecto(t *testing.T) {
	v := billing.NewDefaultVATValidator()
	items := []billing.BreakdownItem{
		{Base: d(100), Tax: d(21), Rate: d(0.21)},
		{Base: d(50), Tax: d(9), Rate: d(0.10)}, // Debería ser 5
	}

	r := v.ValidateBreakdown(items, d(180))
	require.False(t, r.Valid)
	assert.Equal(t, billing.CodeTaxMiscalculated, r.Code)
	assert.Equal(t, 1, r.FailedItem, "debe señalarse el ítem 1 (base 0)")
	assert.True(t, r.ExpectedTax.Equal(d(5)))
}

// TestValidateBreakdown_TotalDescuadrado los ítems son correctos pero la suma
// no cuadra con el total declarado.
func TestValidateBreakdown_TotalDescuadrado(t *testing.T) {
	v := billing.NewDefaultVATValidator()
	items := []billing.BreakdownItem{
		{Base: d(100), Tax: d(21), Rate: d(0.21)},
	}

	r := v.ValidateBreakdown(items, d(130))
	require.False(t, r.Valid)
	assert.Equal(t, billing.CodeBreakdownTotal, r.Code)
	assert.Equal(t, -1, r.FailedItem, "el descuadre del agregado no señala ningún ítem")
	assert.True(t, r.ExpectedTotal.Equal(d(121)))
}

// TestTolerance el validador expone la tolerancia con la que fue construido.
func TestTolerance(t *testing.T) {
	assert.True(t, billing.NewDefaultVATValidator().Tolerance().Equal(d(0.02)))

	v := billing.NewVATValidator(billing.DefaultVATRates(), d(0.10))
	assert.True(t, v.Tolerance().Equal(d(0.10)))
}

// TestIsLegalRate un ratio es legal si cae dentro de la tolerancia de algún
// tipo configurado.
func TestIsLegalRate(t *testing.T) {
	v := billing.NewDefaultVATValidator()

	for _, ratio := range []float64{0, 0.04, 0.10, 0.21} {
		assert.True(t, v.IsLegalRate(d(ratio)), "el tipo %v es legal", ratio)
	}
	assert.False(t, v.IsLegalRate(d(0.15)))
	assert.False(t, v.IsLegalRate(d(0.25)))
}
