package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Códigos de fallo de coherencia. Son datos del dominio, no errores: el llamador
// necesita mostrar TODOS los problemas detectados, no abortar en el primero.
const (
	CodeTotalMismatch    = "TOTAL_MISMATCH"
	CodeNonStandardRate  = "NON_STANDARD_RATE"
	CodeTaxMiscalculated = "TAX_MISCALCULATED"
	CodeBreakdownTotal   = "BREAKDOWN_TOTAL_MISMATCH"
)

// DefaultVATRates tipos legales de IVA vigentes en España, como ratios (no %).
// Se tratan como configuración (pkg/config los puede sustituir) para que el
// validador sea portable a otras jurisdicciones.
func DefaultVATRates() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromFloat(0.04),
		decimal.NewFromFloat(0.10),
		decimal.NewFromFloat(0.21),
	}
}

// DefaultTolerance tolerancia monetaria: dos céntimos. Absorbe el redondeo
// compuesto del OCR y de la agregación multilínea aguas arriba.
func DefaultTolerance() decimal.Decimal {
	return decimal.NewFromFloat(0.02)
}

// VATValidator valida la coherencia entre bases, cuotas y totales de IVA.
// Inmutable tras la construcción; seguro para uso concurrente.
type VATValidator struct {
	rates     []decimal.Decimal // Ordenados ascendente
	tolerance decimal.Decimal
}

// NewVATValidator construye el validador con los tipos legales y la tolerancia.
// Los tipos se ordenan ascendente: DetectRate devuelve siempre el primero que
// encaje, y el orden fijo garantiza determinismo.
func NewVATValidator(rates []decimal.Decimal, tolerance decimal.Decimal) *VATValidator {
	sorted := make([]decimal.Decimal, len(rates))
	copy(sorted, rates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	return &VATValidator{rates: sorted, tolerance: tolerance}
}

// NewDefaultVATValidator construye el validador con los tipos españoles y 0.02.
func NewDefaultVATValidator() *VATValidator {
	return NewVATValidator(DefaultVATRates(), DefaultTolerance())
}

// Tolerance devuelve la tolerancia monetaria configurada. Los llamadores que
// hagan comparaciones propias deben usar esta misma tolerancia, nunca una fija.
func (v *VATValidator) Tolerance() decimal.Decimal {
	return v.tolerance
}

// IsLegalRate indica si el ratio corresponde a un tipo legal configurado,
// dentro de la tolerancia.
func (v *VATValidator) IsLegalRate(ratio decimal.Decimal) bool {
	_, ok := v.matchRate(ratio)
	return ok
}

// CoherenceResult resultado de ValidateCoherence.
type CoherenceResult struct {
	Valid         bool
	Code          string          // Vacío si Valid
	ExpectedTotal decimal.Decimal // Informado en TOTAL_MISMATCH
	DetectedRatio decimal.Decimal // Informado en NON_STANDARD_RATE
}

// ValidateCoherence comprueba que (subtotal, cuota, total) sean mutuamente
// consistentes: el total debe ser subtotal + cuota dentro de la tolerancia, y
// el ratio cuota/subtotal debe corresponder a un tipo legal. Con subtotal y
// cuota a cero la comprobación de tipo pasa trivialmente (el total sigue
// teniendo que cuadrar).
func (v *VATValidator) ValidateCoherence(subtotal, taxTotal, total decimal.Decimal) CoherenceResult {
	expected := subtotal.Add(taxTotal)
	if expected.Sub(total).Abs().GreaterThan(v.tolerance) {
		return CoherenceResult{Code: CodeTotalMismatch, ExpectedTotal: expected}
	}
	if subtotal.IsPositive() {
		ratio := taxTotal.Div(subtotal)
		if _, ok := v.matchRate(ratio); !ok {
			return CoherenceResult{Code: CodeNonStandardRate, DetectedRatio: ratio}
		}
	}
	return CoherenceResult{Valid: true}
}

// CalculationResult resultado de ValidateCalculation.
type CalculationResult struct {
	Valid       bool
	Code        string          // Vacío si Valid
	ExpectedTax decimal.Decimal // base * rate, informado en fallo
}

// ValidateCalculation comprueba que cuota ≈ base * tipo dentro de la tolerancia.
// El tipo va como ratio (0.21), no como porcentaje.
func (v *VATValidator) ValidateCalculation(base, tax, rate decimal.Decimal) CalculationResult {
	expected := base.Mul(rate)
	if expected.Sub(tax).Abs().GreaterThan(v.tolerance) {
		return CalculationResult{Code: CodeTaxMiscalculated, ExpectedTax: expected.Round(2)}
	}
	return CalculationResult{Valid: true}
}

// DetectRate devuelve el tipo legal implicado por (base, cuota), u ok=false si
// la base no es positiva o ningún tipo encaja dentro de la tolerancia.
func (v *VATValidator) DetectRate(base, tax decimal.Decimal) (decimal.Decimal, bool) {
	if !base.IsPositive() {
		return decimal.Decimal{}, false
	}
	return v.matchRate(tax.Div(base))
}

// matchRate recorre los tipos en orden ascendente y devuelve el primero dentro
// de la tolerancia.
func (v *VATValidator) matchRate(ratio decimal.Decimal) (decimal.Decimal, bool) {
	for _, r := range v.rates {
		if ratio.Sub(r).Abs().LessThanOrEqual(v.tolerance) {
			return r, true
		}
	}
	return decimal.Decimal{}, false
}

// BreakdownItem una línea del desglose de IVA declarado (base, cuota y tipo).
type BreakdownItem struct {
	Base decimal.Decimal
	Tax  decimal.Decimal
	Rate decimal.Decimal // Ratio (0.21)
}

// BreakdownResult resultado de ValidateBreakdown.
type BreakdownResult struct {
	Valid         bool
	Code          string          // Vacío si Valid
	FailedItem    int             // Índice (base 0) del ítem que falló; -1 si no aplica
	ExpectedTax   decimal.Decimal // Del ítem fallido (TAX_MISCALCULATED)
	ExpectedTotal decimal.Decimal // Suma base+cuota (BREAKDOWN_TOTAL_MISMATCH)
}

// ValidateBreakdown valida un desglose de IVA completo: cada ítem debe pasar
// ValidateCalculation y la suma de (base + cuota) debe cuadrar con el total
// declarado dentro de la tolerancia. Un solo ítem incorrecto o el descuadre del
// agregado invalidan todo el desglose.
func (v *VATValidator) ValidateBreakdown(items []BreakdownItem, declaredTotal decimal.Decimal) BreakdownResult {
	var sum decimal.Decimal
	for i, it := range items {
		if r := v.ValidateCalculation(it.Base, it.Tax, it.Rate); !r.Valid {
			return BreakdownResult{Code: r.Code, FailedItem: i, ExpectedTax: r.ExpectedTax}
		}
		sum = sum.Add(it.Base).Add(it.Tax)
	}
	if sum.Sub(declaredTotal).Abs().GreaterThan(v.tolerance) {
		return BreakdownResult{Code: CodeBreakdownTotal, FailedItem: -1, ExpectedTotal: sum.Round(2)}
	}
	return BreakdownResult{Valid: true, FailedItem: -1}
}
