package dto

import "github.com/shopspring/decimal"

// LineRequest línea cruda de factura (cantidad, precio, descuento %, IVA %).
type LineRequest struct {
	Description        string          `json:"description,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
}

// LineResultResponse importes calculados de una línea (2 decimales).
type LineResultResponse struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	SubtotalAfterDiscount decimal.Decimal `json:"subtotal_after_discount"`
	TaxAmount             decimal.Decimal `json:"tax_amount"`
	Total                 decimal.Decimal `json:"total"`
}

// TotalsRequest body para POST /api/invoices/totals.
type TotalsRequest struct {
	Lines []LineRequest `json:"lines"`
}

// TotalsResponse totales de factura con el detalle por línea.
type TotalsResponse struct {
	Subtotal      decimal.Decimal      `json:"subtotal"`
	TotalDiscount decimal.Decimal      `json:"total_discount"`
	TotalTax      decimal.Decimal      `json:"total_tax"`
	Total         decimal.Decimal      `json:"total"`
	Lines         []LineResultResponse `json:"lines"`
}

// CoherenceRequest body para POST /api/invoices/vat/coherence.
// Si Items va informado se valida también el desglose por tipos.
type CoherenceRequest struct {
	Subtotal decimal.Decimal        `json:"subtotal"`
	TaxTotal decimal.Decimal        `json:"tax_total"`
	Total    decimal.Decimal        `json:"total"`
	Items    []BreakdownItemRequest `json:"items,omitempty"`
}

// BreakdownItemRequest línea del desglose de IVA (base, cuota, tipo como ratio).
type BreakdownItemRequest struct {
	Base decimal.Decimal `json:"base"`
	Tax  decimal.Decimal `json:"tax"`
	Rate decimal.Decimal `json:"rate"`
}

// CoherenceResponse resultado estructurado de la validación de coherencia.
// Valid=false no es un error HTTP: el llamador necesita ver el diagnóstico.
type CoherenceResponse struct {
	Valid         bool             `json:"valid"`
	Code          string           `json:"code,omitempty"`
	ExpectedTotal *decimal.Decimal `json:"expected_total,omitempty"`
	DetectedRatio *decimal.Decimal `json:"detected_ratio,omitempty"`
	DetectedRate  *decimal.Decimal `json:"detected_rate,omitempty"`
	FailedItem    *int             `json:"failed_item,omitempty"`
	ExpectedTax   *decimal.Decimal `json:"expected_tax,omitempty"`
}

// PostInvoiceRequest body para POST /api/invoices. Los totales declarados son
// los visibles en el documento (OCR o tecleo); el núcleo los contrasta con los
// calculados antes de permitir la contabilización.
type PostInvoiceRequest struct {
	Type             string          `json:"type"` // ISSUED | RECEIVED
	Series           string          `json:"series"`
	Number           string          `json:"number"`
	Date             string          `json:"date"` // YYYY-MM-DD
	Lines            []LineRequest   `json:"lines"`
	DeclaredTaxTotal decimal.Decimal `json:"declared_tax_total"`
	DeclaredTotal    decimal.Decimal `json:"declared_total"`
}

// InvoiceResponse factura contabilizada con su posición en la cadena.
type InvoiceResponse struct {
	ID            string               `json:"id"`
	CompanyID     string               `json:"company_id"`
	Type          string               `json:"type"`
	Series        string               `json:"series"`
	Number        string               `json:"number"`
	Date          string               `json:"date"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	TotalDiscount decimal.Decimal      `json:"total_discount"`
	TaxTotal      decimal.Decimal      `json:"tax_total"`
	GrandTotal    decimal.Decimal      `json:"grand_total"`
	Status        string               `json:"status"`
	IntegrityHash string               `json:"integrity_hash,omitempty"`
	ChainPosition int64                `json:"chain_position,omitempty"`
	Lines         []LineResultResponse `json:"lines,omitempty"`
}
