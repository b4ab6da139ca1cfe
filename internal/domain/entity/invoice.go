package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección de la factura respecto a la franquicia.
const (
	InvoiceTypeIssued   = "ISSUED"   // Factura emitida a cliente
	InvoiceTypeReceived = "RECEIVED" // Factura recibida de proveedor
)

// Estados del ciclo de vida de una factura.
const (
	InvoiceStatusDraft  = "DRAFT"  // Guardada para reservar ID y numeración
	InvoiceStatusPosted = "POSTED" // Contabilizada; entra en la cadena de integridad
	InvoiceStatusVoided = "VOIDED" // Anulada (la cadena conserva su registro)
)

// Invoice representa la cabecera de una factura (emitida o recibida).
type Invoice struct {
	ID            string
	CompanyID     string
	Type          string // ISSUED | RECEIVED
	Series        string
	Number        string
	Date          time.Time
	Subtotal      decimal.Decimal // Suma de bases tras descuento
	TotalDiscount decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	Status        string
	IntegrityHash string // Hash SHA-384 estampado al encadenar (vacío en DRAFT)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullNumber devuelve el número completo (serie + número) tal como se imprime.
func (i *Invoice) FullNumber() string {
	return i.Series + i.Number
}

// InvoiceLine representa una línea de detalle con sus importes ya redondeados.
type InvoiceLine struct {
	ID                 string
	InvoiceID          string
	LineNumber         int
	Description        string
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal // En [0,100]
	TaxRate            decimal.Decimal // Porcentaje (21, 10, 4, 0)
	Subtotal           decimal.Decimal // Base tras descuento
	TaxAmount          decimal.Decimal
	Total              decimal.Decimal
}
