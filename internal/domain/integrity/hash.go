// Package integrity: hash canónico de la cadena de integridad de facturas.
// Algoritmo: SHA-384 sobre la concatenación de los campos en orden estricto,
// incluyendo el hash del eslabón anterior. Cambiar cualquier campo histórico
// cambia su hash y rompe todos los enlaces posteriores.
package integrity

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
)

// GenerateHash calcula el hash de un eslabón.
// Cadena (sin separadores): InvoiceType + InvoiceNumber + FechaYYYY-MM-DD +
// Total (2 decimales, punto decimal, sin separador de miles) + PreviousHash.
// PreviousHash va vacío solo en el primer eslabón de la partición.
func GenerateHash(invoiceType, invoiceNumber string, invoiceDate time.Time, total decimal.Decimal, previousHash string) (string, error) {
	if invoiceType != entity.InvoiceTypeIssued && invoiceType != entity.InvoiceTypeReceived {
		return "", fmt.Errorf("%w: tipo de factura %q", domain.ErrInvalidInput, invoiceType)
	}
	number := strings.TrimSpace(invoiceNumber)
	if number == "" {
		return "", fmt.Errorf("%w: número de factura vacío", domain.ErrInvalidInput)
	}
	if invoiceDate.IsZero() {
		return "", fmt.Errorf("%w: fecha de factura vacía", domain.ErrInvalidInput)
	}

	cadena := invoiceType +
		number +
		invoiceDate.Format("2006-01-02") +
		total.Round(2).StringFixed(2) +
		previousHash

	sum := sha512.Sum384([]byte(cadena))
	return hex.EncodeToString(sum[:]), nil
}

// HashFor calcula el hash esperado de un eslabón ya construido, a partir de sus
// propios campos y del PreviousHash que tiene almacenado. Lo usa la verificación
// de cadena para recomputar cada enlace.
func HashFor(e *entity.IntegrityLogEntry) (string, error) {
	return GenerateHash(e.InvoiceType, e.InvoiceNumber, e.InvoiceDate, e.Total, e.PreviousHash)
}
