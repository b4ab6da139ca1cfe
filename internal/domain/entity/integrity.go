package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntegrityLogEntry representa un eslabón de la cadena de integridad de facturas.
// La cadena es append-only y se particiona por tipo de factura (ISSUED/RECEIVED):
// ChainPosition crece de forma estrictamente correlativa desde 1 dentro de cada
// partición, y PreviousHash enlaza con el Hash del eslabón anterior (vacío solo
// en el primero). Una vez que la cadena avanza, los eslabones nunca se modifican.
type IntegrityLogEntry struct {
	ID            string
	CompanyID     string
	InvoiceID     string
	InvoiceType   string // ISSUED | RECEIVED
	InvoiceNumber string
	InvoiceDate   time.Time
	Total         decimal.Decimal
	Hash          string // SHA-384 hex sobre los campos propios + PreviousHash
	PreviousHash  string // Vacío solo si ChainPosition == 1
	ChainPosition int64
	CreatedAt     time.Time
}
