package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un asiento contable.
const (
	EntryStatusDraft    = "DRAFT"    // Borrador, no cuenta para los balances
	EntryStatusPosted   = "POSTED"   // Contabilizado; debe == haber exacto
	EntryStatusReversed = "REVERSED" // Revertido por asiento de extorno
)

// Sentido del movimiento de un apunte.
const (
	MovementDebit  = "DEBIT"
	MovementCredit = "CREDIT"
)

// LedgerEntry representa un asiento del libro diario.
type LedgerEntry struct {
	ID          string
	CompanyID   string
	FiscalYear  int
	EntryNumber int64 // Numeración correlativa dentro del ejercicio
	Date        time.Time
	Description string
	Status      string
	Lines       []LedgerTransaction
	CreatedAt   time.Time
}

// IsPosted indica si el asiento cuenta para las validaciones de cierre.
func (e *LedgerEntry) IsPosted() bool {
	return e.Status == EntryStatusPosted
}

// TotalsByMovement suma los importes del asiento separados por sentido.
func (e *LedgerEntry) TotalsByMovement() (debit, credit decimal.Decimal) {
	for _, l := range e.Lines {
		if l.Movement == MovementDebit {
			debit = debit.Add(l.Amount)
		} else {
			credit = credit.Add(l.Amount)
		}
	}
	return debit, credit
}

// LedgerTransaction representa un apunte (línea de asiento).
// Amount siempre es >= 0; el sentido lo da Movement.
// VATRate va informado solo en apuntes sobre cuentas de IVA (472/477 del PGC),
// y permite conciliar el IVA contabilizado contra el declarado en facturas.
type LedgerTransaction struct {
	ID          string
	EntryID     string
	LineNumber  int
	AccountCode string
	Movement    string // DEBIT | CREDIT
	Amount      decimal.Decimal
	VATRate     *decimal.Decimal // Porcentaje (21, 10, 4, 0); nil si no aplica
}
