// Package closing ejecuta las validaciones de cierre de ejercicio: una fachada
// sobre las cuatro comprobaciones independientes del libro diario.
package closing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/ledger"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

// Report resultado agregado de las cuatro comprobaciones. Los errores críticos
// (cuadre global, conciliación de IVA) bloquean el cierre; los avisos (balance
// de comprobación, numeración) son informativos.
type Report struct {
	FiscalYear        int
	GlobalBalance     ledger.GlobalBalanceResult
	TrialBalance      ledger.TrialBalanceResult
	VATReconciliation ledger.VATReconciliationResult
	EntrySequence     ledger.EntrySequenceResult
	CriticalErrors    int
	Warnings          int
	OverallValid      bool // Sin errores críticos (los avisos no bloquean)
}

// BalanceValidator fachada de validación de cierre para un ejercicio fiscal.
type BalanceValidator struct {
	ledgerRepo  repository.LedgerRepository
	accountRepo repository.AccountRepository
	invoiceRepo repository.InvoiceRepository
	tolerance   decimal.Decimal
}

// NewBalanceValidator construye la fachada. La tolerancia solo aplica a la
// conciliación de IVA; el cuadre global es exacto.
func NewBalanceValidator(
	ledgerRepo repository.LedgerRepository,
	accountRepo repository.AccountRepository,
	invoiceRepo repository.InvoiceRepository,
	tolerance decimal.Decimal,
) *BalanceValidator {
	return &BalanceValidator{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		invoiceRepo: invoiceRepo,
		tolerance:   tolerance,
	}
}

// ValidateFiscalYear ejecuta las cuatro comprobaciones sobre el estado actual
// del ejercicio. Son hermanas, no un pipeline: el fallo de una no impide
// calcular las demás, y un error de lectura se reporta dentro del resultado de
// la comprobación afectada en vez de abortar el informe completo.
func (v *BalanceValidator) ValidateFiscalYear(ctx context.Context, companyID string, fiscalYear int) Report {
	report := Report{FiscalYear: fiscalYear}

	entries, entriesErr := v.ledgerRepo.ListByFiscalYear(ctx, companyID, fiscalYear)

	// Cuadre global debe/haber (crítico)
	if entriesErr != nil {
		report.GlobalBalance = ledger.GlobalBalanceResult{ErrorMessage: "leer asientos: " + entriesErr.Error()}
	} else {
		report.GlobalBalance = ledger.CheckGlobalBalance(entries)
	}

	// Balance de comprobación por naturaleza (aviso)
	accounts, accountsErr := v.accountRepo.ListByCompany(ctx, companyID)
	switch {
	case entriesErr != nil:
		report.TrialBalance = ledger.TrialBalanceResult{}
	case accountsErr != nil:
		report.TrialBalance = ledger.CheckTrialBalance(entries, nil)
	default:
		report.TrialBalance = ledger.CheckTrialBalance(entries, accounts)
	}
	if entriesErr != nil || accountsErr != nil {
		report.TrialBalance.Valid = false
	}

	// Conciliación de IVA declarado vs contabilizado (crítico)
	invoiceVAT, invErr := v.invoiceRepo.VATByRate(ctx, companyID, fiscalYear)
	postedVAT, postedErr := v.ledgerRepo.PostedVATByRate(ctx, companyID, fiscalYear)
	if invErr != nil || postedErr != nil {
		report.VATReconciliation = ledger.VATReconciliationResult{}
	} else {
		report.VATReconciliation = ledger.CheckVATReconciliation(invoiceVAT, postedVAT, v.tolerance)
	}
	if invErr != nil || postedErr != nil {
		report.VATReconciliation.Valid = false
	}

	// Correlatividad de asientos (aviso)
	if entriesErr != nil {
		report.EntrySequence = ledger.EntrySequenceResult{WarningMessage: "leer asientos: " + entriesErr.Error()}
	} else {
		report.EntrySequence = ledger.CheckEntrySequence(entries)
	}
	if entriesErr != nil {
		report.EntrySequence.Valid = false
	}

	if !report.GlobalBalance.Valid {
		report.CriticalErrors++
	}
	if !report.VATReconciliation.Valid {
		report.CriticalErrors++
	}
	if !report.TrialBalance.Valid {
		report.Warnings++
	}
	if !report.EntrySequence.Valid {
		report.Warnings++
	}
	report.OverallValid = report.CriticalErrors == 0
	return report
}
