package dto

import "github.com/shopspring/decimal"

// GlobalBalanceDTO cuadre global debe/haber del ejercicio.
type GlobalBalanceDTO struct {
	Valid        bool            `json:"valid"`
	TotalDebit   decimal.Decimal `json:"total_debit"`
	TotalCredit  decimal.Decimal `json:"total_credit"`
	Difference   decimal.Decimal `json:"difference"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// TrialBalanceLineDTO saldo de una cuenta con su diagnóstico de naturaleza.
type TrialBalanceLineDTO struct {
	AccountCode         string          `json:"account_code"`
	AccountName         string          `json:"account_name,omitempty"`
	Balance             decimal.Decimal `json:"balance"`
	BalanceType         string          `json:"balance_type"`
	ExpectedBalanceType string          `json:"expected_balance_type,omitempty"`
	Valid               bool            `json:"valid"`
	Warning             string          `json:"warning,omitempty"`
}

// VATReconciliationLineDTO conciliación de un tipo impositivo.
type VATReconciliationLineDTO struct {
	VATType         string          `json:"vat_type"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	VATIssued       decimal.Decimal `json:"vat_issued"`
	VATReceived     decimal.Decimal `json:"vat_received"`
	VATInAccounting decimal.Decimal `json:"vat_in_accounting"`
	Difference      decimal.Decimal `json:"difference"`
	Valid           bool            `json:"valid"`
	ErrorMessage    string          `json:"error_message,omitempty"`
}

// TrialBalanceDTO balance de comprobación completo.
type TrialBalanceDTO struct {
	Valid bool                  `json:"valid"`
	Lines []TrialBalanceLineDTO `json:"lines"`
}

// VATReconciliationDTO conciliación de IVA completa.
type VATReconciliationDTO struct {
	Valid bool                       `json:"valid"`
	Lines []VATReconciliationLineDTO `json:"lines"`
}

// EntrySequenceDTO correlatividad de la numeración de asientos.
type EntrySequenceDTO struct {
	MinEntryNumber   int64   `json:"min_entry_number"`
	MaxEntryNumber   int64   `json:"max_entry_number"`
	ExpectedCount    int64   `json:"expected_count"`
	ActualCount      int64   `json:"actual_count"`
	MissingNumbers   []int64 `json:"missing_numbers"`
	DuplicateNumbers []int64 `json:"duplicate_numbers"`
	HasGaps          bool    `json:"has_gaps"`
	HasDuplicates    bool    `json:"has_duplicates"`
	Valid            bool    `json:"valid"`
	WarningMessage   string  `json:"warning_message,omitempty"`
}

// ClosingReportResponse informe completo de validación de cierre.
type ClosingReportResponse struct {
	FiscalYear        int                        `json:"fiscal_year"`
	GlobalBalance     GlobalBalanceDTO           `json:"global_balance"`
	TrialBalance      TrialBalanceDTO            `json:"trial_balance"`
	VATReconciliation VATReconciliationDTO       `json:"vat_reconciliation"`
	EntrySequence     EntrySequenceDTO           `json:"entry_sequence"`
	CriticalErrors    int                        `json:"critical_errors"`
	Warnings          int                        `json:"warnings"`
	OverallValid      bool                       `json:"overall_valid"`
}

// VerifyChainResponse resultado de la verificación de una partición de la cadena.
type VerifyChainResponse struct {
	InvoiceType      string `json:"invoice_type"`
	IsValid          bool   `json:"is_valid"`
	Entries          int64  `json:"entries"`
	BrokenAtPosition int64  `json:"broken_at_position,omitempty"`
	Reason           string `json:"reason,omitempty"`
}
