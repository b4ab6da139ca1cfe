package entity

// Tipos de cuenta del plan contable.
const (
	AccountTypeAsset     = "ASSET"     // Activo
	AccountTypeLiability = "LIABILITY" // Pasivo
	AccountTypeEquity    = "EQUITY"    // Patrimonio neto
	AccountTypeIncome    = "INCOME"    // Ingresos
	AccountTypeExpense   = "EXPENSE"   // Gastos
)

// Naturaleza del saldo de una cuenta.
const (
	BalanceTypeDebit  = "DEBIT"  // Saldo deudor
	BalanceTypeCredit = "CREDIT" // Saldo acreedor
)

// Account representa una cuenta del plan contable de la empresa (PGC).
type Account struct {
	Code      string
	CompanyID string
	Name      string
	Type      string // ASSET | LIABILITY | EQUITY | INCOME | EXPENSE
}

// ExpectedBalanceType devuelve la naturaleza esperada del saldo según el tipo:
// activo y gastos son deudores; pasivo, patrimonio e ingresos son acreedores.
func (a *Account) ExpectedBalanceType() string {
	switch a.Type {
	case AccountTypeAsset, AccountTypeExpense:
		return BalanceTypeDebit
	default:
		return BalanceTypeCredit
	}
}
