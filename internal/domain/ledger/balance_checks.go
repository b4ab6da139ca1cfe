// Package ledger implementa las cuatro comprobaciones de consistencia del
// libro diario para un ejercicio fiscal: cuadre global debe/haber, balance de
// comprobación por naturaleza de cuenta, conciliación de IVA y correlatividad
// de la numeración de asientos. Son funciones puras sobre filas en memoria:
// agregación y escaneo ordenado, sin depender de extensiones de base de datos.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
)

// GlobalBalanceResult resultado del cuadre global debe/haber del ejercicio.
type GlobalBalanceResult struct {
	Valid        bool
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	Difference   decimal.Decimal // TotalDebit - TotalCredit (con signo)
	ErrorMessage string
}

// CheckGlobalBalance suma el debe y el haber de todos los asientos POSTED.
// El cuadre es exacto, sin tolerancia: son los importes canónicos del libro,
// no estimaciones derivadas.
func CheckGlobalBalance(entries []*entity.LedgerEntry) GlobalBalanceResult {
	var debit, credit decimal.Decimal
	for _, e := range entries {
		if !e.IsPosted() {
			continue
		}
		d, c := e.TotalsByMovement()
		debit = debit.Add(d)
		credit = credit.Add(c)
	}
	diff := debit.Sub(credit)
	res := GlobalBalanceResult{
		Valid:       diff.IsZero(),
		TotalDebit:  debit,
		TotalCredit: credit,
		Difference:  diff,
	}
	if !res.Valid {
		res.ErrorMessage = fmt.Sprintf("el libro diario no cuadra: debe %s, haber %s, diferencia %s",
			debit, credit, diff)
	}
	return res
}

// TrialBalanceLine saldo de una cuenta con movimiento y su diagnóstico.
type TrialBalanceLine struct {
	AccountCode         string
	AccountName         string
	Balance             decimal.Decimal // Debe - haber (con signo)
	BalanceType         string          // Naturaleza real del saldo
	ExpectedBalanceType string          // Naturaleza esperada según el tipo de cuenta
	Valid               bool
	Warning             string
}

// TrialBalanceResult resultado del balance de comprobación.
type TrialBalanceResult struct {
	Valid bool
	Lines []TrialBalanceLine // Todas las cuentas con movimiento neto, orden por código
}

// CheckTrialBalance calcula el saldo neto por cuenta de los asientos POSTED y
// comprueba que su naturaleza coincida con la esperada por el tipo de cuenta.
// Los descuadres de naturaleza son avisos, no errores fatales: contracuentas y
// asientos de regularización pueden invertir legítimamente el signo.
func CheckTrialBalance(entries []*entity.LedgerEntry, accounts []*entity.Account) TrialBalanceResult {
	byCode := make(map[string]*entity.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}

	balances := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if !e.IsPosted() {
			continue
		}
		for _, l := range e.Lines {
			if l.Movement == entity.MovementDebit {
				balances[l.AccountCode] = balances[l.AccountCode].Add(l.Amount)
			} else {
				balances[l.AccountCode] = balances[l.AccountCode].Sub(l.Amount)
			}
		}
	}

	codes := make([]string, 0, len(balances))
	for code := range balances {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	res := TrialBalanceResult{Valid: true}
	for _, code := range codes {
		balance := balances[code]
		if balance.IsZero() {
			continue
		}
		balanceType := entity.BalanceTypeDebit
		if balance.IsNegative() {
			balanceType = entity.BalanceTypeCredit
		}
		line := TrialBalanceLine{
			AccountCode: code,
			Balance:     balance,
			BalanceType: balanceType,
		}
		acc, known := byCode[code]
		if !known {
			line.Warning = fmt.Sprintf("cuenta %s sin tipo definido en el plan contable", code)
		} else {
			line.AccountName = acc.Name
			line.ExpectedBalanceType = acc.ExpectedBalanceType()
			line.Valid = line.BalanceType == line.ExpectedBalanceType
			if !line.Valid {
				line.Warning = fmt.Sprintf("cuenta %s (%s) con saldo %s de naturaleza %s; se esperaba %s",
					code, acc.Name, balance, line.BalanceType, line.ExpectedBalanceType)
			}
		}
		if !line.Valid {
			res.Valid = false
		}
		res.Lines = append(res.Lines, line)
	}
	return res
}

// InvoiceVATRow cuota de IVA implicada por las facturas del periodo, agrupada
// por tipo impositivo (ratio) y separada por dirección.
type InvoiceVATRow struct {
	Rate     decimal.Decimal // Ratio (0.21)
	Issued   decimal.Decimal // Cuota repercutida (facturas emitidas)
	Received decimal.Decimal // Cuota soportada (facturas recibidas)
}

// PostedVATRow cuota de IVA realmente contabilizada en las cuentas de IVA
// (472 soportado / 477 repercutido), agrupada por tipo.
type PostedVATRow struct {
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// VATReconciliationLine conciliación de un tipo impositivo.
type VATReconciliationLine struct {
	VATType         string // Etiqueta legible ("IVA 21%")
	VATRate         decimal.Decimal
	VATIssued       decimal.Decimal
	VATReceived     decimal.Decimal
	VATInAccounting decimal.Decimal
	Difference      decimal.Decimal // (emitido + recibido) - contabilizado
	Valid           bool
	ErrorMessage    string
}

// VATReconciliationResult resultado de la conciliación de IVA del periodo.
type VATReconciliationResult struct {
	Valid bool
	Lines []VATReconciliationLine
}

// CheckVATReconciliation compara, por tipo impositivo, la cuota implicada por
// las facturas del periodo contra la cuota asentada en las cuentas de IVA,
// dentro de la tolerancia monetaria. Un solo tipo descuadrado es error crítico.
func CheckVATReconciliation(invoiceRows []InvoiceVATRow, postedRows []PostedVATRow, tolerance decimal.Decimal) VATReconciliationResult {
	type bucket struct {
		rate     decimal.Decimal
		issued   decimal.Decimal
		received decimal.Decimal
		posted   decimal.Decimal
	}
	byRate := make(map[string]*bucket)
	key := func(r decimal.Decimal) string { return r.String() }
	get := func(r decimal.Decimal) *bucket {
		b, ok := byRate[key(r)]
		if !ok {
			b = &bucket{rate: r}
			byRate[key(r)] = b
		}
		return b
	}
	for _, row := range invoiceRows {
		b := get(row.Rate)
		b.issued = b.issued.Add(row.Issued)
		b.received = b.received.Add(row.Received)
	}
	for _, row := range postedRows {
		b := get(row.Rate)
		b.posted = b.posted.Add(row.Amount)
	}

	keys := make([]string, 0, len(byRate))
	for k := range byRate {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return byRate[keys[i]].rate.LessThan(byRate[keys[j]].rate)
	})

	res := VATReconciliationResult{Valid: true}
	for _, k := range keys {
		b := byRate[k]
		declared := b.issued.Add(b.received)
		diff := declared.Sub(b.posted)
		line := VATReconciliationLine{
			VATType:         fmt.Sprintf("IVA %s%%", b.rate.Mul(decimal.NewFromInt(100))),
			VATRate:         b.rate,
			VATIssued:       b.issued,
			VATReceived:     b.received,
			VATInAccounting: b.posted,
			Difference:      diff,
			Valid:           diff.Abs().LessThanOrEqual(tolerance),
		}
		if !line.Valid {
			line.ErrorMessage = fmt.Sprintf("IVA al %s%%: facturas declaran %s pero hay %s contabilizado (diferencia %s)",
				b.rate.Mul(decimal.NewFromInt(100)), declared, b.posted, diff)
			res.Valid = false
		}
		res.Lines = append(res.Lines, line)
	}
	return res
}

// EntrySequenceResult resultado de la comprobación de correlatividad.
type EntrySequenceResult struct {
	MinEntryNumber   int64
	MaxEntryNumber   int64
	ExpectedCount    int64
	ActualCount      int64
	MissingNumbers   []int64
	DuplicateNumbers []int64
	HasGaps          bool
	HasDuplicates    bool
	Valid            bool
	WarningMessage   string
}

// CheckEntrySequence verifica que los asientos POSTED formen una numeración
// correlativa y sin duplicados entre el mínimo y el máximo observados. Huecos y
// duplicados se recopilan completos (no solo se señalan). Es un aviso, no un
// error fatal: los asientos anulados pueden dejar huecos legítimos que se
// resuelven por política fuera de este núcleo.
func CheckEntrySequence(entries []*entity.LedgerEntry) EntrySequenceResult {
	numbers := make([]int64, 0, len(entries))
	for _, e := range entries {
		if e.IsPosted() {
			numbers = append(numbers, e.EntryNumber)
		}
	}
	if len(numbers) == 0 {
		return EntrySequenceResult{Valid: true}
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	res := EntrySequenceResult{
		MinEntryNumber: numbers[0],
		MaxEntryNumber: numbers[len(numbers)-1],
		ActualCount:    int64(len(numbers)),
	}
	res.ExpectedCount = res.MaxEntryNumber - res.MinEntryNumber + 1

	seen := make(map[int64]bool, len(numbers))
	for _, n := range numbers {
		if seen[n] {
			// Cada número duplicado se reporta una sola vez
			if len(res.DuplicateNumbers) == 0 || res.DuplicateNumbers[len(res.DuplicateNumbers)-1] != n {
				res.DuplicateNumbers = append(res.DuplicateNumbers, n)
			}
			continue
		}
		seen[n] = true
	}
	for n := res.MinEntryNumber; n <= res.MaxEntryNumber; n++ {
		if !seen[n] {
			res.MissingNumbers = append(res.MissingNumbers, n)
		}
	}

	res.HasGaps = len(res.MissingNumbers) > 0
	res.HasDuplicates = len(res.DuplicateNumbers) > 0
	res.Valid = !res.HasGaps && !res.HasDuplicates
	if !res.Valid {
		res.WarningMessage = fmt.Sprintf("numeración de asientos %d..%d: %d huecos, %d duplicados",
			res.MinEntryNumber, res.MaxEntryNumber, len(res.MissingNumbers), len(res.DuplicateNumbers))
	}
	return res
}
