package postgres

import (
	"context"
	"fmt"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/ledger"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo lecturas del libro diario para las validaciones de cierre.
// El núcleo nunca escribe asientos: el histórico pertenece al módulo contable.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// ListByFiscalYear devuelve los asientos del ejercicio con sus apuntes.
// Dos consultas (cabeceras y apuntes) y ensamblado en memoria: las
// comprobaciones de cierre trabajan sobre filas ordinarias, sin depender de
// agregados del motor.
func (r *LedgerRepo) ListByFiscalYear(ctx context.Context, companyID string, fiscalYear int) ([]*entity.LedgerEntry, error) {
	const entriesQuery = `
		SELECT id, company_id, fiscal_year, entry_number, date, description, status, created_at
		FROM ledger_entries
		WHERE company_id = $1 AND fiscal_year = $2
		ORDER BY entry_number`
	rows, err := r.q.Query(ctx, entriesQuery, companyID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.LedgerEntry
	byID := make(map[string]*entity.LedgerEntry)
	for rows.Next() {
		var e entity.LedgerEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.FiscalYear, &e.EntryNumber,
			&e.Date, &e.Description, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
		byID[e.ID] = &e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const linesQuery = `
		SELECT t.id, t.entry_id, t.line_number, t.account_code, t.movement, t.amount, t.vat_rate
		FROM ledger_transactions t
		JOIN ledger_entries e ON e.id = t.entry_id
		WHERE e.company_id = $1 AND e.fiscal_year = $2
		ORDER BY t.entry_id, t.line_number`
	lineRows, err := r.q.Query(ctx, linesQuery, companyID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("list ledger transactions: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var t entity.LedgerTransaction
		if err := lineRows.Scan(&t.ID, &t.EntryID, &t.LineNumber, &t.AccountCode,
			&t.Movement, &t.Amount, &t.VATRate); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		if e, ok := byID[t.EntryID]; ok {
			e.Lines = append(e.Lines, t)
		}
	}
	return entries, lineRows.Err()
}

// PostedVATByRate agrega la cuota asentada en las cuentas de IVA del PGC
// (472 IVA soportado, 477 IVA repercutido) de los asientos POSTED, por tipo.
// El saldo natural de cada grupo da el signo: deudor en 472, acreedor en 477.
func (r *LedgerRepo) PostedVATByRate(ctx context.Context, companyID string, fiscalYear int) ([]ledger.PostedVATRow, error) {
	const query = `
		SELECT t.vat_rate / 100 AS rate,
		       SUM(CASE
		             WHEN t.account_code LIKE '472%' AND t.movement = 'DEBIT'  THEN t.amount
		             WHEN t.account_code LIKE '472%' AND t.movement = 'CREDIT' THEN -t.amount
		             WHEN t.account_code LIKE '477%' AND t.movement = 'CREDIT' THEN t.amount
		             ELSE -t.amount
		           END) AS amount
		FROM ledger_transactions t
		JOIN ledger_entries e ON e.id = t.entry_id
		WHERE e.company_id = $1
		  AND e.fiscal_year = $2
		  AND e.status = 'POSTED'
		  AND t.vat_rate IS NOT NULL
		  AND (t.account_code LIKE '472%' OR t.account_code LIKE '477%')
		GROUP BY t.vat_rate
		ORDER BY rate`
	rows, err := r.q.Query(ctx, query, companyID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("posted vat by rate: %w", err)
	}
	defer rows.Close()
	var list []ledger.PostedVATRow
	for rows.Next() {
		var row ledger.PostedVATRow
		if err := rows.Scan(&row.Rate, &row.Amount); err != nil {
			return nil, fmt.Errorf("scan posted vat row: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

var _ repository.AccountRepository = (*AccountRepo)(nil)

// AccountRepo lecturas del plan contable.
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

// ListByCompany devuelve el plan contable de la empresa.
func (r *AccountRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Account, error) {
	const query = `
		SELECT code, company_id, name, type
		FROM accounts WHERE company_id = $1 ORDER BY code`
	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Account
	for rows.Next() {
		var a entity.Account
		if err := rows.Scan(&a.Code, &a.CompanyID, &a.Name, &a.Type); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
