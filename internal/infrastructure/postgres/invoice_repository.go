package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/ledger"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura y sus líneas.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice, lines []*entity.InvoiceLine) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	const headerQuery = `
		INSERT INTO invoices (id, company_id, type, series, number, date,
		                      subtotal, total_discount, tax_total, grand_total,
		                      status, integrity_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, headerQuery,
		invoice.ID, invoice.CompanyID, invoice.Type, invoice.Series, invoice.Number,
		invoice.Date, invoice.Subtotal, invoice.TotalDiscount, invoice.TaxTotal,
		invoice.GrandTotal, invoice.Status, nullIfEmpty(invoice.IntegrityHash),
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("número de factura ya existe: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	const lineQuery = `
		INSERT INTO invoice_lines (id, invoice_id, line_number, description, quantity,
		                           unit_price, discount_percentage, tax_rate,
		                           subtotal, tax_amount, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, l := range lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		_, err := r.q.Exec(ctx, lineQuery,
			l.ID, l.InvoiceID, l.LineNumber, l.Description, l.Quantity,
			l.UnitPrice, l.DiscountPercentage, l.TaxRate,
			l.Subtotal, l.TaxAmount, l.Total,
		)
		if err != nil {
			return fmt.Errorf("insert invoice line %d: %w", l.LineNumber, err)
		}
	}
	return nil
}

// GetByID obtiene una factura por ID (sin líneas).
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	const query = `
		SELECT id, company_id, type, series, number, date,
		       subtotal, total_discount, tax_total, grand_total,
		       status, integrity_hash, created_at, updated_at
		FROM invoices WHERE id = $1`
	var inv entity.Invoice
	var hash *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.CompanyID, &inv.Type, &inv.Series, &inv.Number, &inv.Date,
		&inv.Subtotal, &inv.TotalDiscount, &inv.TaxTotal, &inv.GrandTotal,
		&inv.Status, &hash, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.IntegrityHash = derefStr(hash)
	return &inv, nil
}

// GetLinesByInvoiceID obtiene todas las líneas de una factura.
func (r *InvoiceRepo) GetLinesByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceLine, error) {
	const query = `
		SELECT id, invoice_id, line_number, description, quantity,
		       unit_price, discount_percentage, tax_rate, subtotal, tax_amount, total
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY line_number`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.LineNumber, &l.Description, &l.Quantity,
			&l.UnitPrice, &l.DiscountPercentage, &l.TaxRate, &l.Subtotal, &l.TaxAmount, &l.Total); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// StampIntegrityHash estampa el hash de la cadena en la factura origen.
func (r *InvoiceRepo) StampIntegrityHash(ctx context.Context, invoiceID, hash string) error {
	const query = `UPDATE invoices SET integrity_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, invoiceID, hash)
	if err != nil {
		return fmt.Errorf("stamp integrity hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stamp integrity hash: factura %s no encontrada", invoiceID)
	}
	return nil
}

// VATByRate agrega la cuota de IVA de las facturas POSTED del ejercicio por
// tipo impositivo, separando emitidas y recibidas. El tipo se normaliza a ratio
// (21 -> 0.21) para casar con la conciliación del libro.
func (r *InvoiceRepo) VATByRate(ctx context.Context, companyID string, fiscalYear int) ([]ledger.InvoiceVATRow, error) {
	const query = `
		SELECT l.tax_rate / 100                                                   AS rate,
		       SUM(CASE WHEN i.type = 'ISSUED'   THEN l.tax_amount ELSE 0 END)    AS issued,
		       SUM(CASE WHEN i.type = 'RECEIVED' THEN l.tax_amount ELSE 0 END)    AS received
		FROM invoices i
		JOIN invoice_lines l ON l.invoice_id = i.id
		WHERE i.company_id = $1
		  AND i.status = 'POSTED'
		  AND EXTRACT(YEAR FROM i.date) = $2
		GROUP BY l.tax_rate
		ORDER BY rate`
	rows, err := r.q.Query(ctx, query, companyID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("vat by rate: %w", err)
	}
	defer rows.Close()
	var list []ledger.InvoiceVATRow
	for rows.Next() {
		var row ledger.InvoiceVATRow
		if err := rows.Scan(&row.Rate, &row.Issued, &row.Received); err != nil {
			return nil, fmt.Errorf("scan vat row: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
