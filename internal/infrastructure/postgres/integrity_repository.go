package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

var _ repository.IntegrityRepository = (*IntegrityRepo)(nil)

// IntegrityRepo implementación de IntegrityRepository (usable con pool o tx).
// La tabla integrity_log lleva UNIQUE (company_id, invoice_type, chain_position):
// esa restricción es la que serializa los altas concurrentes por partición.
type IntegrityRepo struct {
	q Querier
}

// NewIntegrityRepository construye el adaptador. Pasar pool o tx (Querier).
func NewIntegrityRepository(q Querier) *IntegrityRepo {
	return &IntegrityRepo{q: q}
}

// GetTail devuelve el eslabón con posición más alta de la partición, o nil.
func (r *IntegrityRepo) GetTail(ctx context.Context, companyID, invoiceType string) (*entity.IntegrityLogEntry, error) {
	const query = `
		SELECT id, company_id, invoice_id, invoice_type, invoice_number, invoice_date,
		       total, hash, COALESCE(previous_hash, ''), chain_position, created_at
		FROM integrity_log
		WHERE company_id = $1 AND invoice_type = $2
		ORDER BY chain_position DESC
		LIMIT 1`
	var e entity.IntegrityLogEntry
	err := r.q.QueryRow(ctx, query, companyID, invoiceType).Scan(
		&e.ID, &e.CompanyID, &e.InvoiceID, &e.InvoiceType, &e.InvoiceNumber, &e.InvoiceDate,
		&e.Total, &e.Hash, &e.PreviousHash, &e.ChainPosition, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chain tail: %w", err)
	}
	return &e, nil
}

// Append inserta un eslabón. La violación del UNIQUE de posición se traduce a
// domain.ErrChainConflict: otro alta concurrente ganó la carrera y el llamador
// debe reintentar el protocolo completo.
func (r *IntegrityRepo) Append(ctx context.Context, e *entity.IntegrityLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO integrity_log (id, company_id, invoice_id, invoice_type, invoice_number,
		                           invoice_date, total, hash, previous_hash, chain_position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.CompanyID, e.InvoiceID, e.InvoiceType, e.InvoiceNumber,
		e.InvoiceDate, e.Total, e.Hash, nullIfEmpty(e.PreviousHash), e.ChainPosition, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("posición %d ocupada: %w", e.ChainPosition, domain.ErrChainConflict)
		}
		return fmt.Errorf("append integrity entry: %w", err)
	}
	return nil
}

// ListByType devuelve la partición completa en orden ascendente de posición.
func (r *IntegrityRepo) ListByType(ctx context.Context, companyID, invoiceType string) ([]*entity.IntegrityLogEntry, error) {
	const query = `
		SELECT id, company_id, invoice_id, invoice_type, invoice_number, invoice_date,
		       total, hash, COALESCE(previous_hash, ''), chain_position, created_at
		FROM integrity_log
		WHERE company_id = $1 AND invoice_type = $2
		ORDER BY chain_position ASC`
	rows, err := r.q.Query(ctx, query, companyID, invoiceType)
	if err != nil {
		return nil, fmt.Errorf("list integrity chain: %w", err)
	}
	defer rows.Close()
	var list []*entity.IntegrityLogEntry
	for rows.Next() {
		var e entity.IntegrityLogEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.InvoiceID, &e.InvoiceType, &e.InvoiceNumber,
			&e.InvoiceDate, &e.Total, &e.Hash, &e.PreviousHash, &e.ChainPosition, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan integrity entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
