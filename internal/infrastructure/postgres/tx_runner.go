package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	appbilling "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/billing"
	appintegrity "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/integrity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

var _ appbilling.PostingTxRunner = (*TxRunner)(nil)
var _ appintegrity.ChainTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunPosting inicia una transacción con repos de facturación e integridad
// atados a la tx, ejecuta fn y hace Commit o Rollback.
func (r *TxRunner) RunPosting(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	integrityRepo repository.IntegrityRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewInvoiceRepository(tx), NewIntegrityRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunChain inicia una transacción para el protocolo de alta de la cadena
// (eslabón + estampado de hash en la factura origen).
func (r *TxRunner) RunChain(ctx context.Context, fn func(
	integrityRepo repository.IntegrityRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewIntegrityRepository(tx), NewInvoiceRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
