package repository

import (
	"context"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/ledger"
)

// LedgerRepository define el puerto de lectura del libro diario. El núcleo solo
// lee asientos para validarlos; nunca reescribe el histórico.
type LedgerRepository interface {
	// ListByFiscalYear devuelve los asientos del ejercicio con sus apuntes,
	// en cualquier estado (las comprobaciones filtran POSTED por su cuenta).
	ListByFiscalYear(ctx context.Context, companyID string, fiscalYear int) ([]*entity.LedgerEntry, error)
	// PostedVATByRate agrega la cuota asentada en las cuentas de IVA
	// (472 soportado / 477 repercutido) de los asientos POSTED del ejercicio,
	// agrupada por tipo impositivo.
	PostedVATByRate(ctx context.Context, companyID string, fiscalYear int) ([]ledger.PostedVATRow, error)
}

// AccountRepository define el puerto de lectura del plan contable.
type AccountRepository interface {
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Account, error)
}
