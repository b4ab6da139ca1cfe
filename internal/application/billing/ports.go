package billing

import (
	"context"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

// PostingTxRunner ejecuta una función dentro de una transacción que incluye los
// repos de facturación e integridad: el alta de la factura, el eslabón de la
// cadena y el estampado del hash confirman o se deshacen juntos.
type PostingTxRunner interface {
	RunPosting(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		integrityRepo repository.IntegrityRepository,
	) error) error
}
