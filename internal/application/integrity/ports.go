package integrity

import (
	"context"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

// ChainTxRunner ejecuta una función dentro de una transacción que incluye los
// repos de integridad y facturación. El alta del eslabón y el estampado del
// hash en la factura origen deben confirmar o deshacerse juntos.
type ChainTxRunner interface {
	RunChain(ctx context.Context, fn func(
		integrityRepo repository.IntegrityRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}
