package repository

import (
	"context"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/ledger"
)

// InvoiceRepository define el puerto de persistencia para facturas y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice, lines []*entity.InvoiceLine) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetLinesByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceLine, error)
	// StampIntegrityHash estampa el hash de la cadena en la factura origen
	// (efectos legales y de presentación). Debe ejecutarse en la misma
	// transacción que el alta del eslabón.
	StampIntegrityHash(ctx context.Context, invoiceID, hash string) error
	// VATByRate agrega la cuota de IVA de las facturas POSTED del ejercicio,
	// agrupada por tipo impositivo y separada por dirección (emitida/recibida).
	VATByRate(ctx context.Context, companyID string, fiscalYear int) ([]ledger.InvoiceVATRow, error)
}
