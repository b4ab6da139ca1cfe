package repository

import (
	"context"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
)

// IntegrityRepository define el puerto de persistencia de la cadena de
// integridad. La cadena es append-only: no hay Update ni Delete.
type IntegrityRepository interface {
	// GetTail devuelve el eslabón con ChainPosition más alto de la partición
	// (company, invoiceType), o nil si la partición está vacía.
	GetTail(ctx context.Context, companyID, invoiceType string) (*entity.IntegrityLogEntry, error)
	// Append inserta un eslabón nuevo. Si otro alta concurrente ya ocupó la
	// misma (invoice_type, chain_position) debe devolver domain.ErrChainConflict
	// para que el llamador reintente el protocolo completo desde la lectura
	// de la cola.
	Append(ctx context.Context, e *entity.IntegrityLogEntry) error
	// ListByType devuelve la partición completa en orden ascendente de
	// ChainPosition (recorrido de verificación).
	ListByType(ctx context.Context, companyID, invoiceType string) ([]*entity.IntegrityLogEntry, error)
}
