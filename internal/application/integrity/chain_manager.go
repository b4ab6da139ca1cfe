// Package integrity mantiene la cadena de integridad append-only sobre
// facturas contabilizadas: una cadena por dirección (emitidas / recibidas),
// con protocolo de alta serializado por partición y verificación por recorrido.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
	integritydomain "github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/integrity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

// maxAppendRetries reintentos del protocolo completo ante conflicto de
// concurrencia en la misma partición.
const maxAppendRetries = 5

// ChainManager gestiona altas y verificación de la cadena de integridad.
type ChainManager struct {
	txRunner      ChainTxRunner
	integrityRepo repository.IntegrityRepository // Lecturas fuera de transacción (verificación)
}

// NewChainManager construye el gestor.
func NewChainManager(txRunner ChainTxRunner, integrityRepo repository.IntegrityRepository) *ChainManager {
	return &ChainManager{txRunner: txRunner, integrityRepo: integrityRepo}
}

// AppendInTx ejecuta el protocolo de alta con los repositorios del llamador
// (misma transacción): lee la cola de la partición, calcula posición, enlace y
// hash, inserta el eslabón y estampa el hash en la factura origen.
// Si la cola cambió desde la lectura, la restricción de unicidad sobre
// (invoice_type, chain_position) hace que Append devuelva ErrChainConflict y el
// llamador debe reintentar el protocolo completo tras el rollback.
func AppendInTx(
	ctx context.Context,
	integrityRepo repository.IntegrityRepository,
	invoiceRepo repository.InvoiceRepository,
	inv *entity.Invoice,
) (*entity.IntegrityLogEntry, error) {
	tail, err := integrityRepo.GetTail(ctx, inv.CompanyID, inv.Type)
	if err != nil {
		return nil, fmt.Errorf("leer cola de la cadena: %w", err)
	}

	position := int64(1)
	previousHash := ""
	if tail != nil {
		position = tail.ChainPosition + 1
		previousHash = tail.Hash
	}

	hash, err := integritydomain.GenerateHash(inv.Type, inv.FullNumber(), inv.Date, inv.GrandTotal, previousHash)
	if err != nil {
		return nil, err
	}

	entry := &entity.IntegrityLogEntry{
		ID:            uuid.New().String(),
		CompanyID:     inv.CompanyID,
		InvoiceID:     inv.ID,
		InvoiceType:   inv.Type,
		InvoiceNumber: inv.FullNumber(),
		InvoiceDate:   inv.Date,
		Total:         inv.GrandTotal,
		Hash:          hash,
		PreviousHash:  previousHash,
		ChainPosition: position,
		CreatedAt:     time.Now(),
	}
	if err := integrityRepo.Append(ctx, entry); err != nil {
		return nil, err
	}
	if err := invoiceRepo.StampIntegrityHash(ctx, inv.ID, hash); err != nil {
		return nil, fmt.Errorf("estampar hash en la factura: %w", err)
	}
	return entry, nil
}

// Append encadena una factura con transacción y reintentos propios. El conflicto
// de concurrencia es recuperable: se reintenta el protocolo completo desde la
// lectura de la cola, nunca se expone al usuario como corrupción de datos.
func (m *ChainManager) Append(ctx context.Context, inv *entity.Invoice) (*entity.IntegrityLogEntry, error) {
	var entry *entity.IntegrityLogEntry
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		err := m.txRunner.RunChain(ctx, func(
			integrityRepo repository.IntegrityRepository,
			invoiceRepo repository.InvoiceRepository,
		) error {
			var err error
			entry, err = AppendInTx(ctx, integrityRepo, invoiceRepo, inv)
			return err
		})
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, domain.ErrChainConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("encadenar factura %s: %w tras %d intentos", inv.ID, domain.ErrChainConflict, maxAppendRetries)
}

// VerifyResult resultado de la verificación de una partición de la cadena.
type VerifyResult struct {
	IsValid          bool
	Entries          int64
	BrokenAtPosition int64 // 0 si la cadena es válida
	Reason           string
}

// Verify recorre la partición en orden ascendente de posición y recomputa cada
// hash a partir de los campos del propio eslabón más el PreviousHash almacenado
// en el anterior. Se detiene y reporta el PRIMER descuadre: nunca "sanea" ni
// continúa saltando eslabones. Es de solo lectura e idempotente.
func (m *ChainManager) Verify(ctx context.Context, companyID, invoiceType string) (VerifyResult, error) {
	entries, err := m.integrityRepo.ListByType(ctx, companyID, invoiceType)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("leer cadena %s: %w", invoiceType, err)
	}
	return VerifyEntries(entries), nil
}

// VerifyEntries aplica las reglas de verificación a una partición ya cargada
// (orden ascendente de ChainPosition).
func VerifyEntries(entries []*entity.IntegrityLogEntry) VerifyResult {
	res := VerifyResult{IsValid: true, Entries: int64(len(entries))}
	prevHash := ""
	for i, e := range entries {
		expectedPosition := int64(i) + 1
		if e.ChainPosition != expectedPosition {
			return broken(e.ChainPosition, fmt.Sprintf("posición %d donde se esperaba %d", e.ChainPosition, expectedPosition), res.Entries)
		}
		if e.PreviousHash != prevHash {
			return broken(e.ChainPosition, "el enlace previous_hash no coincide con el hash del eslabón anterior", res.Entries)
		}
		recomputed, err := integritydomain.HashFor(e)
		if err != nil {
			return broken(e.ChainPosition, "eslabón con campos inválidos: "+err.Error(), res.Entries)
		}
		if recomputed != e.Hash {
			return broken(e.ChainPosition, "el hash almacenado no coincide con el recomputado", res.Entries)
		}
		prevHash = e.Hash
	}
	return res
}

func broken(position int64, reason string, total int64) VerifyResult {
	return VerifyResult{IsValid: false, Entries: total, BrokenAtPosition: position, Reason: reason}
}
