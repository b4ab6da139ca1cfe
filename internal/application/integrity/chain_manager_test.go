package integrity_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appintegrity "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/integrity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/ledger"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

// fakeChainStore cadena en memoria que emula la restricción de unicidad sobre
// (company, invoice_type, chain_position), igual que el índice único de
// Postgres: el segundo Append sobre la misma posición devuelve ErrChainConflict.
type fakeChainStore struct {
	mu      sync.Mutex
	entries map[string][]*entity.IntegrityLogEntry // Clave: company + "/" + tipo
	stamps  map[string]string                      // invoiceID → hash estampado
}

func newFakeChainStore() *fakeChainStore {
	return &fakeChainStore{
		entries: make(map[string][]*entity.IntegrityLogEntry),
		stamps:  make(map[string]string),
	}
}

func (s *fakeChainStore) key(companyID, invoiceType string) string {
	return companyID + "/" + invoiceType
}

func (s *fakeChainStore) GetTail(_ context.Context, companyID, invoiceType string) (*entity.IntegrityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	part := s.entries[s.key(companyID, invoiceType)]
	if len(part) == 0 {
		return nil, nil
	}
	return part[len(part)-1], nil
}

func (s *fakeChainStore) Append(_ context.Context, e *entity.IntegrityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(e.CompanyID, e.InvoiceType)
	for _, existing := range s.entries[k] {
		if existing.ChainPosition == e.ChainPosition {
			return fmt.Errorf("posición %d ocupada: %w", e.ChainPosition, domain.ErrChainConflict)
		}
	}
	s.entries[k] = append(s.entries[k], e)
	return nil
}

func (s *fakeChainStore) ListByType(_ context.Context, companyID, invoiceType string) ([]*entity.IntegrityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	part := s.entries[s.key(companyID, invoiceType)]
	out := make([]*entity.IntegrityLogEntry, len(part))
	copy(out, part)
	return out, nil
}

// fakeChainStore también hace de repo de facturas para el estampado del hash.
func (s *fakeChainStore) Create(context.Context, *entity.Invoice, []*entity.InvoiceLine) error {
	return nil
}
func (s *fakeChainStore) GetByID(context.Context, string) (*entity.Invoice, error) { return nil, nil }
func (s *fakeChainStore) GetLinesByInvoiceID(context.Context, string) ([]*entity.InvoiceLine, error) {
	return nil, nil
}
func (s *fakeChainStore) StampIntegrityHash(_ context.Context, invoiceID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamps[invoiceID] = hash
	return nil
}
func (s *fakeChainStore) VATByRate(context.Context, string, int) ([]ledger.InvoiceVATRow, error) {
	return nil, nil
}

var (
	_ repository.IntegrityRepository = (*fakeChainStore)(nil)
	_ repository.InvoiceRepository   = (*fakeChainStore)(nil)
)

// fakeChainTxRunner pasa los repos del store directamente; la atomicidad la da
// el propio fake (Append falla sin efectos parciales).
type fakeChainTxRunner struct{ store *fakeChainStore }

func (r *fakeChainTxRunner) RunChain(ctx context.Context, fn func(
	integrityRepo repository.IntegrityRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	return fn(r.store, r.store)
}

const testCompany = "franquicia-001"

func facturaPrueba(invoiceType, number string, total float64) *entity.Invoice {
	return &entity.Invoice{
		ID:         uuid.New().String(),
		CompanyID:  testCompany,
		Type:       invoiceType,
		Series:     "F2024-",
		Number:     number,
		Date:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		GrandTotal: decimal.NewFromFloat(total),
		Status:     entity.InvoiceStatusPosted,
	}
}

// TestChainManager_AppendGenesis el primer eslabón de la partición tiene
// posición 1 y enlace previo vacío, y estampa su hash en la factura origen.
func TestChainManager_AppendGenesis(t *testing.T) {
	store := newFakeChainStore()
	m := appintegrity.NewChainManager(&fakeChainTxRunner{store: store}, store)

	inv := facturaPrueba(entity.InvoiceTypeIssued, "0001", 121)
	entry, err := m.Append(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, int64(1), entry.ChainPosition, "el primer eslabón debe ocupar la posición 1")
	assert.Empty(t, entry.PreviousHash, "el génesis no tiene enlace previo")
	assert.Len(t, entry.Hash, 96)
	assert.Equal(t, entry.Hash, store.stamps[inv.ID], "el hash debe quedar estampado en la factura")
}

// TestChainManager_AppendEncadena cada eslabón nuevo enlaza con el hash del
// anterior y avanza la posición en uno.
func TestChainManager_AppendEncadena(t *testing.T) {
	store := newFakeChainStore()
	m := appintegrity.NewChainManager(&fakeChainTxRunner{store: store}, store)
	ctx := context.Background()

	var prevHash string
	for i := 1; i <= 5; i++ {
		entry, err := m.Append(ctx, facturaPrueba(entity.InvoiceTypeIssued, fmt.Sprintf("%04d", i), float64(100*i)))
		require.NoError(t, err)
		assert.Equal(t, int64(i), entry.ChainPosition)
		assert.Equal(t, prevHash, entry.PreviousHash, "el eslabón %d debe enlazar con el hash del anterior", i)
		prevHash = entry.Hash
	}
}

// TestChainManager_ParticionesIndependientes emitidas y recibidas llevan cada
// una su propia numeración y su propio génesis.
func TestChainManager_ParticionesIndependientes(t *testing.T) {
	store := newFakeChainStore()
	m := appintegrity.NewChainManager(&fakeChainTxRunner{store: store}, store)
	ctx := context.Background()

	issued, err := m.Append(ctx, facturaPrueba(entity.InvoiceTypeIssued, "0001", 121))
	require.NoError(t, err)
	received, err := m.Append(ctx, facturaPrueba(entity.InvoiceTypeReceived, "0001", 60.50))
	require.NoError(t, err)

	assert.Equal(t, int64(1), issued.ChainPosition)
	assert.Equal(t, int64(1), received.ChainPosition, "la partición de recibidas arranca en 1 aunque ya existan emitidas")
	assert.Empty(t, received.PreviousHash)
}

// TestChainManager_AppendConcurrente K altas concurrentes sobre la misma
// partición: la restricción de unicidad fuerza reintentos, pero al final las
// posiciones son correlativas 1..K y la cadena verifica.
func TestChainManager_AppendConcurrente(t *testing.T) {
	store := newFakeChainStore()
	m := appintegrity.NewChainManager(&fakeChainTxRunner{store: store}, store)
	ctx := context.Background()

	const k = 4 // Tiene que caber en los reintentos del protocolo
	var wg sync.WaitGroup
	errs := make([]error, k)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Append(ctx, facturaPrueba(entity.InvoiceTypeIssued, fmt.Sprintf("C%03d", i), 100))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "el alta concurrente %d debe completarse tras reintentos", i)
	}

	res, err := m.Verify(ctx, testCompany, entity.InvoiceTypeIssued)
	require.NoError(t, err)
	assert.True(t, res.IsValid, "tras las altas concurrentes la cadena debe verificar: %s", res.Reason)
	assert.Equal(t, int64(k), res.Entries)
}

// TestChainManager_VerifyVacia una partición sin eslabones es válida.
func TestChainManager_VerifyVacia(t *testing.T) {
	store := newFakeChainStore()
	m := appintegrity.NewChainManager(&fakeChainTxRunner{store: store}, store)

	res, err := m.Verify(context.Background(), testCompany, entity.InvoiceTypeReceived)
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, int64(0), res.Entries)
	assert.Equal(t, int64(0), res.BrokenAtPosition)
}

// TestChainManager_VerifyIdempotente verificar no modifica la cadena: dos
// pasadas consecutivas devuelven exactamente lo mismo.
func TestChainManager_VerifyIdempotente(t *testing.T) {
	store := newFakeChainStore()
	m := appintegrity.NewChainManager(&fakeChainTxRunner{store: store}, store)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := m.Append(ctx, facturaPrueba(entity.InvoiceTypeIssued, fmt.Sprintf("%04d", i), 100))
		require.NoError(t, err)
	}

	r1, err := m.Verify(ctx, testCompany, entity.InvoiceTypeIssued)
	require.NoError(t, err)
	r2, err := m.Verify(ctx, testCompany, entity.InvoiceTypeIssued)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

// TestChainManager_VerifyDetectaManipulacion alterar el importe de un eslabón
// intermedio rompe la verificación exactamente en su posición: el hash
// almacenado ya no coincide con el recomputado.
func TestChainManager_VerifyDetectaManipulacion(t *testing.T) {
	store := newFakeChainStore()
	m := appintegrity.NewChainManager(&fakeChainTxRunner{store: store}, store)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := m.Append(ctx, facturaPrueba(entity.InvoiceTypeIssued, fmt.Sprintf("%04d", i), float64(100*i)))
		require.NoError(t, err)
	}

	// Manipulación retroactiva del tercer eslabón
	store.entries[store.key(testCompany, entity.InvoiceTypeIssued)][2].Total = decimal.NewFromFloat(999999)

	res, err := m.Verify(ctx, testCompany, entity.InvoiceTypeIssued)
	require.NoError(t, err)
	require.False(t, res.IsValid)
	assert.Equal(t, int64(3), res.BrokenAtPosition, "la ruptura debe señalarse en la posición manipulada")
	assert.NotEmpty(t, res.Reason)
}

// TestVerifyEntries_ReglasDeRuptura las tres reglas de ruptura por separado:
// posición no correlativa, enlace roto y hash descuadrado. Siempre se reporta
// el PRIMER descuadre.
func TestVerifyEntries_ReglasDeRuptura(t *testing.T) {
	buildChain := func(t *testing.T) []*entity.IntegrityLogEntry {
		t.Helper()
		store := newFakeChainStore()
		m := appintegrity.NewChainManager(&fakeChainTxRunner{store: store}, store)
		for i := 1; i <= 3; i++ {
			_, err := m.Append(context.Background(), facturaPrueba(entity.InvoiceTypeIssued, fmt.Sprintf("%04d", i), 100))
			require.NoError(t, err)
		}
		entries, err := store.ListByType(context.Background(), testCompany, entity.InvoiceTypeIssued)
		require.NoError(t, err)
		return entries
	}

	t.Run("posición no correlativa", func(t *testing.T) {
		entries := buildChain(t)
		entries[1].ChainPosition = 5

		res := appintegrity.VerifyEntries(entries)
		require.False(t, res.IsValid)
		assert.Equal(t, int64(5), res.BrokenAtPosition)
	})

	t.Run("enlace previo roto", func(t *testing.T) {
		entries := buildChain(t)
		entries[2].PreviousHash = "deadbeef"

		res := appintegrity.VerifyEntries(entries)
		require.False(t, res.IsValid)
		assert.Equal(t, int64(3), res.BrokenAtPosition)
	})

	t.Run("se reporta la primera ruptura", func(t *testing.T) {
		entries := buildChain(t)
		entries[1].Total = decimal.NewFromFloat(1)
		entries[2].Total = decimal.NewFromFloat(2)

		res := appintegrity.VerifyEntries(entries)
		require.False(t, res.IsValid)
		assert.Equal(t, int64(2), res.BrokenAtPosition, "con dos eslabones manipulados se reporta el primero")
	})
}

// conflictingStore fuerza N conflictos antes de dejar pasar el Append, para
// comprobar el límite de reintentos del protocolo.
type conflictingStore struct {
	*fakeChainStore
	mu        sync.Mutex
	conflicts int
}

func (s *conflictingStore) Append(ctx context.Context, e *entity.IntegrityLogEntry) error {
	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return domain.ErrChainConflict
	}
	s.mu.Unlock()
	return s.fakeChainStore.Append(ctx, e)
}

type conflictingTxRunner struct{ store *conflictingStore }

func (r *conflictingTxRunner) RunChain(ctx context.Context, fn func(
	integrityRepo repository.IntegrityRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	return fn(r.store, r.store.fakeChainStore)
}

// TestChainManager_ReintentosRecuperables los conflictos por debajo del límite
// se reintentan en silencio; agotar el límite devuelve ErrChainConflict.
func TestChainManager_ReintentosRecuperables(t *testing.T) {
	store := &conflictingStore{fakeChainStore: newFakeChainStore(), conflicts: 3}
	m := appintegrity.NewChainManager(&conflictingTxRunner{store: store}, store)

	entry, err := m.Append(context.Background(), facturaPrueba(entity.InvoiceTypeIssued, "0001", 121))
	require.NoError(t, err, "tres conflictos deben absorberse con reintentos")
	assert.Equal(t, int64(1), entry.ChainPosition)

	agotado := &conflictingStore{fakeChainStore: newFakeChainStore(), conflicts: 100}
	m = appintegrity.NewChainManager(&conflictingTxRunner{store: agotado}, agotado)
	_, err = m.Append(context.Background(), facturaPrueba(entity.InvoiceTypeIssued, "0002", 121))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChainConflict, "agotar los reintentos debe reportar el conflicto")
}
