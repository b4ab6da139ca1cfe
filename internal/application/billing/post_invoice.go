// Package billing contiene los casos de uso de facturación: cálculo de totales
// y contabilización de facturas con encadenado de integridad.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/dto"
	appintegrity "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/integrity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain"
	billingdomain "github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/billing"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/entity"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/repository"
)

// maxPostRetries reintentos de la transacción completa de contabilización ante
// conflicto de concurrencia en la partición de la cadena.
const maxPostRetries = 5

// PostInvoiceUseCase contabiliza una factura: calcula totales, los contrasta
// con los declarados (puerta de coherencia de IVA) y, si pasan, persiste la
// factura y la encadena en el registro de integridad en una sola transacción.
type PostInvoiceUseCase struct {
	txRunner    PostingTxRunner
	invoiceRepo repository.InvoiceRepository
	validator   *billingdomain.VATValidator
}

// NewPostInvoiceUseCase construye el caso de uso.
func NewPostInvoiceUseCase(
	txRunner PostingTxRunner,
	invoiceRepo repository.InvoiceRepository,
	validator *billingdomain.VATValidator,
) *PostInvoiceUseCase {
	return &PostInvoiceUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		validator:   validator,
	}
}

// CoherenceError se devuelve cuando la puerta de coherencia rechaza la factura.
// Envuelve domain.ErrIncoherent y lleva el diagnóstico estructurado completo.
type CoherenceError struct {
	Result dto.CoherenceResponse
}

func (e *CoherenceError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrIncoherent, e.Result.Code)
}

// Unwrap permite errors.Is(err, domain.ErrIncoherent).
func (e *CoherenceError) Unwrap() error { return domain.ErrIncoherent }

// Post valida y contabiliza la factura. Los totales declarados (visibles en el
// documento) deben ser coherentes con los calculados desde las líneas; un
// descuadre bloquea la contabilización y devuelve el diagnóstico completo.
func (uc *PostInvoiceUseCase) Post(ctx context.Context, companyID string, in dto.PostInvoiceRequest) (*dto.InvoiceResponse, error) {
	if companyID == "" || in.Number == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.Type != entity.InvoiceTypeIssued && in.Type != entity.InvoiceTypeReceived {
		return nil, fmt.Errorf("%w: tipo de factura %q", domain.ErrInvalidInput, in.Type)
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q (se espera YYYY-MM-DD)", domain.ErrInvalidInput, in.Date)
	}

	inputs := toLineInputs(in.Lines)
	totals, err := billingdomain.CalculateInvoiceTotals(inputs)
	if err != nil {
		return nil, err
	}

	// Puerta de coherencia: los totales declarados en el documento deben
	// cuadrar con los calculados antes de permitir la contabilización.
	// El tipo se valida línea a línea, no como ratio global cuota/base: una
	// factura válida mezcla tipos (21% y 10%) y su ratio combinado no
	// corresponde a ningún tipo legal.
	tolerance := uc.validator.Tolerance()
	expectedTotal := totals.Subtotal.Add(in.DeclaredTaxTotal)
	if expectedTotal.Sub(in.DeclaredTotal).Abs().GreaterThan(tolerance) {
		return nil, &CoherenceError{Result: dto.CoherenceResponse{
			Code:          billingdomain.CodeTotalMismatch,
			ExpectedTotal: &expectedTotal,
		}}
	}
	for _, input := range inputs {
		ratio := input.TaxRate.Div(decimal.NewFromInt(100))
		if !uc.validator.IsLegalRate(ratio) {
			return nil, &CoherenceError{Result: dto.CoherenceResponse{
				Code:          billingdomain.CodeNonStandardRate,
				DetectedRatio: &ratio,
			}}
		}
	}
	if totals.TotalTax.Sub(in.DeclaredTaxTotal).Abs().GreaterThan(tolerance) {
		expectedTax := totals.TotalTax
		return nil, &CoherenceError{Result: dto.CoherenceResponse{
			Code:        billingdomain.CodeTaxMiscalculated,
			ExpectedTax: &expectedTax,
		}}
	}

	now := time.Now()
	inv := &entity.Invoice{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		Type:          in.Type,
		Series:        in.Series,
		Number:        in.Number,
		Date:          date,
		Subtotal:      totals.Subtotal,
		TotalDiscount: totals.TotalDiscount,
		TaxTotal:      totals.TotalTax,
		GrandTotal:    totals.Total,
		Status:        entity.InvoiceStatusPosted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	lines := make([]*entity.InvoiceLine, 0, len(inputs))
	results := make([]billingdomain.LineResult, 0, len(inputs))
	for i, input := range inputs {
		r, err := billingdomain.CalculateLine(input)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
		lines = append(lines, &entity.InvoiceLine{
			ID:                 uuid.New().String(),
			InvoiceID:          inv.ID,
			LineNumber:         i + 1,
			Description:        in.Lines[i].Description,
			Quantity:           input.Quantity,
			UnitPrice:          input.UnitPrice,
			DiscountPercentage: input.DiscountPercentage,
			TaxRate:            input.TaxRate,
			Subtotal:           r.SubtotalAfterDiscount,
			TaxAmount:          r.TaxAmount,
			Total:              r.Total,
		})
	}

	// Alta de factura + eslabón + estampado de hash: una sola transacción.
	// El conflicto de cadena se reintenta completo tras el rollback; el alta
	// de la factura se repite dentro de la transacción nueva.
	var chainEntry *entity.IntegrityLogEntry
	for attempt := 0; ; attempt++ {
		err = uc.txRunner.RunPosting(ctx, func(
			invoiceRepo repository.InvoiceRepository,
			integrityRepo repository.IntegrityRepository,
		) error {
			if err := invoiceRepo.Create(ctx, inv, lines); err != nil {
				return err
			}
			entry, err := appintegrity.AppendInTx(ctx, integrityRepo, invoiceRepo, inv)
			if err != nil {
				return err
			}
			chainEntry = entry
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrChainConflict) && attempt < maxPostRetries-1 {
			continue
		}
		return nil, err
	}
	inv.IntegrityHash = chainEntry.Hash

	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		CompanyID:     inv.CompanyID,
		Type:          inv.Type,
		Series:        inv.Series,
		Number:        inv.Number,
		Date:          inv.Date.Format("2006-01-02"),
		Subtotal:      inv.Subtotal,
		TotalDiscount: inv.TotalDiscount,
		TaxTotal:      inv.TaxTotal,
		GrandTotal:    inv.GrandTotal,
		Status:        inv.Status,
		IntegrityHash: inv.IntegrityHash,
		ChainPosition: chainEntry.ChainPosition,
		Lines:         make([]dto.LineResultResponse, 0, len(results)),
	}
	for _, r := range results {
		resp.Lines = append(resp.Lines, toLineResultResponse(r))
	}
	return resp, nil
}

// Get devuelve una factura con sus líneas.
func (uc *PostInvoiceUseCase) Get(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	lines, err := uc.invoiceRepo.GetLinesByInvoiceID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		CompanyID:     inv.CompanyID,
		Type:          inv.Type,
		Series:        inv.Series,
		Number:        inv.Number,
		Date:          inv.Date.Format("2006-01-02"),
		Subtotal:      inv.Subtotal,
		TotalDiscount: inv.TotalDiscount,
		TaxTotal:      inv.TaxTotal,
		GrandTotal:    inv.GrandTotal,
		Status:        inv.Status,
		IntegrityHash: inv.IntegrityHash,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.LineResultResponse{
			SubtotalAfterDiscount: l.Subtotal,
			TaxAmount:             l.TaxAmount,
			Total:                 l.Total,
		})
	}
	return resp, nil
}
