package http

import (
	"github.com/gofiber/fiber/v2"

	appbilling "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/billing"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/closing"
	appintegrity "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/integrity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TotalsUC    *appbilling.TotalsUseCase
	PostInvoice *appbilling.PostInvoiceUseCase
	Closing     *closing.BalanceValidator
	Chain       *appintegrity.ChainManager
	JWTSecret   string
}

// Router registra las rutas de la API. Todas las rutas de negocio requieren
// Bearer Token; /health queda fuera (lo registra main).
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Facturación: cálculo puro y contabilización
	billingHandler := NewBillingHandler(deps.TotalsUC)
	invoiceHandler := NewInvoiceHandler(deps.PostInvoice)
	invoices := api.Group("/invoices")
	invoices.Post("/totals", billingHandler.CalculateTotals)
	invoices.Post("/vat/coherence", billingHandler.ValidateCoherence)
	// Contabilizar muta el libro y la cadena: el auditor solo consulta
	invoices.Post("/", RequireRole("admin", "contable"), invoiceHandler.Post)
	invoices.Get("/:id", invoiceHandler.GetByID)

	// Cierre de ejercicio
	closingHandler := NewClosingHandler(deps.Closing)
	api.Get("/closing/:year", closingHandler.Validate)

	// Cadena de integridad
	integrityHandler := NewIntegrityHandler(deps.Chain)
	api.Get("/integrity/:type/verify", integrityHandler.Verify)
}
