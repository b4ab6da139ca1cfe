package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appbilling "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/billing"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/closing"
	appintegrity "github.com/GlobalTax/franqui-conta-sync-sub003/internal/application/integrity"
	billingdomain "github.com/GlobalTax/franqui-conta-sync-sub003/internal/domain/billing"
	"github.com/GlobalTax/franqui-conta-sync-sub003/internal/infrastructure/postgres"
	httpRouter "github.com/GlobalTax/franqui-conta-sync-sub003/internal/interfaces/http"
	"github.com/GlobalTax/franqui-conta-sync-sub003/pkg/config"
	"github.com/GlobalTax/franqui-conta-sync-sub003/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	vatRates, err := cfg.Fiscal.ParseVATRates()
	if err != nil {
		log.Fatal().Err(err).Msg("configuración fiscal")
	}
	tolerance, err := cfg.Fiscal.ParseTolerance()
	if err != nil {
		log.Fatal().Err(err).Msg("configuración fiscal")
	}
	vatValidator := billingdomain.NewVATValidator(vatRates, tolerance)

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	integrityRepo := postgres.NewIntegrityRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	totalsUC := appbilling.NewTotalsUseCase(vatValidator)
	postInvoiceUC := appbilling.NewPostInvoiceUseCase(txRunner, invoiceRepo, vatValidator)
	closingValidator := closing.NewBalanceValidator(ledgerRepo, accountRepo, invoiceRepo, tolerance)
	chainManager := appintegrity.NewChainManager(txRunner, integrityRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "FranquiConta Ledger Integrity API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		TotalsUC:    totalsUC,
		PostInvoice: postInvoiceUC,
		Closing:     closingValidator,
		Chain:       chainManager,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
