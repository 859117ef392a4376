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

	"github.com/jhoicas/backoffice-api/docs"
	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/contention"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/sales"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/cache"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/backoffice-api/internal/infrastructure/pdf"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// txRunner une los dos contratos transaccionales (ledger y ventas).
type txRunner interface {
	inventory.TxRunner
	sales.TxRunner
}

// storage repositorios y runner del backend elegido.
type storage struct {
	tx        txRunner
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	sales     repository.SaleRepository
	customers repository.CustomerRepository
	users     repository.UserRepository
	close     func()
}

// @title           Backoffice API
// @version         1.0
// @description     Ventas con reserva de inventario para tiendas.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	salesMetrics := metrics.NewSalesMetrics("backoffice")

	var limiter httpRouter.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, rate limit deshabilitado")
		} else {
			defer rdb.Close()
			limiter = cache.NewRedisRateLimiter(rdb, cfg.Redis.RateLimitPerMinute, time.Minute)
		}
	}

	catalogUC := inventory.NewCatalogUseCase(st.tx, st.products, st.movements, log.Named("inventory")).
		WithRetry(contention.Policy{MaxRetries: cfg.Sales.ContentionRetries, Backoff: cfg.Sales.RetryBackoff()})
	coordinator := sales.NewCoordinator(st.tx, st.customers, st.sales, log.Named("sales"), sales.Config{
		MaxRetries:       cfg.Sales.ContentionRetries,
		Backoff:          cfg.Sales.RetryBackoff(),
		PaymentTolerance: cfg.Sales.PaymentTolerance,
	}, salesMetrics)
	reportUC := sales.NewReportUseCase(st.sales, st.products)
	receiptUC := sales.NewReceiptUseCase(st.sales, st.customers, infrapdf.NewMarotoReceiptGenerator(cfg.App.Name))
	customerUC := usecase.NewCustomerUseCase(st.customers)
	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.FiberErrorHandler,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
		Path:        "docs",
		Title:       "Backoffice API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		CustomerUC:  customerUC,
		CatalogUC:   catalogUC,
		Coordinator: coordinator,
		ReportUC:    reportUC,
		ReceiptUC:   receiptUC,
		RateLimiter: limiter,
		Metrics:     salesMetrics.Handler(),
		JWTSecret:   cfg.JWT.Secret,
		AppName:     cfg.App.Name,
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

// openStorage elige PostgreSQL o el store en memoria (modo demo) según STORAGE_DRIVER.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.New(cfg.DB.LockTimeout())
		return &storage{
			tx:        store,
			products:  store.Products(),
			movements: store.Movements(),
			sales:     store.Sales(),
			customers: store.Customers(),
			users:     store.Users(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &storage{
		tx:        postgres.NewTxRunner(pool, cfg.DB.LockTimeoutMS),
		products:  postgres.NewProductRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
		sales:     postgres.NewSaleRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		users:     postgres.NewUserRepository(pool),
		close:     pool.Close,
	}, nil
}
