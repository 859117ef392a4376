package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/sales"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	CustomerUC  *usecase.CustomerUseCase
	CatalogUC   *inventory.CatalogUseCase
	Coordinator *sales.Coordinator
	ReportUC    *sales.ReportUseCase
	ReceiptUC   *sales.ReceiptUseCase
	RateLimiter RateLimiter     // nil = sin límite
	Metrics     nethttp.Handler // nil = sin /metrics
	JWTSecret   string
	AppName     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Auth: login público; register público solo para el primer usuario (el caso de uso decide).
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", OptionalAuth(deps.JWTSecret), authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin, entity.RoleVendedor))

	clients := protected.Group("/clients")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	clients.Get("/", customerHandler.List)
	clients.Post("/", customerHandler.Create)
	clients.Get("/:id", customerHandler.GetByID)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.CatalogUC)
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Delete("/:id", productHandler.Delete)
	products.Get("/:id/movements", productHandler.Movements)
	products.Post("/:id/movements", RequireRole(entity.RoleAdmin), productHandler.AdjustStock)

	// Ventas: las mutaciones pasan por el rate limit.
	salesGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.Coordinator, deps.ReceiptUC)
	limited := RateLimit(deps.RateLimiter)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Post("/", limited, saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Put("/:id", limited, saleHandler.Update)
	salesGroup.Post("/:id/deliver", limited, saleHandler.Deliver)
	salesGroup.Post("/:id/cancel", limited, saleHandler.Cancel)
	salesGroup.Post("/:id/approve", limited, saleHandler.Approve)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)

	reports := protected.Group("/reports", RequireRole(entity.RoleAdmin))
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/summary", reportHandler.Summary)
}
