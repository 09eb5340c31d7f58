package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Movements     *inventory.RegisterMovementUseCase
	Ledger        *inventory.StockLedger
	Stats         *inventory.StatsAggregator
	Replenishment *inventory.ReplenishmentUseCase
	Reconcile     *inventory.ReconcileUseCase
	Warehouses    repository.WarehouseRepository
	Products      repository.ProductRepository
	JWTSecret     string
}

// Router registra las rutas de la API. Las rutas estáticas van antes de /:id.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	privileged := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)

	invGroup := protected.Group("/inventory")

	movementHandler := NewMovementHandler(deps.Movements, deps.Stats)
	movements := invGroup.Group("/movements")
	movements.Post("/", movementHandler.Create)
	movements.Get("/", movementHandler.List)
	movements.Get("/stats", movementHandler.Stats)
	movements.Post("/bulk", movementHandler.BulkImport)
	movements.Post("/import", movementHandler.Import)
	movements.Get("/export", movementHandler.Export)
	movements.Get("/template", movementHandler.Template)
	movements.Get("/:id", movementHandler.GetByID)
	movements.Patch("/:id", movementHandler.Update)
	movements.Delete("/:id", movementHandler.Delete)

	stockHandler := NewStockHandler(deps.Ledger, deps.Replenishment, deps.Reconcile)
	stocks := invGroup.Group("/stocks")
	stocks.Post("/", stockHandler.Create)
	stocks.Get("/", stockHandler.List)
	stocks.Get("/low", stockHandler.ListLow)
	stocks.Get("/summary", stockHandler.Summary)
	stocks.Get("/replenishment", stockHandler.Replenishment)
	stocks.Post("/adjust", stockHandler.Adjust)
	stocks.Get("/:id", stockHandler.GetByID)
	stocks.Put("/:id", stockHandler.Update)
	stocks.Delete("/:id", privileged, stockHandler.Delete)
	stocks.Post("/:id/reset", privileged, stockHandler.Reset)

	invGroup.Get("/reconcile", stockHandler.Reconcile)

	invGroup.Get("/warehouses/:id", NewWarehouseHandler(deps.Warehouses).GetByID)
	invGroup.Get("/products/:id", NewProductHandler(deps.Products).GetByID)
}
