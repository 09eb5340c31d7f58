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

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/events"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// stores repositorios de lectura más el TxRunner del backend elegido.
type stores struct {
	txRunner   inventory.TxRunner
	stocks     repository.StockRepository
	movements  repository.StockMovementRepository
	warehouses repository.WarehouseRepository
	products   repository.ProductRepository
	documents  repository.DocumentRepository
	stats      repository.StatsRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	var statsCache inventory.StatsCache
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, estadísticas sin caché")
		} else {
			defer client.Close()
			statsCache = cache.NewRedisStatsCache(client, cfg.Redis.StatsTTL)
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.StatsTTL).Msg("caché de estadísticas activa")
		}
	}

	var publisher inventory.EventPublisher
	if cfg.NATS.Enabled() {
		conn, err := events.Connect(cfg.NATS, cfg.App.Name, log)
		if err != nil {
			log.Warn().Err(err).Msg("nats no disponible, eventos desactivados")
		} else {
			defer conn.Drain()
			publisher = events.NewNATSPublisher(conn, cfg.NATS.SubjectPrefix)
			log.Info().Str("url", cfg.NATS.URL).Str("prefix", cfg.NATS.SubjectPrefix).Msg("publicación de eventos activa")
		}
	}

	validator := inventory.NewMovementValidator(st.warehouses, st.products, st.documents, nil)
	journal := inventory.NewMovementJournal(st.movements)
	transfers := inventory.NewTransferCoordinator(validator, journal)
	movementsUC := inventory.NewRegisterMovementUseCase(
		st.txRunner, validator, transfers, journal, publisher, nil, log, cfg.Ledger.ImportMaxRows,
	)
	ledger := inventory.NewStockLedger(st.txRunner, st.stocks, st.stats, validator, journal, publisher, nil, log)
	statsUC := inventory.NewStatsAggregator(st.stats, st.stocks, statsCache, log)
	replenishmentUC := inventory.NewReplenishmentUseCase(st.stocks)
	reconcileUC := inventory.NewReconcileUseCase(st.stats, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.HTTP.BodyLimitBytes,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.App.Store})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Movements:     movementsUC,
		Ledger:        ledger,
		Stats:         statsUC,
		Replenishment: replenishmentUC,
		Reconcile:     reconcileUC,
		Warehouses:    st.warehouses,
		Products:      st.products,
		JWTSecret:     cfg.JWT.Secret,
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

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.App.Store == config.StoreMemory {
		s := memory.NewStore()
		seedDemo(s, log)
		return &stores{
			txRunner:   s,
			stocks:     s.Stocks(),
			movements:  s.Movements(),
			warehouses: s.Warehouses(),
			products:   s.Products(),
			documents:  s.Documents(),
			stats:      s.Stats(),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		txRunner:   postgres.NewTxRunner(pool, cfg.Ledger.TxMaxRetries, log),
		stocks:     postgres.NewStockRepository(pool),
		movements:  postgres.NewStockMovementRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		products:   postgres.NewProductRepository(pool),
		documents:  postgres.NewDocumentRepository(pool),
		stats:      postgres.NewStatsRepository(pool),
		close:      pool.Close,
	}, nil
}

// seedDemo datos maestros fijos para el modo memoria (los datos maestros no se editan por API).
func seedDemo(s *memory.Store, log *logger.Logger) {
	warehouses := []entity.Warehouse{
		{ID: "11111111-1111-4111-8111-111111111111", Code: "CEN", Name: "Bodega Central", Active: true},
		{ID: "22222222-2222-4222-8222-222222222222", Code: "NOR", Name: "Bodega Norte", Active: true},
	}
	products := []entity.Product{
		{ID: "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa", Code: "CAF-500", SKU: "CAF-500", Name: "Café molido 500g", Active: true},
		{ID: "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb", Code: "AZU-1K", SKU: "AZU-1K", Name: "Azúcar 1kg", Active: true},
	}
	now := time.Now().UTC()
	for _, w := range warehouses {
		w.CreatedAt, w.UpdatedAt = now, now
		s.AddWarehouse(w)
		log.Info().Str("id", w.ID).Str("name", w.Name).Msg("bodega demo")
	}
	for _, p := range products {
		p.CreatedAt, p.UpdatedAt = now, now
		s.AddProduct(p)
		log.Info().Str("id", p.ID).Str("name", p.Name).Msg("producto demo")
	}
}
