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
	"github.com/jhoicas/ventas-api/internal/application/audit"
	"github.com/jhoicas/ventas-api/internal/application/payment"
	"github.com/jhoicas/ventas-api/internal/application/ports"
	"github.com/jhoicas/ventas-api/internal/application/refund"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/sequence"
	"github.com/jhoicas/ventas-api/internal/application/shift"
	"github.com/jhoicas/ventas-api/internal/application/stock"
	"github.com/jhoicas/ventas-api/internal/application/uow"
	"github.com/jhoicas/ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/ventas-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/ventas-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/ventas-api/internal/interfaces/http"
	"github.com/jhoicas/ventas-api/pkg/config"
	"github.com/jhoicas/ventas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	policy := uow.DefaultRetryPolicy()
	if cfg.Sales.TxMaxRetries > 0 {
		policy.MaxAttempts = cfg.Sales.TxMaxRetries
	}
	if cfg.Sales.TxRetryBase > 0 {
		policy.BaseDelay = cfg.Sales.TxRetryBase
	}
	runner := uow.NewRunner(postgres.NewTxRunner(pool, cfg.DB.LockTimeout), policy, log.Named("uow"))

	recorder := audit.NewRecorder(postgres.NewAuditRepository(pool), log.Named("audit"))
	stockLedger := stock.NewLedger(runner, recorder, log.Named("stock"))
	seq := sequence.NewGenerator(runner)
	shiftLedger := shift.NewLedger(runner, recorder, log.Named("shift"))
	salesSvc := sales.NewService(runner, stockLedger, seq, recorder, log.Named("sales"))
	allocator := payment.NewAllocator(runner, stockLedger, shiftLedger, recorder, log.Named("payment"))
	refunds := refund.NewProcessor(runner, stockLedger, shiftLedger, seq, recorder,
		refund.Policy{PartialRefundKeepsSaleOpen: cfg.Sales.PartialRefundKeepsOpen}, log.Named("refund"))

	// Idempotencia: Redis si está configurado; si no, memoria del proceso (una sola instancia).
	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		idem = infraredis.NewIdempotencyStore(rdb, log.Named("idempotency"))
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: claves de idempotencia en memoria")
		idem = memory.NewIdempotencyStore()
	}

	var limiter *httpRouter.StoreRateLimiter
	stopLimiter := make(chan struct{})
	if cfg.RateLimit.RPS > 0 {
		limiter = httpRouter.NewStoreRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.Run(5*time.Minute, stopLimiter)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerPath); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerPath,
			Path:     "docs",
			Title:    "Ventas API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sales:          salesSvc,
		Payments:       allocator,
		Refunds:        refunds,
		Shifts:         shiftLedger,
		Stock:          stockLedger,
		Idempotency:    idem,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		RateLimiter:    limiter,
		JWTSecret:      cfg.JWT.Secret,
		Log:            log.Named("http"),
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
	close(stopLimiter)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
