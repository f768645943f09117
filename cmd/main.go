package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"settlement-service/internal/catalog"
	"settlement-service/internal/config"
	"settlement-service/internal/database/postgres"
	redisdb "settlement-service/internal/database/redis"
	"settlement-service/internal/event"
	"settlement-service/internal/handlers"
	"settlement-service/internal/ledger"
	"settlement-service/internal/oracle"
	"settlement-service/internal/proof"
	"settlement-service/internal/repository"
	"settlement-service/internal/services"
	"settlement-service/internal/worker"

	"github.com/gofiber/fiber/v3"
	_ "github.com/lib/pq"
)

const snapshotCacheTTL = 30 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.New()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg.EngineCfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load hazard catalog", "error", err)
		os.Exit(1)
	}

	store := buildPolicyStore(cfg)
	wallet := ledger.NewMemoryLedger(cfg.EngineCfg.DefaultBalance)
	board := oracle.NewBoard(cat, cfg.EngineCfg.VarianceLimit, cfg.EngineCfg.SimSeed)

	var snapshotCache *repository.SnapshotCache
	if redisClient, err := redisdb.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB); err != nil {
		slog.Warn("redis unavailable, snapshot mirroring disabled", "error", err)
	} else {
		defer redisClient.Close()
		snapshotCache = repository.NewSnapshotCache(redisClient.GetClient(), snapshotCacheTTL)
	}

	var proofStore *proof.Store
	if proofStore, err = proof.NewStore(cfg.MinioCfg); err != nil {
		slog.Warn("minio unavailable, proof uploads disabled", "error", err)
		proofStore = nil
	}

	claims := services.NewClaimValidator(board, cfg.EngineCfg.VarianceLimit)
	apps := services.NewApplicationValidator(wallet, cfg.EngineCfg.RiskScoreCeiling)
	lifecycle := services.NewLifecycleService(store, wallet, cat, claims, apps)

	if mq, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg); err != nil {
		slog.Warn("rabbitmq unavailable, settlement events disabled", "error", err)
	} else {
		defer mq.Close()
		lifecycle.WithNotifier(event.NewSettlementPublisher(mq))
	}

	pool := worker.NewWorkingPool("oracle-refresh", 4, 64)
	go pool.Run(ctx)

	scheduler := worker.NewJobScheduler("sensor-ticks", time.Duration(cfg.EngineCfg.RefreshIntervalSeconds)*time.Second, pool)
	for _, hazard := range cat.All() {
		hazardID := hazard.ID
		scheduler.AddJob(func() {
			if err := board.RefreshHazard(hazardID, time.Now()); err != nil {
				slog.Error("hazard refresh failed", "hazard_id", hazardID, "error", err)
				return
			}
			if snapshotCache == nil {
				return
			}
			snapshot, err := board.Snapshot(hazardID)
			if err != nil {
				return
			}
			cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := snapshotCache.Store(cacheCtx, snapshot); err != nil {
				slog.Warn("failed to mirror snapshot", "hazard_id", hazardID, "error", err)
			}
		})
	}
	go scheduler.Run(ctx)

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Settlement service is healthy")
	})
	handlers.NewPolicyHandler(lifecycle, wallet, proofStore).Register(app)
	handlers.NewOracleHandler(cat, board, snapshotCache).Register(app)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()
	slog.Info("settlement service started", "port", cfg.Port, "hazards", len(cat.All()))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	slog.Info("settlement service stopped")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path != "" {
		return catalog.LoadFile(path)
	}
	return catalog.Default()
}

// buildPolicyStore prefers PostgreSQL and falls back to the in-memory store
// so the simulation stays usable without external infrastructure.
func buildPolicyStore(cfg *config.SettlementServiceConfig) repository.PolicyStore {
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		slog.Warn("postgres unavailable, using in-memory policy store", "error", err)
		return repository.NewMemoryStore()
	}
	slog.Info("connected to PostgreSQL", "host", cfg.PostgresCfg.Host, "db", cfg.PostgresCfg.DBname)
	return repository.NewPolicyRepository(db)
}
