package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/bewie03/epok/internal/common/cache"
	"github.com/bewie03/epok/internal/common/config"
	"github.com/bewie03/epok/internal/common/logger"
	rafflehttp "github.com/bewie03/epok/internal/features/raffle/delivery/http"
	"github.com/bewie03/epok/internal/features/raffle/models"
	"github.com/bewie03/epok/internal/features/raffle/oracle"
	"github.com/bewie03/epok/internal/features/raffle/repository"
	rafflepg "github.com/bewie03/epok/internal/features/raffle/repository/postgres"
	raffleredis "github.com/bewie03/epok/internal/features/raffle/repository/redis"
	raffleservice "github.com/bewie03/epok/internal/features/raffle/service"
	apphttp "github.com/bewie03/epok/internal/http"
	"github.com/bewie03/epok/internal/metrics"
	"github.com/bewie03/epok/internal/platform/blockfrost"
	"github.com/bewie03/epok/internal/platform/postgres"
	"github.com/bewie03/epok/internal/platform/redis"
	"github.com/bewie03/epok/internal/utils/random"
	"github.com/bewie03/epok/internal/workers"
)

const serviceName = "epok-raffle"

// app holds the wired dependencies shared by every command
type app struct {
	cfg      *config.Config
	postgres *postgres.Client
	redis    *redis.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	repo     repository.RaffleRepository
	oracle   *oracle.BlockfrostOracle

	lifecycle *raffleservice.LifecycleService
	ingest    *raffleservice.IngestService
	raffle    *raffleservice.RaffleService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(serviceName, cfg.Debug)

	a := &app{cfg: cfg}

	a.postgres, err = postgres.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.repo = rafflepg.NewRaffleRepository(a.postgres.GetGorm())

	if cfg.Postgres.AutoMigrate {
		if err := a.repo.Migrate(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	var (
		locker       repository.Locker = repository.NewLocalLocker()
		cacheService *cache.CacheService
	)
	if cfg.Redis.Enabled {
		a.redis, err = redis.Open(ctx, cfg)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = raffleredis.NewStore(a.redis, cfg.Raffle.LockTTL)
		cacheService = cache.NewCacheService(a.redis)
	} else {
		logger.Warn().Msg("Redis disabled, lifecycle lock is process-local")
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.NewMetrics(a.registry, cfg.Metrics.Namespace)

	client := blockfrost.NewClient(cfg.Blockfrost.BaseURL, cfg.Blockfrost.ProjectID, cfg.Blockfrost.Timeout)
	a.oracle = oracle.NewBlockfrostOracle(client, cacheService, cfg.Blockfrost.EpochCacheTTL, a.metrics)

	a.lifecycle = raffleservice.NewLifecycleService(
		a.repo,
		locker,
		random.NewCryptoSource(),
		a.metrics,
		raffleservice.LifecycleConfig{
			EpochDuration: cfg.Raffle.EpochDuration,
			DefaultPrize:  models.Prize{Name: cfg.Raffle.PrizeName, AssetID: cfg.Raffle.PrizeAssetID},
		},
	)
	validator := raffleservice.NewPaymentValidator(models.PaymentRules{
		RaffleAddress:  cfg.Raffle.WalletAddress,
		TokenUnit:      cfg.TokenUnit(),
		MinBaseAmount:  cfg.Raffle.MinBaseAmount,
		MinTokenAmount: cfg.Raffle.MinTokenAmount,
		TicketPrice:    cfg.Raffle.TicketPrice,
		Mode:           models.PaymentMode(cfg.Raffle.PaymentMode),
	})
	a.ingest = raffleservice.NewIngestService(a.repo, a.lifecycle, a.oracle, validator, a.metrics)
	a.raffle = raffleservice.NewRaffleService(a.repo, a.lifecycle, a.oracle)

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.postgres != nil {
		_ = a.postgres.Close()
	}
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	logger.Info().
		Str("wallet", a.cfg.Raffle.WalletAddress).
		Str("payment_mode", a.cfg.Raffle.PaymentMode).
		Dur("epoch_duration", a.cfg.Raffle.EpochDuration).
		Bool("debug", a.cfg.Debug).
		Msg("Starting Epok raffle backend")

	if a.cfg.Webhook.Secret == "" {
		logger.Warn().Msg("WEBHOOK_SECRET is empty, webhook deliveries will be rejected")
	}
	if a.cfg.Admin.APIKey == "" {
		logger.Warn().Msg("ADMIN_API_KEY is empty, admin routes are disabled")
	}

	checks := map[string]apphttp.HealthChecker{"postgres": a.postgres}
	if a.redis != nil {
		checks["redis"] = a.redis
	}

	handler := rafflehttp.NewRaffleHandler(a.raffle, a.lifecycle, a.ingest)
	router := apphttp.NewRouter(a.cfg, apphttp.Dependencies{
		Raffle:   handler,
		Gatherer: a.registry,
		Checks:   checks,
	})

	a.startWorkers(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", a.cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
	return nil
}

// startWorkers runs the optional pull ingestion. With redis the poller feeds
// the stream and the stream worker ingests; without it the poller ingests directly.
func (a *app) startWorkers(ctx context.Context) {
	if !a.cfg.Poller.Enabled {
		return
	}

	var (
		cursors repository.CursorStore = repository.NewMemoryCursorStore()
		queue   workers.Queue          = workers.NewDirectQueue(a.ingest)
	)
	if a.redis != nil {
		cursors = raffleredis.NewStore(a.redis, a.cfg.Raffle.LockTTL)
		queue = workers.NewStreamQueue(a.redis, "poller")

		hostname, _ := os.Hostname()
		go workers.NewRedisStreamWorker(a.redis, a.ingest, "raffle-"+hostname).Start(ctx)
	}

	poller := workers.NewPoller(
		a.oracle,
		cursors,
		queue,
		a.metrics,
		a.cfg.Raffle.WalletAddress,
		a.cfg.Poller.Interval,
		a.cfg.Poller.PageSize,
	)
	go poller.Start(ctx)
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(serviceName, cfg.Debug)

	client, err := postgres.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer client.Close()

	if err := rafflepg.NewRaffleRepository(client.GetGorm()).Migrate(c.Context); err != nil {
		return err
	}
	logger.Info().Msg("Migration complete")
	return nil
}

func ingest(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one transaction hash is required", 1)
	}

	a, err := newApp(c.Context)
	if err != nil {
		return err
	}
	defer a.close()

	failed := 0
	for _, txHash := range c.Args().Slice() {
		res, err := a.ingest.IngestHash(c.Context, txHash)
		event := logger.Info()
		if err != nil {
			failed++
			event = logger.Error().Err(err)
		}
		if res != nil {
			event = event.Str("status", string(res.Status)).Str("reason", res.Reason).Int64("tickets", res.TicketCount)
		}
		event.Str("tx_hash", txHash).Msg("Ingested")
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d transactions failed", failed, c.NArg()), 1)
	}
	return nil
}

func draw(c *cli.Context) error {
	a, err := newApp(c.Context)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.lifecycle.DrawWinner(c.Context)
	if err != nil {
		return err
	}
	logger.Info().
		Uint("epoch_id", result.EpochID).
		Str("winner", result.Winner).
		Int64("total_tickets", result.TotalEntries).
		Int("participants", result.Participants).
		Msg("Winner drawn")
	return nil
}
