package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/seed"
	"shareit/internal/service"
	"shareit/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const quotaSweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, baseLogger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	db, err := database.NewDB(cfg.Database.Path, logging.Component(baseLogger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}

	bus := events.NewEventBus()
	bus.Subscribe(logEvent(logging.Component(baseLogger, "events")), events.BookingEventTypes...)
	startOutbox(ctx, cfg, db, bus, redisClient, baseLogger)

	bookings := service.NewBookingService(db, bus, logging.Component(baseLogger, "bookings"),
		service.WithCreateTolerance(time.Duration(cfg.Booking.CreateToleranceMinutes)*time.Minute),
		service.WithMaxPageSize(cfg.Booking.MaxPageSize),
	)
	users := service.NewUserService(db, logging.Component(baseLogger, "users"))
	items := service.NewItemService(db, bookings, time.Now, logging.Component(baseLogger, "items"))
	requests := service.NewRequestService(db, time.Now, logging.Component(baseLogger, "requests"))

	if err := seedStore(ctx, users, items, baseLogger); err != nil {
		logger.Error().Err(err).Msg("seed store")
		return err
	}

	snapshots := database.NewSnapshotService(db, cfg.Backup, logging.Component(baseLogger, "snapshots"))
	go snapshots.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, no transport will be served")
	}

	quota := initQuota(ctx, redisClient, baseLogger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, api.GRPCDeps{
			Bookings:        bookings,
			Quota:           quota,
			DefaultPageSize: cfg.Booking.DefaultPageSize,
			Logger:          baseLogger,
		})
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := api.NewHTTPServer(cfg.API, api.HTTPDeps{
		Users:           users,
		Items:           items,
		Bookings:        bookings,
		Requests:        requests,
		Quota:           quota,
		DefaultPageSize: cfg.Booking.DefaultPageSize,
		Health:          db.PingContext,
		Logger:          baseLogger,
	})

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, baseLogger, closer, nil
}

func seedStore(ctx context.Context, users domain.UserService, items domain.ItemService, baseLogger *zerolog.Logger) error {
	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "configs/seed.yaml"
	}

	file, err := seed.Load(seedPath)
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, file, users, items, logging.Component(baseLogger, "seed"))
	return err
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = repository.Close(redisClient)
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initQuota prefers redis and falls back to process memory.
func initQuota(ctx context.Context, redisClient *redis.Client, baseLogger *zerolog.Logger) domain.RateLimitStore {
	memory := repository.NewMemoryQuotaStore()
	go sweepQuota(ctx, memory)

	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverQuotaStore(
		repository.NewRedisQuotaStore(redisClient, ""),
		memory,
		logging.Component(baseLogger, "quota"),
	)
}

func sweepQuota(ctx context.Context, store *repository.MemoryQuotaStore) {
	ticker := time.NewTicker(quotaSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep()
		}
	}
}

func startOutbox(ctx context.Context, cfg *config.Config, db *database.DB, bus *events.EventBus, redisClient *redis.Client, baseLogger *zerolog.Logger) {
	logger := logging.Component(baseLogger, "outbox")
	if !cfg.Outbox.Enabled {
		return
	}
	if !cfg.Kafka.Enabled {
		logger.Warn().Msg("outbox is enabled but kafka is not, booking events will not be relayed")
		return
	}

	writer := worker.NewKafkaWriter(cfg.Kafka)
	go func() {
		<-ctx.Done()
		if err := writer.Close(); err != nil {
			logger.Error().Err(err).Msg("close kafka writer")
		}
	}()

	var deadLetters worker.DeadLetterQueue
	if redisClient != nil {
		deadLetters = repository.NewRedisDeadLetterQueue(redisClient, cfg.Outbox.DeadLetterKey)
	}

	relay := worker.NewOutboxRelay(
		db,
		writer,
		deadLetters,
		worker.RetryPolicyFromConfig(cfg.Outbox),
		time.Duration(cfg.Outbox.PollIntervalMS)*time.Millisecond,
		cfg.Outbox.BatchSize,
		logger,
	)
	bus.Subscribe(relay.Enqueue, events.BookingEventTypes...)
	go relay.Start(ctx)
}

func logEvent(logger *zerolog.Logger) events.EventHandler {
	return func(event *events.Event) error {
		logger.Debug().Int64("event_id", event.ID).Str("event_type", event.Type).Msg("booking event")
		return nil
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	grpcAddr := "disabled"
	if grpcServer != nil {
		grpcAddr = grpcServer.Addr()
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Str("grpc_addr", grpcAddr).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
