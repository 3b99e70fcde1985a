// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/carterperez-dev/finddetectives/internal/admin"
	"github.com/carterperez-dev/finddetectives/internal/application"
	"github.com/carterperez-dev/finddetectives/internal/auth"
	"github.com/carterperez-dev/finddetectives/internal/catalog"
	"github.com/carterperez-dev/finddetectives/internal/claim"
	"github.com/carterperez-dev/finddetectives/internal/config"
	"github.com/carterperez-dev/finddetectives/internal/core"
	"github.com/carterperez-dev/finddetectives/internal/detective"
	"github.com/carterperez-dev/finddetectives/internal/events"
	"github.com/carterperez-dev/finddetectives/internal/health"
	"github.com/carterperez-dev/finddetectives/internal/jobs"
	"github.com/carterperez-dev/finddetectives/internal/metrics"
	"github.com/carterperez-dev/finddetectives/internal/middleware"
	"github.com/carterperez-dev/finddetectives/internal/review"
	"github.com/carterperez-dev/finddetectives/internal/server"
	"github.com/carterperez-dev/finddetectives/internal/storage"
	"github.com/carterperez-dev/finddetectives/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	generateKeys := flag.Bool(
		"generate-keys",
		false,
		"write a new ES256 key pair to the configured JWT paths and exit",
	)
	flag.Parse()

	_ = godotenv.Load() //nolint:errcheck // .env is optional

	if *generateKeys {
		if err := writeKeys(*configPath); err != nil {
			slog.Error("generate keys", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen,gocyclo // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics, err = metrics.New(metrics.Options{Namespace: cfg.Metrics.Namespace})
		if err != nil {
			return err
		}
	}

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if cfg.Kafka.Enabled {
		kafka, kafkaErr := events.NewKafkaPublisher(cfg.Kafka, cfg.App, logger)
		if kafkaErr != nil {
			return kafkaErr
		}
		publisher = kafka
		logger.Info("kafka publisher initialized",
			"brokers", cfg.Kafka.Brokers,
			"topic_prefix", cfg.Kafka.TopicPrefix,
		)
	}

	checkers := map[string]health.Checker{
		"database": db,
		"redis":    redis,
	}

	var documents claim.Documents
	if cfg.Storage.Enabled {
		store, storeErr := storage.NewDocumentStore(cfg.Storage)
		if storeErr != nil {
			return storeErr
		}
		if storeErr = store.EnsureBucket(ctx); storeErr != nil {
			return storeErr
		}
		documents = store
		checkers["storage"] = store
		logger.Info("document storage ready",
			"endpoint", cfg.Storage.Endpoint,
			"bucket", cfg.Storage.Bucket,
		)
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	policy := core.PasswordPolicy{
		MinLength:   cfg.Password.MinLength,
		MinStrength: cfg.Password.MinStrength,
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, logger)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		auth.NewRedisDenylist(redis.Client),
		policy,
	)
	authHandler := auth.NewHandler(authSvc)

	detectiveRepo := detective.NewRepository(db.DB)
	detectiveSvc := detective.NewService(detectiveRepo, logger)
	detectiveHandler := detective.NewHandler(detectiveSvc)

	serviceRepo := catalog.NewServiceRepository(db.DB)
	catalogSvc := catalog.NewCatalog(
		serviceRepo,
		catalog.NewCategoryRepository(db.DB),
		detectiveRepo,
		logger,
	)
	catalogHandler := catalog.NewHandler(catalogSvc)

	reviewSvc := review.NewService(review.NewRepository(db.DB), serviceRepo, logger)
	reviewHandler := review.NewHandler(reviewSvc)

	applicationSvc := application.NewService(
		application.NewRepository(db.DB),
		db,
		func(tx core.DBTX) application.Stores {
			return application.Stores{
				Applications: application.NewRepository(tx),
				Users:        user.NewRepository(tx),
				Detectives:   detective.NewRepository(tx),
				Services:     catalog.NewServiceRepository(tx),
			}
		},
		catalogSvc,
		policy,
		publisher,
		appMetrics,
		logger,
	)
	applicationHandler := application.NewHandler(applicationSvc)

	claimSvc := claim.NewService(
		claim.NewRepository(db.DB),
		detectiveRepo,
		userRepo,
		documents,
		publisher,
		appMetrics,
		logger,
	)
	claimHandler := claim.NewHandler(claimSvc)

	healthHandler := health.NewHandler(checkers)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:             db.Stats,
		RedisStats:          redis.PoolStats,
		DBPing:              db.Ping,
		RedisPing:           redis.Ping,
		PendingApplications: applicationSvc.CountPending,
		PendingClaims:       claimSvc.CountPending,
		Logger:              logger,
	})

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(logger)
		if err := scheduler.Add(
			jobs.TokenCleanup(cfg.Jobs.TokenCleanupSpec, authRepo, logger),
		); err != nil {
			return err
		}
		if appMetrics != nil {
			if err := scheduler.Add(jobs.PendingGauges(
				cfg.Jobs.PendingGaugesSpec,
				appMetrics,
				map[string]jobs.PendingCounter{
					metrics.WorkflowApplication: applicationSvc.CountPending,
					metrics.WorkflowClaim:       claimSvc.CountPending,
				},
			)); err != nil {
				return err
			}
		}
		scheduler.Start()
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(telemetry.Tracer()))
	router.Use(middleware.Logger(logger))
	router.Use(appMetrics.Middleware)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	if appMetrics != nil {
		router.Handle(cfg.Metrics.Path, appMetrics.Handler())
	}

	roleLimit := middleware.RoleRateLimiter(redis.Client, middleware.DefaultRoleLimits)
	verify := middleware.Authenticator(authSvc)
	authenticator := func(next http.Handler) http.Handler {
		return verify(roleLimit(next))
	}
	optionalAuth := middleware.OptionalAuth(authSvc)
	adminOnly := middleware.RequireAdmin

	submitLimit := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerHour(
			cfg.RateLimit.SubmitPerHour,
			cfg.RateLimit.SubmitPerHour,
		),
		KeyFunc:  middleware.KeyByUserAndEndpoint,
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		r.Post("/users", authHandler.Register)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		detectiveHandler.RegisterRoutes(r, authenticator, optionalAuth)
		detectiveHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		catalogHandler.RegisterRoutes(r, authenticator, optionalAuth,
			func(r chi.Router) {
				reviewHandler.RegisterServiceRoutes(r, authenticator, optionalAuth)
			},
		)
		catalogHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		reviewHandler.RegisterRoutes(r, authenticator, optionalAuth)

		applicationHandler.RegisterRoutes(r, authenticator, adminOnly, submitLimit)
		claimHandler.RegisterRoutes(r, authenticator, adminOnly, submitLimit)

		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler stop error", "error", err)
		}
	}

	if err := publisher.Close(); err != nil {
		logger.Error("event publisher close error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func writeKeys(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := auth.GenerateKeyPair(
		cfg.JWT.PrivateKeyPath,
		cfg.JWT.PublicKeyPath,
	); err != nil {
		return err
	}

	slog.Info("key pair written",
		"private_key", cfg.JWT.PrivateKeyPath,
		"public_key", cfg.JWT.PublicKeyPath,
	)
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
