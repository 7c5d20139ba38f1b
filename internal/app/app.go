package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"student-registry/internal/auth"
	"student-registry/internal/config"
	"student-registry/internal/db"
	"student-registry/internal/events"
	"student-registry/internal/health"
	"student-registry/internal/logger"
	"student-registry/internal/middleware"
	"student-registry/internal/student"
	"student-registry/internal/telemetry"
	"student-registry/internal/validation"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
)

type App struct {
	config     *config.Config
	router     chi.Router
	server     *http.Server
	grpcServer *health.GRPCServer
	db         *bun.DB
	publisher  events.Publisher
	telemetry  *telemetry.Telemetry
	logger     *slog.Logger
}

func New(ctx context.Context) (*App, error) {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "git_commit", GitCommit, "build_time", BuildTime)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, cfg.Env, slogLogger)
	if err != nil {
		return nil, err
	}
	m := tel.Metrics

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := m.Database.RegisterDB(database.DB, tel.Meter()); err != nil {
		slogLogger.Warn("failed to register database metrics", "error", err)
	}
	if err := m.Health.RegisterDependencies(tel.Meter(), "postgres"); err != nil {
		slogLogger.Warn("failed to register dependency metrics", "error", err)
	}

	publisher := events.Instrument(newPublisher(cfg.Events, slogLogger), cfg.Events.Driver, m.Events)

	app := &App{
		config:     cfg,
		router:     chi.NewRouter(),
		grpcServer: health.NewGRPCServer(slogLogger, m.Grpc),
		db:         database,
		publisher:  publisher,
		telemetry:  tel,
		logger:     slogLogger,
	}

	app.router.Use(chimiddleware.RequestID)
	app.router.Use(chimiddleware.Recoverer)
	app.router.Use(middleware.RequestLogger(slogLogger))
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health endpoints (no auth required)
	healthHandler := health.NewHandler(database, slogLogger, m)
	healthHandler.RegisterRoutes(app.router)

	validator := validation.New()
	hasher := student.NewBcryptHasher()
	studentRepo := student.NewRepository(database, m, hasher)

	// Auth endpoints
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinute)*time.Minute)
	authService := auth.NewService(studentRepo, hasher, tokens)
	authHandler := auth.NewHandler(authService, tokens, validator, slogLogger, m, cfg.Auth.SecureCookie)
	authHandler.RegisterRoutes(app.router)

	// Student endpoints
	studentService := student.NewService(studentRepo, publisher, slogLogger)
	studentHandler := student.NewHandler(studentService, validator, tokens, slogLogger, m)
	app.router.Route("/api", studentHandler.RegisterRoutes)

	slogLogger.Info("application initialized successfully")

	return app, nil
}

// newPublisher connects to the configured broker. A broker that cannot be
// reached disables events instead of failing startup.
func newPublisher(cfg config.EventsConfig, logger *slog.Logger) events.Publisher {
	var (
		publisher events.Publisher
		err       error
	)

	switch cfg.Driver {
	case "nats":
		publisher, err = events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger)
	case "kafka":
		publisher, err = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	default:
		logger.Info("student events disabled")
		return events.NopPublisher{}
	}

	if err != nil {
		logger.Warn("failed to initialize event publisher, events disabled", "driver", cfg.Driver, "error", err)
		return events.NopPublisher{}
	}
	return publisher
}

func (a *App) Run() error {
	go func() {
		if err := a.grpcServer.ListenAndServe(a.config.GRPC.Port); err != nil {
			a.logger.Error("gRPC server error", "error", err)
		}
	}()

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")
	a.grpcServer.SetServing(false)

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	a.grpcServer.GracefulStop()

	if err := a.publisher.Close(); err != nil {
		a.logger.Error("event publisher close error", "error", err)
	}
	db.Close(a.db)

	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
