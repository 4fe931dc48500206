package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/app"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/auth"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/notifications"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/observability"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/orgs"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/teams"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/tournaments"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/users"
	"github.com/ravikarmakar/gaming-hub-sub004/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "gaminghub_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, queueClient, cfg.VerifyCodeTTL)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	guard := access.Middleware{
		Source:       authService,
		Sender:       authService,
		Logger:       logger,
		LoginPath:    "/auth/login",
		FallbackPath: "/",
		VerifyPath:   "/verify-email",
	}

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	orgsRepo := orgs.NewRepository(dbpool)
	orgsService := orgs.NewService(orgsRepo, auditLogger)
	orgsHandler := orgs.NewHandler(logger, orgsService)

	teamsRepo := teams.NewRepository(dbpool)
	teamsService := teams.NewService(teamsRepo, auditLogger)
	teamsHandler := teams.NewHandler(logger, teamsService)

	metrics := observability.NewMetrics()

	tournamentsRepo := tournaments.NewRepository(dbpool)
	tournamentsService := tournaments.NewService(tournamentsRepo, redisClient, idempotencyStore, queueClient, metrics, auditLogger)
	tournamentsHandler := tournaments.NewHandler(logger, tournamentsService)

	notifRepo := notifications.NewRepository(dbpool)
	notifService := notifications.NewService(notifRepo)
	notifHandler := notifications.NewHandler(logger, notifService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		SessionManager:      sessionManager,
		CSRFManager:         csrfManager,
		Guard:               guard,
		AuthHandler:         authHandler,
		UsersHandler:        usersHandler,
		OrgsHandler:         orgsHandler,
		TeamsHandler:        teamsHandler,
		TournamentsHandler:  tournamentsHandler,
		NotificationHandler: notifHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
