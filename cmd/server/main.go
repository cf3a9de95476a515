package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/config"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/database"
	"github.com/yukikurage/teamtask-api/internal/email"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/handlers"
	"github.com/yukikurage/teamtask-api/internal/metrics"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/realtime"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"github.com/yukikurage/teamtask-api/internal/services"
	"github.com/yukikurage/teamtask-api/internal/tracing"
	"github.com/yukikurage/teamtask-api/internal/workers"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)
	apierrors.SetDebug(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, logger, "teamtask-api", cfg.AppEnv)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.Any("error", err))
		os.Exit(1)
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	db := database.GetDB()

	// Realtime fan-out: in-process hub, relayed through redis when configured
	hub := realtime.NewHub(logger)
	var publisher realtime.Publisher = hub
	if cfg.RedisURL != "" {
		broker, err := realtime.NewRedisBroker(cfg.RedisURL, hub, logger)
		if err != nil {
			logger.Error("failed to connect realtime broker", slog.Any("error", err))
			os.Exit(1)
		}
		defer broker.Close()
		go broker.Run(ctx)
		publisher = broker
	}

	mailer, err := email.NewMailer(cfg, logger)
	if err != nil {
		logger.Error("failed to configure mailer", slog.Any("error", err))
		os.Exit(1)
	}
	renderer, err := email.NewRenderer()
	if err != nil {
		logger.Error("failed to load email templates", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	authService := services.NewAuthService(userRepo, tokens, mailer, renderer, services.AuthSettings{
		AdminAccessKey:  cfg.AdminAccessKey,
		LeaderAccessKey: cfg.LeaderAccessKey,
		FrontendURL:     cfg.FrontendURL,
	}, logger)
	notificationService := services.NewNotificationService(notificationRepo, publisher, logger)
	projectService := services.NewProjectService(projectRepo, userRepo, membershipRepo, publisher)
	membershipService := services.NewMembershipService(projectRepo, userRepo, membershipRepo, notificationService, publisher)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, services.NewAccessPolicy(membershipRepo), notificationService, publisher, aiService, logger)
	userService := services.NewUserService(userRepo, projectRepo, membershipRepo, taskRepo)
	reportService := services.NewReportService(userRepo, membershipRepo, taskRepo)

	if err := handlers.RegisterValidators(); err != nil {
		logger.Error("failed to register validators", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), metrics.GinMiddleware())

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		logger.Error("failed to create redis session store", slog.Any("error", err))
		os.Exit(1)
	}
	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   constants.SessionMaxAge,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.Routes{
		DB:            db,
		Resolver:      authService,
		Auth:          handlers.NewAuthHandler(authService),
		Projects:      handlers.NewProjectHandler(projectService),
		Users:         handlers.NewUserHandler(userService, membershipService),
		Tasks:         handlers.NewTaskHandler(taskService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Reports:       handlers.NewReportHandler(reportService),
		WebSocket:     handlers.NewWebSocketHandler(hub, authService, projectService, cfg.AllowedOrigins, logger),
	}.Register(r.Group("/api"))

	// Background notification retention
	purger := workers.NewNotificationPurger(notificationService, cfg.NotificationRetention, cfg.NotificationPurgeInterval, logger)
	go purger.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(r, "teamtask-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", slog.Any("error", err))
	}
}
