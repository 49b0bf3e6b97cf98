package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mitaict-site/internal/config"
	"mitaict-site/internal/domain"
	"mitaict-site/internal/handler"
	"mitaict-site/internal/llm"
	"mitaict-site/internal/messaging"
	"mitaict-site/internal/middleware"
	"mitaict-site/internal/observability"
	"mitaict-site/internal/recaptcha"
	"mitaict-site/internal/repository/postgres"
	"mitaict-site/internal/service"
	"mitaict-site/internal/websocket"
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting site server", slog.String("environment", cfg.Environment))

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(connCtx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgresql")

	if err := config.RunMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	adminRepo, err := postgres.NewAdminRepository(db)
	if err != nil {
		slog.Error("failed to init admin repository", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sessionRepo, err := postgres.NewSessionRepository(db)
	if err != nil {
		slog.Error("failed to init session repository", slog.String("error", err.Error()))
		os.Exit(1)
	}
	serviceRepo := postgres.NewServiceRepository(db)
	productRepo := postgres.NewSaasProductRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	contactRepo := postgres.NewContactRepository(db)
	chatRepo := postgres.NewChatSessionRepository(db)
	meetingRepo := postgres.NewMeetingRequestRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The events bus is optional outside production; without it the feed
	// stays silent and nothing is emailed.
	var (
		rmq       *messaging.RabbitMQ
		publisher domain.EventPublisher
		broker    handler.BrokerStatus
	)
	if cfg.RabbitMQURL != "" {
		rmqCtx, rmqCancel := context.WithTimeout(ctx, 60*time.Second)
		rmq, err = messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
		rmqCancel()
		switch {
		case err == nil:
			defer rmq.Close()
			publisher = rmq
			broker = rmq
		case cfg.IsProduction():
			slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
			os.Exit(1)
		default:
			slog.Warn("running without events bus", slog.String("error", err.Error()))
		}
	}

	authOpts := []service.AuthOption{service.WithSessionTTL(cfg.SessionTTL)}
	if cfg.FederatedLoginEnabled() {
		authOpts = append(authOpts, service.WithIdentityProvider(
			service.NewGoogleIdentity(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)))
		slog.Info("google admin login enabled")
	}
	authService := service.NewAuthService(adminRepo, sessionRepo, authOpts...)
	contentService := service.NewContentService(serviceRepo, productRepo, settingsRepo)

	var captcha service.CaptchaVerifier
	if cfg.RecaptchaSecret != "" {
		captcha = recaptcha.NewClient(cfg.RecaptchaSecret, cfg.RecaptchaVerifyURL)
	}
	contactService := service.NewContactService(contactRepo, publisher, captcha)

	model, err := llm.New(ctx, llm.Config{
		Backend:  cfg.LLMBackend,
		APIKey:   cfg.GeminiAPIKey,
		Project:  cfg.GCPProject,
		Location: cfg.GCPLocation,
		Model:    cfg.GeminiModel,
	})
	if err != nil {
		slog.Error("failed to init chat model", slog.String("error", err.Error()))
		os.Exit(1)
	}
	chatService := service.NewChatService(chatRepo, meetingRepo, contentService, model, publisher, cfg.ChatTimeout)

	ensureAdmin(ctx, authService, cfg)
	if cfg.SeedContent {
		if err := contentService.Seed(ctx); err != nil {
			slog.Error("failed to seed content", slog.String("error", err.Error()))
		}
	}

	hub := websocket.NewHub()
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("hub error", slog.String("error", err.Error()))
		}
	}()
	slog.Info("admin feed hub started")

	if rmq != nil {
		if err := messaging.NewFeedConsumer(rmq, hub).Start(ctx); err != nil {
			slog.Error("failed to start feed consumer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("feed consumer started")
	}

	go startSessionCleanup(ctx, authService)
	go startDBStats(ctx, db)

	openAPI := middleware.DefaultOpenAPIValidatorConfig(cfg.IsProduction())
	openAPI.SpecPath = cfg.OpenAPISpec

	router := handler.NewRouter(handler.RouterConfig{
		AllowedOrigins: middleware.ParseOrigins(cfg.AllowedOrigins),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		OpenAPI:        openAPI,
	}, handler.Deps{
		Auth:     authService,
		Content:  contentService,
		Contacts: contactService,
		Chat:     chatService,
		Hub:      hub,
		DB:       db,
		Broker:   broker,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ChatTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("site server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	time.Sleep(100 * time.Millisecond)

	slog.Info("server stopped gracefully")
}

// ensureAdmin seeds the configured admin account when it does not exist yet.
func ensureAdmin(ctx context.Context, auth *service.AuthService, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	created, err := auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		slog.Error("failed to ensure admin", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if created {
		slog.Info("created default admin", slog.String("username", cfg.AdminUsername))
	}
}

// startSessionCleanup deletes expired admin sessions every hour.
func startSessionCleanup(ctx context.Context, auth *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping session cleanup task")
			return
		case <-ticker.C:
			cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			count, err := auth.CleanupExpiredSessions(cleanupCtx)
			if err != nil {
				slog.Error("session cleanup failed", slog.String("error", err.Error()))
			} else {
				slog.Info("session cleanup completed", slog.Int64("sessions_deleted", count))
			}
			cancel()
		}
	}
}

type statser interface {
	Stats() sql.DBStats
}

func startDBStats(ctx context.Context, db statser) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.RecordDBStats(db.Stats())
		}
	}
}
