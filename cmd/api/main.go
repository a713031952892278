package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tobiasgrant/storefront/internal/auth"
	"github.com/tobiasgrant/storefront/internal/background"
	"github.com/tobiasgrant/storefront/internal/config"
	"github.com/tobiasgrant/storefront/internal/database"
	"github.com/tobiasgrant/storefront/internal/handlers"
	middlewareCustom "github.com/tobiasgrant/storefront/internal/middleware"
	"github.com/tobiasgrant/storefront/internal/providers"
	"github.com/tobiasgrant/storefront/internal/repositories"
	"github.com/tobiasgrant/storefront/internal/routes"
	"github.com/tobiasgrant/storefront/internal/services"
	"github.com/tobiasgrant/storefront/migrations"
	pkgauth "github.com/tobiasgrant/storefront/pkg/auth"
	pkglogger "github.com/tobiasgrant/storefront/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(migrations.FS); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(refreshTokenRepo, logger, cfg.Auth.CleanupInterval)

	// Token managers
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	refreshManager := auth.NewRefreshTokenManager(refreshTokenRepo, cfg.Auth.RefreshTokenTTL)

	auditLogger := pkglogger.NewAuditLogger(logger)
	hasher := pkgauth.NewHasher(cfg.Auth.BcryptCost)

	// Initialize services
	linker := services.NewIdentityLinker(userRepo, logger)
	mailer := services.NewLogEmailSender(logger)
	authService := services.NewAuthService(userRepo, tokenManager, refreshManager, hasher, linker, mailer, logger, auditLogger)

	// Federated identity clients, only for providers with credentials
	oauthClients := make(map[string]providers.Client)
	if cfg.OAuth.Google.Enabled() {
		client := providers.NewGoogleClient(cfg.OAuth.Google)
		oauthClients[client.Name()] = client
	}
	if cfg.OAuth.GitHub.Enabled() {
		client := providers.NewGitHubClient(cfg.OAuth.GitHub)
		oauthClients[client.Name()] = client
	}
	for name := range oauthClients {
		logger.Info("federated provider enabled", slog.String("provider", name))
	}

	// Initialize handlers
	cookieConfig := auth.CookieConfig{
		Domain: cfg.Auth.CookieDomain,
		Secure: cfg.Server.Env == "production",
	}
	authHandler := handlers.NewAuthHandler(authService, cookieConfig, cfg.Auth.RefreshTokenTTL)
	oauthHandler := handlers.NewOAuthHandler(authService, oauthClients, cookieConfig, cfg.Auth.RefreshTokenTTL, cfg.Server.FrontendURL, logger)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.FrontendURL)
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = append(corsConfig.AllowedOrigins, cfg.Server.AllowedOrigins...)
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, oauthHandler, tokenManager, oauthClients)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
