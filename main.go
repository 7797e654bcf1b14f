package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/audit"
	"github.com/sopforge/sop-engine/pkg/auth"
	"github.com/sopforge/sop-engine/pkg/config"
	"github.com/sopforge/sop-engine/pkg/crypto"
	"github.com/sopforge/sop-engine/pkg/database"
	"github.com/sopforge/sop-engine/pkg/handlers"
	"github.com/sopforge/sop-engine/pkg/llm"
	"github.com/sopforge/sop-engine/pkg/logging"
	"github.com/sopforge/sop-engine/pkg/middleware"
	"github.com/sopforge/sop-engine/pkg/models"
	"github.com/sopforge/sop-engine/pkg/repositories"
	"github.com/sopforge/sop-engine/pkg/retry"
	"github.com/sopforge/sop-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", cfg.Database.Host),
		zap.String("upstream_provider", cfg.Upstream.Provider),
		zap.String("upstream_model", cfg.Upstream.Model))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate(cfg, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	db, err := retry.DoWithResult(ctx, nil, func() (*database.DB, error) {
		return database.Connect(ctx, cfg.Database.URL(), database.Options{
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	encryptor, err := crypto.NewCredentialEncryptor(cfg.CredentialsKey)
	if err != nil {
		logger.Fatal("credential encryptor init failed", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(db)
	sopRepo := repositories.NewSOPRepository(db)

	auditor := audit.NewSecurityAuditor(logger)
	userService := services.NewUserService(userRepo, encryptor, auditor, logger)
	sopService := services.NewSOPService(sopRepo, auditor, logger)

	factory, err := llm.NewClientFactory(cfg.Upstream.Provider, llm.Config{
		BaseURL:     cfg.Upstream.BaseURL,
		Model:       cfg.Upstream.Model,
		APIKey:      cfg.Upstream.APIKey,
		Temperature: float32(cfg.Upstream.Temperature),
		MaxTokens:   cfg.Upstream.MaxOutputTokens,
	}, userService, logger)
	if err != nil {
		logger.Fatal("upstream client factory init failed", zap.Error(err))
	}
	generationService := services.NewGenerationService(sopRepo, factory, logger)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		seedAdmin(ctx, userService, cfg.Admin, logger)
	}

	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	tokens := auth.NewTokenService(cfg.Auth.SessionSecret, tokenTTL)
	sessions := auth.NewSessionStore(cfg.Auth.SessionSecret, int(tokenTTL.Seconds()), cfg.Env != "local")
	authMiddleware := auth.NewMiddleware(tokens, sessions, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(userService, tokens, sessions, auditor, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewGenerationHandler(generationService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSOPHandler(sopService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewAPIKeyHandler(userService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUserHandler(userService, logger).RegisterRoutes(mux, authMiddleware)

	if cfg.Janitor.SweepIntervalMinutes > 0 {
		janitor := services.NewJanitor(sopRepo,
			time.Duration(cfg.Janitor.SweepIntervalMinutes)*time.Minute,
			time.Duration(cfg.Janitor.OrphanGraceHours)*time.Hour,
			logger)
		go janitor.Run(ctx)
	}

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting sop-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

// seedAdmin creates the initial administrator account. A duplicate email
// means a previous start already seeded it; anything else is logged and the
// server continues without it.
func seedAdmin(ctx context.Context, users services.UserService, admin config.AdminConfig, logger *zap.Logger) {
	_, err := users.Create(ctx, admin.Name, admin.Email, admin.Password, models.RoleAdmin)
	switch {
	case err == nil:
		logger.Info("admin account created", zap.String("email", admin.Email))
	case errors.Is(err, apperrors.ErrInvalidInput):
		logger.Debug("admin account already exists", zap.String("email", admin.Email))
	default:
		logger.Error("admin account bootstrap failed", zap.Error(err))
	}
}

// migrate applies pending schema migrations over a short-lived database/sql
// connection; the pgx pool is opened afterwards.
func migrate(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return database.RunMigrations(sqlDB, cfg.MigrationsPath, logger)
}
