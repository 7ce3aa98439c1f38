package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/yakmate-inc/yakmate-engine/pkg/audit"
	"github.com/yakmate-inc/yakmate-engine/pkg/auth"
	"github.com/yakmate-inc/yakmate-engine/pkg/config"
	"github.com/yakmate-inc/yakmate-engine/pkg/database"
	"github.com/yakmate-inc/yakmate-engine/pkg/handlers"
	"github.com/yakmate-inc/yakmate-engine/pkg/logging"
	"github.com/yakmate-inc/yakmate-engine/pkg/middleware"
	"github.com/yakmate-inc/yakmate-engine/pkg/repositories"
	"github.com/yakmate-inc/yakmate-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

// expirySweepInterval is how often the listing TTL sweep runs.
const expirySweepInterval = 1 * time.Hour

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("database_host", cfg.Database.Host),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.Bool("redis_enabled", cfg.Redis.Host != ""))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Migrations run through database/sql; the request path uses pgx pools.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.String("error", logging.SanitizeError(err)))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		// Connection errors can echo the DSN; never log it raw.
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, violation counter cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	tenantMiddleware := handlers.TenantMiddleware(database.WithTenantContext(db, logger))

	auditor := audit.NewSecurityAuditor(logger)
	notifier := services.NewLoggingNotifier(logger)

	listingRepo := repositories.NewListingRepository()
	profileRepo := repositories.NewProfileRepository()
	interestRepo := repositories.NewInterestRepository()
	matchRepo := repositories.NewMatchRepository()
	messageRepo := repositories.NewMessageRepository()
	detectionRepo := repositories.NewDetectionRepository()
	grantRepo := repositories.NewGrantRepository()

	listingTTL := time.Duration(cfg.Matching.ListingTTLDays) * 24 * time.Hour
	listingService := services.NewListingService(listingRepo, grantRepo, matchRepo, listingTTL, logger)
	profileService := services.NewProfileService(profileRepo, matchRepo, logger)
	detectionService := services.NewContactDetectionService(detectionRepo, redisClient, auditor, notifier, logger)
	matchService := services.NewMatchService(matchRepo, interestRepo, listingRepo, profileRepo, notifier, logger)
	messageService := services.NewMessageService(messageRepo, matchRepo, listingRepo, profileRepo, detectionService, notifier, logger)
	recommendationService := services.NewRecommendationService(listingRepo, profileRepo,
		cfg.Matching.RecommendationFloor, cfg.Matching.RecommendationLimit, logger)

	screen := handlers.NewInjectionScreen(auditor, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewListingsHandler(listingService, screen, logger).RegisterRoutes(mux, authMiddleware, tenantMiddleware)
	handlers.NewProfilesHandler(profileService, screen, logger).RegisterRoutes(mux, authMiddleware, tenantMiddleware)
	handlers.NewMatchesHandler(matchService, screen, logger).RegisterRoutes(mux, authMiddleware, tenantMiddleware)
	handlers.NewMessagesHandler(messageService, detectionService, logger).RegisterRoutes(mux, authMiddleware, tenantMiddleware)
	handlers.NewRecommendationsHandler(recommendationService, logger).RegisterRoutes(mux, authMiddleware, tenantMiddleware)

	go runExpirySweep(ctx, db, listingService, logger)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting yakmate-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// runExpirySweep periodically flips listings past their TTL to EXPIRED.
// Runs without tenant scoping so every tenant's stale listings age out.
func runExpirySweep(ctx context.Context, db *database.DB, listingService services.ListingService, logger *zap.Logger) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	sweep := func() {
		scope, err := db.WithoutTenant(ctx)
		if err != nil {
			logger.Error("Expiry sweep could not acquire connection", zap.Error(err))
			return
		}
		defer scope.Close()

		sweepCtx := database.SetTenantScope(ctx, scope)
		if _, err := listingService.ExpireStaleListings(sweepCtx); err != nil {
			logger.Error("Expiry sweep failed", zap.Error(err))
		}
	}

	sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
