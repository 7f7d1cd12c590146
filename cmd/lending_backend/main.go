package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stablelend/micro_lending_app/internal/adapters/chain"
	"github.com/stablelend/micro_lending_app/internal/adapters/database/pgsql"
	"github.com/stablelend/micro_lending_app/internal/adapters/ratesource"
	portsrepo "github.com/stablelend/micro_lending_app/internal/core/ports/repositories"
	"github.com/stablelend/micro_lending_app/internal/core/services"
	"github.com/stablelend/micro_lending_app/internal/handlers"
	"github.com/stablelend/micro_lending_app/internal/middleware"
	"github.com/stablelend/micro_lending_app/internal/scheduler"
	"github.com/stablelend/micro_lending_app/pkg/config"
	"github.com/stablelend/micro_lending_app/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, cors)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.PartnerKeyHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Outbound adapters
	contract := chain.NewGatewayClient(cfg.ChainGatewayURL, cfg.ChainGatewayAPIKey, cfg.ChainGatewayTimeout)
	source := ratesource.NewHTTPRateSource(cfg.RateSourceURL, cfg.RateSourceTimeout)

	// Repositories and services
	repos := &portsrepo.RepositoryProvider{
		ExchangeRateRepo: pgsql.NewExchangeRateRepository(dbPool),
		LoanRepo:         pgsql.NewLoanRepository(dbPool),
		UserRepo:         pgsql.NewUserRepository(dbPool),
	}
	serviceContainer := services.NewContainer(repos, contract, source, cfg.LoanTermDays, services.CollateralConfig{
		BaseCurrencyCode:  cfg.CollateralCurrency,
		QuoteCurrencyCode: cfg.LoanCurrency,
		LTVRatio:          cfg.LTVRatio,
		MaxRateAge:        cfg.RateMaxAge,
		CollateralScale:   cfg.CollateralScale,
		LoanScale:         cfg.LoanScale,
	})

	// Background rate refresh keeps admission decisions supplied with a
	// fresh quote.
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	refresher := scheduler.NewRateRefresher(
		serviceContainer.RateFeed, cfg.CollateralCurrency, cfg.LoanCurrency, cfg.RateRefreshInterval, logger)
	refresher.Start(refreshCtx)

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations over a temporary
// database/sql connection using the pgx stdlib driver.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		logger.Error("Migration source error", slog.String("error", sourceErr.Error()))
		return sourceErr
	}
	if dbErr != nil {
		logger.Error("Migration database error", slog.String("error", dbErr.Error()))
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
