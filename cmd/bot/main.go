package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/KirillAyvazov/BotShop/internal/api"
	"github.com/KirillAyvazov/BotShop/internal/cache"
	"github.com/KirillAyvazov/BotShop/internal/catalog"
	"github.com/KirillAyvazov/BotShop/internal/config"
	"github.com/KirillAyvazov/BotShop/internal/handler"
	"github.com/KirillAyvazov/BotShop/internal/orders"
	"github.com/KirillAyvazov/BotShop/internal/pool"
	"github.com/KirillAyvazov/BotShop/internal/repository/postgres"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting BotShop")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully")

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	logger.Info("Database migrations completed")

	// Initialize repositories
	stateRepo := postgres.NewUserStateRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)

	// Initialize backend client and catalog mirror
	apiClient := api.New(api.Config{
		UserURL:     cfg.API.User,
		OrderURL:    cfg.API.Order,
		ProductURL:  cfg.API.Product,
		CategoryURL: cfg.API.Category,
		Timeout:     cfg.APITimeout(),
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	productCache := cache.New(cache.CatalogTTL)
	productCache.StartJanitor(ctx)

	catalogPool := catalog.New(apiClient, productCache, cfg.CatalogUpdatePeriod(), logger)
	catalogPool.Update(ctx)

	// Initialize user pools
	shopperPool := pool.NewShopperPool(
		apiClient,
		stateRepo,
		notificationRepo,
		func(ctx context.Context, tgID int64) *orders.ShopperOrders {
			return orders.NewShopperOrders(ctx, apiClient, catalogPool, tgID, logger)
		},
		cfg.ShopperSessionTime(),
		logger,
	)
	sellerPool := pool.NewSellerPool(
		apiClient,
		stateRepo,
		func(ctx context.Context) *orders.SellerOrders {
			return orders.NewSellerOrders(ctx, apiClient, catalogPool, logger)
		},
		cfg.Seller.IDs,
		cfg.SellerSessionTime(),
		logger,
	)

	// Initialize Telegram bot
	teleBot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized")

	bot := handler.NewBot(teleBot, logger)
	shopperPool.AddBot(bot)
	sellerPool.AddBot(bot)

	// Initialize handler
	h := handler.NewHandler(
		bot,
		shopperPool,
		sellerPool,
		catalogPool,
		cfg.Bot.DisappearingMessages,
		cfg.Bot.MessageLimit,
		logger,
	)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	// Start background jobs
	go shopperPool.Run(ctx)
	go sellerPool.Run(ctx)
	go catalogPool.Run(ctx)

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()
	cancel()

	logger.Info("Bot stopped gracefully")
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		// Connection successful
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			logger.Info("No new migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations applied successfully")

	return nil
}
