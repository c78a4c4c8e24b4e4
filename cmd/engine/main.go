package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-paper-trader/internal/engine/calendar"
	"golang-paper-trader/internal/engine/config"
	delivery "golang-paper-trader/internal/engine/delivery/http"
	"golang-paper-trader/internal/engine/ledger"
	"golang-paper-trader/internal/engine/repository"
	"golang-paper-trader/internal/engine/service"
	"golang-paper-trader/pkg/logger"
	"golang-paper-trader/pkg/postgres"
	"golang-paper-trader/pkg/redis"
	"golang-paper-trader/pkg/telegram"
	"golang-paper-trader/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the paper trading engine",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Paper Trading Engine", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize the trading calendar
	loc := utils.MustLoadLocation(cfg.Market.Timezone)
	cal, err := calendar.New(loc, cfg.Market.OpenTime, cfg.Market.CloseTime)
	if err != nil {
		appLogger.Fatal("Invalid market hours", logger.ErrorField(err))
	}

	// Initialize repositories
	positionRepo := repository.NewPositionRepository(db.DB)
	tradeRepo := repository.NewTradeRepository(db.DB)
	snapshotRepo := repository.NewSnapshotRepository(db.DB)
	signalRepo := repository.NewSignalRepository(db.DB)
	configRepo := repository.NewEngineConfigRepository(db.DB)

	priceOracle, err := repository.NewYahooFinanceRepository(cfg.YahooFinance, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize price oracle", logger.ErrorField(err))
	}

	// Initialize the Telegram notifier
	notifier := telegram.NewNoopNotifier()
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize the core engine
	ldg := ledger.New(positionRepo, appLogger, decimal.NewFromFloat(cfg.Engine.InitialCashBalance))
	reloader := service.NewLimitsReloader(cfg.Risk, configRepo, appLogger)
	recorder := service.NewTradeRecorder(cfg.Engine, appLogger, tradeRepo, snapshotRepo, ldg, redisClient.Client, cfg.Redis.StreamMaxLen, notifier)
	evaluator := service.NewExitEvaluator(appLogger, cal, priceOracle, ldg, recorder, reloader.Current, nil)
	poller := service.NewSignalPoller(appLogger, cal, signalRepo, configRepo, priceOracle, ldg, recorder, reloader.Current, nil)

	engineSvc := service.NewEngineService(cfg, appLogger, cal, ldg, tradeRepo, evaluator, poller, reloader, recorder, stop)

	if err := engineSvc.Restore(ctx); err != nil {
		appLogger.Fatal("Failed to restore engine state", logger.ErrorField(err))
	}
	engineSvc.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	portfolioHandler := delivery.NewPortfolioHandler(ldg, tradeRepo, cal, appLogger)
	apiV1 := e.Group("/api/v1")
	portfolioHandler.RegisterRoutes(apiV1)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.StringField("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	// Wait for shutdown signal or fatal storage error
	<-ctx.Done()

	appLogger.Info("Shutting down engine...")
	engineSvc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", logger.ErrorField(err))
	}

	appLogger.Info("Engine stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "engine"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-engine.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing engine CLI: %s\n", err)
		os.Exit(1)
	}
}
