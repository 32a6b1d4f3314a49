package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradesettle/internal/api"
	"tradesettle/internal/config"
	"tradesettle/internal/pricefeed"
	"tradesettle/internal/repository"
	"tradesettle/internal/scheduler"
	"tradesettle/internal/service"
	"tradesettle/internal/websocket"
	"tradesettle/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	logger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", utils.Err(err))
	}
	defer db.Close()

	logger.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	tradeRepo := repository.NewTradeRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	botRepo := repository.NewBotRepository(db)

	// Источники цен: CoinGecko для crypto, симулятор котировок для stock
	coinGecko := pricefeed.NewCoinGeckoClient(pricefeed.CoinGeckoConfig{
		BaseURL:        cfg.PriceFeed.BaseURL,
		APIKey:         cfg.PriceFeed.APIKey,
		RequestTimeout: cfg.PriceFeed.RequestTimeout,
		RateLimit:      cfg.PriceFeed.RateLimit,
		RateBurst:      cfg.PriceFeed.RateBurst,
		MaxRetries:     cfg.PriceFeed.MaxRetries,
	}, logger)
	equityQuoter := pricefeed.NewEquityQuoter()
	priceResolver := pricefeed.NewResolver(coinGecko, equityQuoter)

	// Инициализация WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Инициализация сервисов
	settlementService := service.NewSettlementService(
		db,
		tradeRepo,
		holdingRepo,
		botRepo,
		priceResolver,
		cfg.Settlement.PriceFetchTimeout,
	)
	settlementService.SetWebSocketHub(hub)

	tradeService := service.NewTradeService(tradeRepo)
	portfolioService := service.NewPortfolioService(holdingRepo)
	botService := service.NewBotService(botRepo)

	// Периодический расчет (Interval=0 - только ручной запуск через API)
	var sched *scheduler.Scheduler
	if cfg.Settlement.Interval > 0 {
		sched = scheduler.New(settlementService, cfg.Settlement.Interval, cfg.Settlement.RunTimeout)
		go sched.Start(context.Background())
	}

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		SettlementService: settlementService,
		TradeService:      tradeService,
		PortfolioService:  portfolioService,
		BotService:        botService,
		Hub:               hub,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", utils.Err(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	if sched != nil {
		sched.Stop()
	}
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", utils.Err(err))
	}

	logger.Info("server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
