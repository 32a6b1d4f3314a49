package api

import (
	"net/http"

	"tradesettle/internal/api/handlers"
	"tradesettle/internal/api/middleware"
	"tradesettle/internal/service"
	"tradesettle/internal/websocket"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	SettlementService service.SettlementServiceInterface
	TradeService      service.TradeServiceInterface
	PortfolioService  service.PortfolioServiceInterface
	BotService        service.BotServiceInterface
	Hub               *websocket.Hub
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /settlement/
//	│   ├── /run (любой метод) - запустить проход расчета pending сделок
//	│   └── GET /status        - бэклог и сводка последнего прохода
//	├── /trades/
//	│   ├── GET /     - список сделок (?status=&limit=)
//	│   ├── POST /    - разместить сделку
//	│   └── GET /{id} - получить сделку
//	├── /holdings/
//	│   └── GET / - позиции пользователя (?user_id=)
//	└── /bots/
//	    ├── GET /     - список ботов
//	    └── GET /{id} - получить бота
//
// /ws/
//
//	└── /stream - WebSocket для real-time обновлений
//
// /metrics - Prometheus метрики
// /health  - проверка живости
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var settlementHandler *handlers.SettlementHandler
	if deps != nil && deps.SettlementService != nil {
		settlementHandler = handlers.NewSettlementHandler(deps.SettlementService)
	}

	var tradeHandler *handlers.TradeHandler
	if deps != nil && deps.TradeService != nil {
		var broadcaster handlers.TradeBroadcaster
		if deps.Hub != nil {
			broadcaster = deps.Hub
		}
		tradeHandler = handlers.NewTradeHandler(deps.TradeService, broadcaster)
	}

	var holdingHandler *handlers.HoldingHandler
	if deps != nil && deps.PortfolioService != nil {
		holdingHandler = handlers.NewHoldingHandler(deps.PortfolioService)
	}

	var botHandler *handlers.BotHandler
	if deps != nil && deps.BotService != nil {
		botHandler = handlers.NewBotHandler(deps.BotService)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Settlement routes.
	// /run регистрируется без ограничения метода: дашборд дергает его
	// и GET'ом, и POST'ом, а preflight OPTIONS закрывает CORS middleware.
	if settlementHandler != nil {
		api.HandleFunc("/settlement/run", settlementHandler.RunSettlement)
		api.HandleFunc("/settlement/status", settlementHandler.GetStatus).Methods("GET")
	}

	// Trade routes
	if tradeHandler != nil {
		api.HandleFunc("/trades", tradeHandler.GetTrades).Methods("GET")
		api.HandleFunc("/trades", tradeHandler.CreateTrade).Methods("POST")
		api.HandleFunc("/trades/{id}", tradeHandler.GetTrade).Methods("GET")
	}

	// Holding routes
	if holdingHandler != nil {
		api.HandleFunc("/holdings", holdingHandler.GetHoldings).Methods("GET")
	}

	// Bot routes
	if botHandler != nil {
		api.HandleFunc("/bots", botHandler.GetBots).Methods("GET")
		api.HandleFunc("/bots/{id}", botHandler.GetBot).Methods("GET")
	}

	// WebSocket route
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
