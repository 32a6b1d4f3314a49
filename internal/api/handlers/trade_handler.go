package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"tradesettle/internal/models"
	"tradesettle/internal/service"

	"github.com/gorilla/mux"
)

// TradeHandler отвечает за журнал сделок.
//
// Endpoints:
// - POST /api/v1/trades      - разместить новую сделку (попадает в pending)
// - GET  /api/v1/trades      - список сделок с фильтром по статусу
// - GET  /api/v1/trades/{id} - получить конкретную сделку
type TradeHandler struct {
	tradeService service.TradeServiceInterface
	broadcaster  TradeBroadcaster
}

// TradeBroadcaster рассылает событие о новой сделке WebSocket клиентам
type TradeBroadcaster interface {
	BroadcastTradePlaced(trade *models.Trade)
}

// NewTradeHandler создает новый TradeHandler с внедрением зависимостей.
// broadcaster может быть nil - тогда события не рассылаются.
func NewTradeHandler(tradeService service.TradeServiceInterface, broadcaster TradeBroadcaster) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
		broadcaster:  broadcaster,
	}
}

// CreateTradeRequest структура запроса на размещение сделки
type CreateTradeRequest struct {
	UserID     int     `json:"user_id"`
	BotID      *int    `json:"bot_id,omitempty"` // nil = ручная сделка
	Symbol     string  `json:"symbol"`           // BTC, AAPL
	Market     string  `json:"market"`           // crypto, stock
	Side       string  `json:"side"`             // buy, sell
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
}

// CreateTrade размещает новую сделку в журнале
// POST /api/v1/trades
//
// Request Body:
//
//	{
//	  "user_id": 1,
//	  "bot_id": 3,
//	  "symbol": "BTC",
//	  "market": "crypto",
//	  "side": "buy",
//	  "quantity": 0.5,
//	  "entry_price": 64200.0
//	}
//
// Response:
// - 201 Created: сделка записана со статусом pending
// - 400 Bad Request: невалидное тело или параметры
func (h *TradeHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	if h.tradeService == nil {
		respondError(w, http.StatusInternalServerError, "trade service not initialized", "")
		return
	}

	var req CreateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}

	trade := &models.Trade{
		UserID:     req.UserID,
		BotID:      req.BotID,
		Symbol:     req.Symbol,
		Market:     req.Market,
		Side:       req.Side,
		Quantity:   req.Quantity,
		EntryPrice: req.EntryPrice,
	}

	if err := h.tradeService.PlaceTrade(trade); err != nil {
		if isValidationError(err) {
			respondError(w, http.StatusBadRequest, "invalid trade", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to place trade", err.Error())
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastTradePlaced(trade)
	}

	respondJSON(w, http.StatusCreated, trade)
}

// GetTrades возвращает список сделок
// GET /api/v1/trades
//
// Query Parameters:
// - status: фильтр по статусу (pending, processing, completed, failed)
// - limit: количество сделок (по умолчанию 50, максимум 200)
//
// Response:
// - 200 OK: массив сделок, новые первыми (pending - старые первыми)
// - 400 Bad Request: неизвестный статус
func (h *TradeHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	if h.tradeService == nil {
		respondError(w, http.StatusInternalServerError, "trade service not initialized", "")
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !validTradeStatuses[status] {
		respondError(w, http.StatusBadRequest, "invalid status",
			"valid statuses: pending, processing, completed, failed")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	trades, err := h.tradeService.ListTrades(status, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get trades", err.Error())
		return
	}

	// Пустой список отдаем как [], а не null
	if trades == nil {
		trades = []*models.Trade{}
	}
	respondJSON(w, http.StatusOK, trades)
}

// GetTrade возвращает сделку по ID
// GET /api/v1/trades/{id}
//
// Response:
// - 200 OK: сделка
// - 400 Bad Request: некорректный ID
// - 404 Not Found: сделка не существует
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	if h.tradeService == nil {
		respondError(w, http.StatusInternalServerError, "trade service not initialized", "")
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid trade id", "")
		return
	}

	trade, err := h.tradeService.GetTrade(id)
	if err != nil {
		if errors.Is(err, service.ErrTradeNotFound) {
			respondError(w, http.StatusNotFound, "trade not found", "")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get trade", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, trade)
}

var validTradeStatuses = map[string]bool{
	models.TradeStatusPending:    true,
	models.TradeStatusProcessing: true,
	models.TradeStatusCompleted:  true,
	models.TradeStatusFailed:     true,
}

// isValidationError отличает ошибки валидации параметров сделки от ошибок БД
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		models.ErrInvalidUserID,
		models.ErrEmptySymbol,
		models.ErrInvalidMarket,
		models.ErrInvalidSide,
		models.ErrInvalidQuantity,
		models.ErrInvalidPrice,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
