package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"tradesettle/internal/models"
	"tradesettle/internal/service"

	"github.com/gorilla/mux"
)

// BotHandler отдает список торговых ботов с их статистикой.
//
// Endpoints:
// - GET /api/v1/bots      - все боты
// - GET /api/v1/bots/{id} - конкретный бот
type BotHandler struct {
	botService service.BotServiceInterface
}

// NewBotHandler создает новый BotHandler с внедрением зависимостей
func NewBotHandler(botService service.BotServiceInterface) *BotHandler {
	return &BotHandler{
		botService: botService,
	}
}

// GetBots возвращает всех ботов с агрегированной статистикой
// GET /api/v1/bots
//
// Response 200 OK:
//
//	[
//	  {"id": 1, "name": "Momentum", "strategy": "momentum", "is_active": true,
//	   "total_profit": 1250.50, "win_rate": 62.5, "total_trades": 48}
//	]
func (h *BotHandler) GetBots(w http.ResponseWriter, r *http.Request) {
	if h.botService == nil {
		respondError(w, http.StatusInternalServerError, "bot service not initialized", "")
		return
	}

	bots, err := h.botService.GetBots()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get bots", err.Error())
		return
	}

	// Пустой список отдаем как [], а не null
	if bots == nil {
		bots = []*models.Bot{}
	}
	respondJSON(w, http.StatusOK, bots)
}

// GetBot возвращает бота по ID
// GET /api/v1/bots/{id}
//
// Response:
// - 200 OK: бот
// - 400 Bad Request: некорректный ID
// - 404 Not Found: бот не существует
func (h *BotHandler) GetBot(w http.ResponseWriter, r *http.Request) {
	if h.botService == nil {
		respondError(w, http.StatusInternalServerError, "bot service not initialized", "")
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid bot id", "")
		return
	}

	bot, err := h.botService.GetBot(id)
	if err != nil {
		if errors.Is(err, service.ErrBotNotFound) {
			respondError(w, http.StatusNotFound, "bot not found", "")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get bot", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, bot)
}
