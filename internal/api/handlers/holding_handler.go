package handlers

import (
	"net/http"
	"strconv"

	"tradesettle/internal/models"
	"tradesettle/internal/service"
)

// HoldingHandler отдает позиции портфеля пользователя.
//
// Endpoints:
// - GET /api/v1/holdings?user_id={id} - позиции пользователя
type HoldingHandler struct {
	portfolioService service.PortfolioServiceInterface
}

// NewHoldingHandler создает новый HoldingHandler с внедрением зависимостей
func NewHoldingHandler(portfolioService service.PortfolioServiceInterface) *HoldingHandler {
	return &HoldingHandler{
		portfolioService: portfolioService,
	}
}

// GetHoldings возвращает все позиции пользователя
// GET /api/v1/holdings?user_id=1
//
// Response:
// - 200 OK: массив позиций (пустой, если позиций нет)
// - 400 Bad Request: user_id отсутствует или некорректен
func (h *HoldingHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	if h.portfolioService == nil {
		respondError(w, http.StatusInternalServerError, "portfolio service not initialized", "")
		return
	}

	userIDStr := r.URL.Query().Get("user_id")
	if userIDStr == "" {
		respondError(w, http.StatusBadRequest, "user_id is required", "")
		return
	}

	userID, err := strconv.Atoi(userIDStr)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid user_id", "")
		return
	}

	holdings, err := h.portfolioService.GetHoldings(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get holdings", err.Error())
		return
	}

	// Пустой список отдаем как [], а не null
	if holdings == nil {
		holdings = []*models.Holding{}
	}
	respondJSON(w, http.StatusOK, holdings)
}
