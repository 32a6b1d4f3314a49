package handlers

import (
	"errors"
	"net/http"

	"tradesettle/internal/models"
	"tradesettle/internal/service"
)

// SettlementHandler обрабатывает HTTP запросы расчета сделок.
//
// Endpoints:
// - POST /api/v1/settlement/run    - запустить проход расчета pending сделок
// - GET  /api/v1/settlement/status - бэклог и сводка последнего прохода
type SettlementHandler struct {
	settlementService service.SettlementServiceInterface
}

// NewSettlementHandler создает новый SettlementHandler с внедрением зависимостей
func NewSettlementHandler(settlementService service.SettlementServiceInterface) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// RunSettlementResponse ответ на запуск расчета: message плюс сводка прохода
type RunSettlementResponse struct {
	Message string `json:"message"`
	*models.SettlementSummary
}

// SettlementStatusResponse текущее состояние расчетного цикла
type SettlementStatusResponse struct {
	Pending int                       `json:"pending"`
	LastRun *models.SettlementSummary `json:"last_run,omitempty"`
}

// RunSettlement запускает один проход расчета всех pending сделок.
//
// /api/v1/settlement/run (метод не ограничен)
//
// Response 200 OK (пустой бэклог):
//
//	{"message": "no pending trades", "settled": 0, ...}
//
// Response 200 OK (сделки рассчитаны):
//
//	{
//	  "message": "settlement complete",
//	  "settled": 2,
//	  "failed": 1,
//	  "totalPnL": 150.25,
//	  "trades": [
//	    {"id": 7, "symbol": "BTC", "type": "buy", "profitLoss": 120.5, "currentPrice": 67100.0}
//	  ],
//	  "failedTrades": [9]
//	}
//
// Response 409 Conflict: другой проход еще выполняется
//
// Response 500 Internal Server Error:
//
//	{"error": "settlement run failed", "details": "..."}
func (h *SettlementHandler) RunSettlement(w http.ResponseWriter, r *http.Request) {
	// Проверяем, что сервис инициализирован
	if h.settlementService == nil {
		respondError(w, http.StatusInternalServerError, "settlement service not initialized", "")
		return
	}

	summary, err := h.settlementService.Run(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			respondError(w, http.StatusConflict, "settlement run already in progress", "")
			return
		}
		respondError(w, http.StatusInternalServerError, "settlement run failed", err.Error())
		return
	}

	resp := RunSettlementResponse{
		Message:           "settlement complete",
		SettlementSummary: summary,
	}
	if summary.Settled == 0 && summary.Failed == 0 {
		resp.Message = "no pending trades"
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetStatus возвращает размер бэклога и сводку последнего прохода.
//
// GET /api/v1/settlement/status
//
// Response 200 OK:
//
//	{
//	  "pending": 3,
//	  "last_run": {"settled": 5, "totalPnL": 42.10, "started_at": "...", "duration_ms": 812}
//	}
//
// last_run отсутствует, если с момента старта не было ни одного прохода.
func (h *SettlementHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if h.settlementService == nil {
		respondError(w, http.StatusInternalServerError, "settlement service not initialized", "")
		return
	}

	pending, err := h.settlementService.PendingCount()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count pending trades", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, SettlementStatusResponse{
		Pending: pending,
		LastRun: h.settlementService.LastRun(),
	})
}
