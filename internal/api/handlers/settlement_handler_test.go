package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradesettle/internal/models"
	"tradesettle/internal/service"
)

// ============ SettlementHandler Tests ============

func TestSettlementHandler_RunSettlement(t *testing.T) {
	t.Run("returns summary after settling trades", func(t *testing.T) {
		mockSvc := NewMockSettlementService()
		handler := NewSettlementHandler(mockSvc)

		mockSvc.SetSummary(&models.SettlementSummary{
			Settled:  2,
			Failed:   1,
			TotalPnL: 150.25,
			Trades: []models.SettledTrade{
				{ID: 7, Symbol: "BTC", Type: "buy", ProfitLoss: 120.50, CurrentPrice: 67100.0},
				{ID: 8, Symbol: "ETH", Type: "sell", ProfitLoss: 29.75, CurrentPrice: 3150.0},
			},
			FailedTradeIDs: []int{9},
			StartedAt:      time.Now().UTC(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/settlement/run", nil)
		w := httptest.NewRecorder()

		handler.RunSettlement(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response RunSettlementResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response.Message != "settlement complete" {
			t.Errorf("expected message 'settlement complete', got %q", response.Message)
		}
		if response.Settled != 2 {
			t.Errorf("expected Settled 2, got %d", response.Settled)
		}
		if response.Failed != 1 {
			t.Errorf("expected Failed 1, got %d", response.Failed)
		}
		if response.TotalPnL != 150.25 {
			t.Errorf("expected TotalPnL 150.25, got %f", response.TotalPnL)
		}
		if len(response.Trades) != 2 {
			t.Errorf("expected 2 settled trades, got %d", len(response.Trades))
		}
		if len(response.FailedTradeIDs) != 1 || response.FailedTradeIDs[0] != 9 {
			t.Errorf("expected failed trade IDs [9], got %v", response.FailedTradeIDs)
		}
	})

	t.Run("reports empty backlog", func(t *testing.T) {
		mockSvc := NewMockSettlementService()
		handler := NewSettlementHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/settlement/run", nil)
		w := httptest.NewRecorder()

		handler.RunSettlement(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response RunSettlementResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Message != "no pending trades" {
			t.Errorf("expected message 'no pending trades', got %q", response.Message)
		}
	})

	t.Run("returns 409 when run already in progress", func(t *testing.T) {
		mockSvc := NewMockSettlementService()
		handler := NewSettlementHandler(mockSvc)

		mockSvc.SetRunError(service.ErrRunInProgress)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/settlement/run", nil)
		w := httptest.NewRecorder()

		handler.RunSettlement(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})

	t.Run("returns 500 on service error", func(t *testing.T) {
		mockSvc := NewMockSettlementService()
		handler := NewSettlementHandler(mockSvc)

		mockSvc.SetRunError(ErrMockDatabase)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/settlement/run", nil)
		w := httptest.NewRecorder()

		handler.RunSettlement(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var response ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Error != "settlement run failed" {
			t.Errorf("unexpected error message: %q", response.Error)
		}
	})

	t.Run("returns 500 when service is nil", func(t *testing.T) {
		handler := &SettlementHandler{settlementService: nil}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/settlement/run", nil)
		w := httptest.NewRecorder()

		handler.RunSettlement(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestSettlementHandler_GetStatus(t *testing.T) {
	t.Run("returns backlog and last run", func(t *testing.T) {
		mockSvc := NewMockSettlementService()
		handler := NewSettlementHandler(mockSvc)

		mockSvc.SetPending(3)
		mockSvc.SetLastRun(&models.SettlementSummary{Settled: 5, TotalPnL: 42.10})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settlement/status", nil)
		w := httptest.NewRecorder()

		handler.GetStatus(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response SettlementStatusResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Pending != 3 {
			t.Errorf("expected 3 pending, got %d", response.Pending)
		}
		if response.LastRun == nil || response.LastRun.Settled != 5 {
			t.Errorf("expected last run with 5 settled, got %+v", response.LastRun)
		}
	})

	t.Run("omits last run before first pass", func(t *testing.T) {
		mockSvc := NewMockSettlementService()
		handler := NewSettlementHandler(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settlement/status", nil)
		w := httptest.NewRecorder()

		handler.GetStatus(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response SettlementStatusResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.LastRun != nil {
			t.Errorf("expected no last run, got %+v", response.LastRun)
		}
	})

	t.Run("returns 500 on count error", func(t *testing.T) {
		mockSvc := NewMockSettlementService()
		handler := NewSettlementHandler(mockSvc)

		mockSvc.SetPendingError(ErrMockDatabase)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/settlement/status", nil)
		w := httptest.NewRecorder()

		handler.GetStatus(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}
