package service

import (
	"strings"

	"tradesettle/internal/models"
	"tradesettle/internal/repository"
)

// ErrTradeNotFound возвращается, когда сделка с указанным ID не существует
var ErrTradeNotFound = repository.ErrTradeNotFound

// TradeService предоставляет операции над журналом сделок:
// размещение новых и выборка для дашборда.
type TradeService struct {
	tradeRepo *repository.TradeRepository
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(tradeRepo *repository.TradeRepository) *TradeService {
	return &TradeService{tradeRepo: tradeRepo}
}

// PlaceTrade валидирует и записывает новую сделку со статусом pending.
// Символ нормализуется к верхнему регистру.
func (s *TradeService) PlaceTrade(trade *models.Trade) error {
	trade.Symbol = strings.ToUpper(strings.TrimSpace(trade.Symbol))
	trade.Side = strings.ToLower(trade.Side)
	trade.Market = strings.ToLower(trade.Market)

	if err := trade.Validate(); err != nil {
		return err
	}
	return s.tradeRepo.Create(trade)
}

// ListTrades возвращает сделки для дашборда.
//
// status: пустой = последние сделки всех статусов.
// limit: по умолчанию 50, максимум 200.
func (s *TradeService) ListTrades(status string, limit int) ([]*models.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	if status == "" {
		return s.tradeRepo.GetRecent(limit)
	}
	return s.tradeRepo.GetByStatus(status, limit)
}

// GetTrade возвращает сделку по ID
func (s *TradeService) GetTrade(id int) (*models.Trade, error) {
	return s.tradeRepo.GetByID(id)
}
