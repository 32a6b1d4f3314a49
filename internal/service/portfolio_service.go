package service

import (
	"tradesettle/internal/models"
	"tradesettle/internal/repository"
)

// PortfolioService отдает позиции пользователей для дашборда
type PortfolioService struct {
	holdingRepo *repository.HoldingRepository
}

// NewPortfolioService создает новый экземпляр PortfolioService
func NewPortfolioService(holdingRepo *repository.HoldingRepository) *PortfolioService {
	return &PortfolioService{holdingRepo: holdingRepo}
}

// GetHoldings возвращает позиции пользователя, отсортированные по символу
func (s *PortfolioService) GetHoldings(userID int) ([]*models.Holding, error) {
	return s.holdingRepo.GetByUser(userID)
}
