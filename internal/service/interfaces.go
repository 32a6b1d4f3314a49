package service

import (
	"context"

	"tradesettle/internal/models"
	"tradesettle/internal/pricefeed"
)

// ============ Интерфейсы сервисов для Dependency Injection ============
//
// Обработчики HTTP зависят от этих интерфейсов, а не от конкретных
// типов - это позволяет подменять сервисы моками в тестах.

// SettlementServiceInterface определяет интерфейс сервиса расчета
type SettlementServiceInterface interface {
	Run(ctx context.Context) (*models.SettlementSummary, error)
	LastRun() *models.SettlementSummary
	PendingCount() (int, error)
}

// TradeServiceInterface определяет интерфейс сервиса сделок
type TradeServiceInterface interface {
	PlaceTrade(trade *models.Trade) error
	ListTrades(status string, limit int) ([]*models.Trade, error)
	GetTrade(id int) (*models.Trade, error)
}

// PortfolioServiceInterface определяет интерфейс сервиса портфеля
type PortfolioServiceInterface interface {
	GetHoldings(userID int) ([]*models.Holding, error)
}

// BotServiceInterface определяет интерфейс сервиса ботов
type BotServiceInterface interface {
	GetBots() ([]*models.Bot, error)
	GetBot(id int) (*models.Bot, error)
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ SettlementServiceInterface = (*SettlementService)(nil)
var _ TradeServiceInterface = (*TradeService)(nil)
var _ PortfolioServiceInterface = (*PortfolioService)(nil)
var _ BotServiceInterface = (*BotService)(nil)

// Resolver из pricefeed удовлетворяет контракту источника цен
var _ PriceResolver = (*pricefeed.Resolver)(nil)
