package service

import (
	"tradesettle/internal/models"
	"tradesettle/internal/repository"
)

// ErrBotNotFound возвращается, когда бот с указанным ID не существует
var ErrBotNotFound = repository.ErrBotNotFound

// BotService отдает список ботов с их агрегированной статистикой
type BotService struct {
	botRepo *repository.BotRepository
}

// NewBotService создает новый экземпляр BotService
func NewBotService(botRepo *repository.BotRepository) *BotService {
	return &BotService{botRepo: botRepo}
}

// GetBots возвращает всех ботов
func (s *BotService) GetBots() ([]*models.Bot, error) {
	return s.botRepo.GetAll()
}

// GetBot возвращает бота по ID
func (s *BotService) GetBot(id int) (*models.Bot, error) {
	return s.botRepo.GetByID(id)
}
