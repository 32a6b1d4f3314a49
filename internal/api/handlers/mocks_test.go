package handlers

import (
	"context"
	"errors"
	"sync"

	"tradesettle/internal/models"
	"tradesettle/internal/service"
)

// ErrMockDatabase имитирует ошибку уровня БД в моках
var ErrMockDatabase = errors.New("mock database error")

// ============ Mock Settlement Service ============

// MockSettlementService мок для SettlementServiceInterface
type MockSettlementService struct {
	summary    *models.SettlementSummary
	lastRun    *models.SettlementSummary
	pending    int
	runErr     error
	pendingErr error
	runCalls   int
	mu         sync.Mutex
}

// NewMockSettlementService создает новый мок сервиса расчета
func NewMockSettlementService() *MockSettlementService {
	return &MockSettlementService{
		summary: &models.SettlementSummary{},
	}
}

func (m *MockSettlementService) Run(ctx context.Context) (*models.SettlementSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runCalls++
	if m.runErr != nil {
		return nil, m.runErr
	}
	m.lastRun = m.summary
	return m.summary, nil
}

func (m *MockSettlementService) LastRun() *models.SettlementSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRun
}

func (m *MockSettlementService) PendingCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pendingErr != nil {
		return 0, m.pendingErr
	}
	return m.pending, nil
}

// SetSummary задает сводку, которую вернет следующий Run
func (m *MockSettlementService) SetSummary(s *models.SettlementSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = s
}

// SetLastRun задает сводку последнего прохода
func (m *MockSettlementService) SetLastRun(s *models.SettlementSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRun = s
}

// SetPending задает размер бэклога
func (m *MockSettlementService) SetPending(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = n
}

// SetRunError задает ошибку для Run
func (m *MockSettlementService) SetRunError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runErr = err
}

// SetPendingError задает ошибку для PendingCount
func (m *MockSettlementService) SetPendingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingErr = err
}

// ============ Mock Trade Service ============

// MockTradeService мок для TradeServiceInterface.
// Хранит сделки в памяти и повторяет валидацию реального сервиса.
type MockTradeService struct {
	trades    []*models.Trade
	placeErr  error
	listErr   error
	getErr    error
	nextID    int
	lastLimit int
	mu        sync.Mutex
}

// NewMockTradeService создает новый мок сервиса сделок
func NewMockTradeService() *MockTradeService {
	return &MockTradeService{nextID: 1}
}

func (m *MockTradeService) PlaceTrade(trade *models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.placeErr != nil {
		return m.placeErr
	}
	if err := trade.Validate(); err != nil {
		return err
	}

	trade.ID = m.nextID
	trade.Status = models.TradeStatusPending
	m.nextID++
	m.trades = append(m.trades, trade)
	return nil
}

func (m *MockTradeService) ListTrades(status string, limit int) ([]*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}

	var result []*models.Trade
	for _, t := range m.trades {
		if status == "" || t.Status == status {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockTradeService) GetTrade(id int) (*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, t := range m.trades {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, service.ErrTradeNotFound
}

// AddTrade добавляет сделку напрямую, минуя валидацию
func (m *MockTradeService) AddTrade(t *models.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, t)
}

// SetListError задает ошибку для ListTrades
func (m *MockTradeService) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// LastLimit возвращает limit последнего вызова ListTrades
func (m *MockTradeService) LastLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLimit
}

// ============ Mock Portfolio Service ============

// MockPortfolioService мок для PortfolioServiceInterface
type MockPortfolioService struct {
	holdings map[int][]*models.Holding
	getErr   error
	mu       sync.RWMutex
}

// NewMockPortfolioService создает новый мок сервиса портфеля
func NewMockPortfolioService() *MockPortfolioService {
	return &MockPortfolioService{
		holdings: make(map[int][]*models.Holding),
	}
}

func (m *MockPortfolioService) GetHoldings(userID int) ([]*models.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.holdings[userID], nil
}

// SetHoldings задает позиции пользователя
func (m *MockPortfolioService) SetHoldings(userID int, hs []*models.Holding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdings[userID] = hs
}

// SetError задает ошибку для GetHoldings
func (m *MockPortfolioService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// ============ Mock Bot Service ============

// MockBotService мок для BotServiceInterface
type MockBotService struct {
	bots   []*models.Bot
	getErr error
	mu     sync.RWMutex
}

// NewMockBotService создает новый мок сервиса ботов
func NewMockBotService() *MockBotService {
	return &MockBotService{}
}

func (m *MockBotService) GetBots() ([]*models.Bot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.bots, nil
}

func (m *MockBotService) GetBot(id int) (*models.Bot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, b := range m.bots {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, service.ErrBotNotFound
}

// SetBots задает список ботов
func (m *MockBotService) SetBots(bots []*models.Bot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bots = bots
}

// SetError задает ошибку для GetBots и GetBot
func (m *MockBotService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// ============ Mock Trade Broadcaster ============

// MockBroadcaster записывает разосланные события о сделках
type MockBroadcaster struct {
	trades []*models.Trade
	mu     sync.Mutex
}

func (m *MockBroadcaster) BroadcastTradePlaced(trade *models.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, trade)
}

// Broadcasts возвращает все разосланные сделки
func (m *MockBroadcaster) Broadcasts() []*models.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trades
}

// Проверяем, что моки реализуют интерфейсы сервисов
var _ service.SettlementServiceInterface = (*MockSettlementService)(nil)
var _ service.TradeServiceInterface = (*MockTradeService)(nil)
var _ service.PortfolioServiceInterface = (*MockPortfolioService)(nil)
var _ service.BotServiceInterface = (*MockBotService)(nil)
var _ TradeBroadcaster = (*MockBroadcaster)(nil)
