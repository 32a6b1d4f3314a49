package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"tradesettle/internal/models"
	"tradesettle/internal/repository"
	"tradesettle/pkg/utils"
)

// ErrRunInProgress возвращается, если расчет уже выполняется.
// Процесс однопоточный: параллельный запуск не запускает второй
// проход, а сразу сообщает о занятости.
var ErrRunInProgress = errors.New("settlement run already in progress")

// SettlementBroadcaster - интерфейс для отправки итогов расчета через WebSocket
type SettlementBroadcaster interface {
	BroadcastSettlementUpdate(summary *models.SettlementSummary)
}

// PriceResolver - источник текущих цен по символу и рынку
type PriceResolver interface {
	Price(ctx context.Context, symbol, market string) (float64, error)
}

// SettlementService выполняет расчет накопившихся pending сделок.
//
// Один запуск:
// 1. Забирает pending сделки в порядке создания (старые первыми)
// 2. Для каждой: переводит pending -> processing условным UPDATE,
//    получает текущую цену, считает PNL
// 3. В одной транзакции фиксирует сделку, обновляет статистику
//    бота и позицию пользователя
// 4. Сбой одной сделки не прерывает остальные: сделка помечается
//    failed, ее ID попадает в сводку
//
// Цены кешируются на время запуска: десять сделок по BTC дают
// один запрос к источнику, и все десять рассчитываются по одной цене.
type SettlementService struct {
	db       *sql.DB
	trades   *repository.TradeRepository
	holdings *repository.HoldingRepository
	bots     *repository.BotRepository
	prices   PriceResolver
	wsHub    SettlementBroadcaster
	log      *utils.Logger

	// таймаут одного обращения за ценой
	priceFetchTimeout time.Duration

	// runMu гарантирует не более одного запуска одновременно
	runMu sync.Mutex

	lastMu  sync.RWMutex
	lastRun *models.SettlementSummary
}

// NewSettlementService создает новый экземпляр SettlementService
func NewSettlementService(
	db *sql.DB,
	trades *repository.TradeRepository,
	holdings *repository.HoldingRepository,
	bots *repository.BotRepository,
	prices PriceResolver,
	priceFetchTimeout time.Duration,
) *SettlementService {
	if priceFetchTimeout <= 0 {
		priceFetchTimeout = 10 * time.Second
	}
	return &SettlementService{
		db:                db,
		trades:            trades,
		holdings:          holdings,
		bots:              bots,
		prices:            prices,
		priceFetchTimeout: priceFetchTimeout,
		log:               utils.L().WithComponent("settlement"),
	}
}

// SetWebSocketHub устанавливает WebSocket hub для broadcast итогов.
//
// Вызывается после инициализации Hub в main.go:
//
//	settlementService := service.NewSettlementService(...)
//	settlementService.SetWebSocketHub(wsHub)
func (s *SettlementService) SetWebSocketHub(hub SettlementBroadcaster) {
	s.wsHub = hub
}

// LastRun возвращает сводку последнего завершенного запуска (nil, если
// запусков еще не было)
func (s *SettlementService) LastRun() *models.SettlementSummary {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.lastRun
}

// PendingCount возвращает текущий размер очереди pending сделок
func (s *SettlementService) PendingCount() (int, error) {
	return s.trades.CountByStatus(models.TradeStatusPending)
}

// Run выполняет один проход расчета.
//
// Возвращает ErrRunInProgress, если другой проход еще не завершен.
// Ошибка возвращается только при невозможности получить список
// pending сделок; сбои отдельных сделок отражаются в сводке.
func (s *SettlementService) Run(ctx context.Context) (*models.SettlementSummary, error) {
	if !s.runMu.TryLock() {
		SettlementRunsTotal.WithLabelValues("busy").Inc()
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	start := time.Now()

	pending, err := s.trades.GetPending()
	if err != nil {
		RecordRun("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("list pending trades: %w", err)
	}

	PendingBacklog.Set(float64(len(pending)))
	s.log.Info("запуск расчета", utils.Int("pending", len(pending)))

	summary := &models.SettlementSummary{
		StartedAt: start.UTC(),
	}
	priceCache := make(map[string]float64)

	for _, trade := range pending {
		// отмена контекста останавливает проход; оставшиеся
		// сделки сохраняют статус pending до следующего запуска
		if ctx.Err() != nil {
			s.log.Warn("проход прерван контекстом", utils.Int("remaining", len(pending)-summary.Settled-summary.Failed))
			break
		}

		if err := s.trades.Claim(trade.ID); err != nil {
			if errors.Is(err, repository.ErrTradeAlreadyClaimed) {
				// сделку забрал параллельный процесс
				s.log.Debug("сделка уже в обработке", utils.TradeID(trade.ID))
				continue
			}
			s.log.Error("не удалось захватить сделку", utils.TradeID(trade.ID), utils.Err(err))
			summary.Failed++
			summary.FailedTradeIDs = append(summary.FailedTradeIDs, trade.ID)
			continue
		}

		price, err := s.resolvePrice(ctx, priceCache, trade)
		if err != nil {
			s.failTrade(summary, trade, fmt.Sprintf("price fetch failed: %v", err))
			continue
		}
		if price <= 0 {
			s.failTrade(summary, trade, "price unavailable")
			continue
		}

		pnl := utils.Round2(profitLoss(trade, price))

		if err := s.settleTrade(trade, price, pnl); err != nil {
			s.log.Error("ошибка фиксации сделки",
				utils.TradeID(trade.ID),
				utils.Symbol(trade.Symbol),
				utils.Err(err),
			)
			s.failTrade(summary, trade, fmt.Sprintf("settle failed: %v", err))
			continue
		}

		summary.Settled++
		summary.TotalPnL = utils.Round2(summary.TotalPnL + pnl)
		summary.Trades = append(summary.Trades, models.SettledTrade{
			ID:           trade.ID,
			Symbol:       trade.Symbol,
			Type:         trade.Side,
			ProfitLoss:   pnl,
			CurrentPrice: price,
		})
		RecordSettledTrade(pnl)

		s.log.Info("сделка рассчитана",
			utils.TradeID(trade.ID),
			utils.Symbol(trade.Symbol),
			utils.Side(trade.Side),
			utils.Price(price),
			utils.PNL(pnl),
		)
	}

	summary.DurationMS = time.Since(start).Milliseconds()
	RecordRun("ok", time.Since(start).Seconds())

	s.lastMu.Lock()
	s.lastRun = summary
	s.lastMu.Unlock()

	if s.wsHub != nil && (summary.Settled > 0 || summary.Failed > 0) {
		s.wsHub.BroadcastSettlementUpdate(summary)
	}

	s.log.Info("расчет завершен",
		utils.Int("settled", summary.Settled),
		utils.Int("failed", summary.Failed),
		utils.PNL(summary.TotalPnL),
		utils.Int64("duration_ms", summary.DurationMS),
	)

	return summary, nil
}

// profitLoss считает реализованный PNL сделки по текущей цене.
// Покупка зарабатывает на росте, продажа - на падении.
func profitLoss(trade *models.Trade, currentPrice float64) float64 {
	if trade.IsBuy() {
		return (currentPrice - trade.EntryPrice) * trade.Quantity
	}
	return (trade.EntryPrice - currentPrice) * trade.Quantity
}

// resolvePrice возвращает цену инструмента, используя кеш запуска.
// Каждое живое обращение к источнику ограничено priceFetchTimeout.
func (s *SettlementService) resolvePrice(ctx context.Context, cache map[string]float64, trade *models.Trade) (float64, error) {
	key := trade.Market + "/" + strings.ToUpper(trade.Symbol)
	if price, ok := cache[key]; ok {
		RecordPriceLookup(trade.Market, "cached")
		return price, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.priceFetchTimeout)
	defer cancel()

	price, err := s.prices.Price(fetchCtx, trade.Symbol, trade.Market)
	if err != nil {
		RecordPriceLookup(trade.Market, "error")
		return 0, err
	}
	if price <= 0 {
		RecordPriceLookup(trade.Market, "missing")
		// отрицательный результат тоже кешируем: повторные сделки
		// по тому же символу не должны дергать источник заново
		cache[key] = 0
		return 0, nil
	}

	RecordPriceLookup(trade.Market, "ok")
	cache[key] = price
	return price, nil
}

// failTrade помечает сделку failed и отражает ее в сводке
func (s *SettlementService) failTrade(summary *models.SettlementSummary, trade *models.Trade, reason string) {
	if err := s.trades.MarkFailed(trade.ID, reason); err != nil {
		s.log.Error("не удалось пометить сделку failed",
			utils.TradeID(trade.ID),
			utils.Err(err),
		)
	}
	summary.Failed++
	summary.FailedTradeIDs = append(summary.FailedTradeIDs, trade.ID)
	TradesFailed.Inc()

	s.log.Warn("сделка не рассчитана",
		utils.TradeID(trade.ID),
		utils.Symbol(trade.Symbol),
		utils.String("reason", reason),
	)
}

// settleTrade фиксирует результат сделки в одной транзакции:
// статус + PNL, статистика бота, позиция пользователя.
// Любая ошибка откатывает все три изменения.
func (s *SettlementService) settleTrade(trade *models.Trade, price, pnl float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := s.trades.WithTx(tx).MarkCompleted(trade.ID, pnl, price, time.Now().UTC()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("mark completed: %w", err)
	}

	if trade.BotID != nil {
		if err := s.applyBotStats(tx, *trade.BotID, pnl); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update bot stats: %w", err)
		}
	}

	if err := s.applyHolding(tx, trade); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update holding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// applyBotStats обновляет агрегаты бота после рассчитанной сделки.
//
// win_rate хранится в процентах, число побед восстанавливается из
// пары (win_rate, total_trades) и пересчитывается с учетом новой
// сделки. Сделка с pnl == 0 не считается победой.
func (s *SettlementService) applyBotStats(tx *sql.Tx, botID int, pnl float64) error {
	bots := s.bots.WithTx(tx)

	bot, err := bots.GetByIDForUpdate(botID)
	if errors.Is(err, repository.ErrBotNotFound) {
		// сделка ссылается на удаленного бота - статистику не ведем
		s.log.Warn("бот не найден, статистика пропущена", utils.BotID(botID))
		return nil
	}
	if err != nil {
		return err
	}

	wins := int(math.Round(bot.WinRate / 100 * float64(bot.TotalTrades)))
	if pnl > 0 {
		wins++
	}
	newTotal := bot.TotalTrades + 1
	winRate := float64(wins) / float64(newTotal) * 100

	return bots.UpdateStats(bot.ID, utils.Round2(bot.TotalProfit+pnl), winRate, newTotal)
}

// applyHolding обновляет позицию пользователя после сделки.
//
// Покупка: слияние со средневзвешенной ценой или новая позиция.
// Продажа: уменьшение количества; позиция, проданная целиком
// (или больше), удаляется - остаток в минус не уходит.
// Продажа без позиции - no-op.
func (s *SettlementService) applyHolding(tx *sql.Tx, trade *models.Trade) error {
	holdings := s.holdings.WithTx(tx)

	holding, err := holdings.GetByUserAndSymbolForUpdate(trade.UserID, trade.Symbol)
	switch {
	case err == nil:
		if trade.IsBuy() {
			newQty := holding.Quantity + trade.Quantity
			newAvg := utils.WeightedAveragePrice(holding.Quantity, holding.AvgPrice, trade.Quantity, trade.EntryPrice)
			return holdings.UpdatePosition(holding.ID, newQty, newAvg)
		}
		remaining := holding.Quantity - trade.Quantity
		if remaining <= 1e-9 {
			return holdings.Delete(holding.ID)
		}
		return holdings.UpdatePosition(holding.ID, remaining, holding.AvgPrice)

	case errors.Is(err, repository.ErrHoldingNotFound):
		if trade.IsBuy() {
			return holdings.Create(&models.Holding{
				UserID:   trade.UserID,
				Symbol:   trade.Symbol,
				Quantity: trade.Quantity,
				AvgPrice: trade.EntryPrice,
			})
		}
		// продажа без позиции: уменьшать нечего
		return nil

	default:
		return err
	}
}
