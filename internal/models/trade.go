package models

import (
	"errors"
	"time"
)

// Trade представляет сделку в журнале trades.
//
// Журнал append-only: сделка создается при размещении со статусом pending,
// статус и profit_loss устанавливаются ровно один раз при расчете.
// Записи никогда не удаляются.
type Trade struct {
	ID           int        `json:"id" db:"id"`
	UserID       int        `json:"user_id" db:"user_id"`
	BotID        *int       `json:"bot_id,omitempty" db:"bot_id"` // nil = ручная сделка
	Symbol       string     `json:"symbol" db:"symbol"`
	Market       string     `json:"market" db:"market"` // crypto, stock
	Side         string     `json:"side" db:"side"`     // buy, sell
	Quantity     float64    `json:"quantity" db:"quantity"`
	EntryPrice   float64    `json:"entry_price" db:"entry_price"`
	Status       string     `json:"status" db:"status"` // pending, processing, completed, failed
	ProfitLoss   *float64   `json:"profit_loss,omitempty" db:"profit_loss"`
	SettlePrice  *float64   `json:"settle_price,omitempty" db:"settle_price"` // цена, по которой сделка была рассчитана
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	SettledAt    *time.Time `json:"settled_at,omitempty" db:"settled_at"`
}

// Статусы сделки
const (
	TradeStatusPending    = "pending"
	TradeStatusProcessing = "processing" // захвачена текущим запуском расчета
	TradeStatusCompleted  = "completed"
	TradeStatusFailed     = "failed"
)

// Направления сделки
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// Рынки
const (
	MarketCrypto = "crypto"
	MarketStock  = "stock"
)

// Ошибки валидации сделки
var (
	ErrEmptySymbol     = errors.New("symbol cannot be empty")
	ErrInvalidMarket   = errors.New("market must be crypto or stock")
	ErrInvalidSide     = errors.New("side must be buy or sell")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("entry price must be positive")
	ErrInvalidUserID   = errors.New("user id must be positive")
)

// IsBuy возвращает true для сделок на покупку
func (t *Trade) IsBuy() bool {
	return t.Side == TradeSideBuy
}

// IsSettled возвращает true если сделка уже рассчитана (completed или failed)
func (t *Trade) IsSettled() bool {
	return t.Status == TradeStatusCompleted || t.Status == TradeStatusFailed
}

// Validate проверяет поля новой сделки перед записью в журнал
func (t *Trade) Validate() error {
	if t.UserID <= 0 {
		return ErrInvalidUserID
	}
	if t.Symbol == "" {
		return ErrEmptySymbol
	}
	if t.Market != MarketCrypto && t.Market != MarketStock {
		return ErrInvalidMarket
	}
	if t.Side != TradeSideBuy && t.Side != TradeSideSell {
		return ErrInvalidSide
	}
	if t.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if t.EntryPrice <= 0 {
		return ErrInvalidPrice
	}
	return nil
}
