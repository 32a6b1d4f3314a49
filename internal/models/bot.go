package models

import "time"

// Bot представляет торгового бота с агрегированной статистикой.
//
// Агрегаты (total_profit, win_rate, total_trades) обновляются инкрементально
// при расчете каждой сделки, привязанной к боту.
// win_rate хранится в процентах (0-100) и всегда пересчитывается из
// согласованной пары (wins, total_trades).
type Bot struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Strategy    string    `json:"strategy" db:"strategy"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	TotalProfit float64   `json:"total_profit" db:"total_profit"`
	WinRate     float64   `json:"win_rate" db:"win_rate"` // процент прибыльных сделок
	TotalTrades int       `json:"total_trades" db:"total_trades"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
