package models

import "time"

// SettledTrade - итог расчета одной сделки в рамках запуска
type SettledTrade struct {
	ID           int     `json:"id"`
	Symbol       string  `json:"symbol"`
	Type         string  `json:"type"` // buy, sell
	ProfitLoss   float64 `json:"profitLoss"`
	CurrentPrice float64 `json:"currentPrice"`
}

// SettlementSummary - сводка одного запуска расчета.
//
// Содержит счетчики рассчитанных и неудавшихся сделок, суммарный
// реализованный PNL и список рассчитанных сделок с их ценами.
// ID неудавшихся сделок перечисляются отдельно.
type SettlementSummary struct {
	Settled        int            `json:"settled"`
	Failed         int            `json:"failed,omitempty"`
	TotalPnL       float64        `json:"totalPnL,omitempty"`
	Trades         []SettledTrade `json:"trades,omitempty"`
	FailedTradeIDs []int          `json:"failedTrades,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	DurationMS     int64          `json:"duration_ms"`
}
