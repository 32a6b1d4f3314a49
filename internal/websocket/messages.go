package websocket

import (
	"time"

	"tradesettle/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeSettlementUpdate - итог запуска расчета
	// Отправляется после каждого запуска, затронувшего хотя бы одну сделку
	MessageTypeSettlementUpdate MessageType = "settlementUpdate"

	// MessageTypeTradePlaced - новая сделка добавлена в журнал
	MessageTypeTradePlaced MessageType = "tradePlaced"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// SettlementUpdateMessage - сообщение с итогами запуска расчета.
//
// Позволяет дашборду обновлять список сделок, портфель и статистику
// ботов сразу после расчета, без polling.
type SettlementUpdateMessage struct {
	BaseMessage
	Data *models.SettlementSummary `json:"data"`
}

// TradePlacedMessage - сообщение о новой pending сделке
type TradePlacedMessage struct {
	BaseMessage
	Data *models.Trade `json:"data"`
}

// ============ Фабричные функции для создания сообщений ============

// NewSettlementUpdateMessage создает сообщение с итогами расчета
func NewSettlementUpdateMessage(summary *models.SettlementSummary) *SettlementUpdateMessage {
	return &SettlementUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeSettlementUpdate,
			Timestamp: time.Now(),
		},
		Data: summary,
	}
}

// NewTradePlacedMessage создает сообщение о новой сделке
func NewTradePlacedMessage(trade *models.Trade) *TradePlacedMessage {
	return &TradePlacedMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeTradePlaced,
			Timestamp: time.Now(),
		},
		Data: trade,
	}
}
