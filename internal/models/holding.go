package models

import "time"

// Holding представляет агрегированную позицию пользователя по одному символу.
//
// Инварианты:
// - quantity всегда > 0: позиция с нулевым количеством удаляется из таблицы
// - avg_price - средневзвешенная цена входа, пересчитывается при каждой докупке
// - уникальность по паре (user_id, symbol)
type Holding struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Quantity  float64   `json:"quantity" db:"quantity"`
	AvgPrice  float64   `json:"avg_price" db:"avg_price"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
