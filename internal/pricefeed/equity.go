package pricefeed

import (
	"context"
	"math/rand"
	"strings"
	"sync"
)

// DefaultBasePrices - стартовые цены симулятора фондового рынка
var DefaultBasePrices = map[string]float64{
	"AAPL":  190.0,
	"MSFT":  420.0,
	"GOOGL": 165.0,
	"AMZN":  180.0,
	"TSLA":  250.0,
	"NVDA":  880.0,
	"META":  500.0,
	"SPY":   520.0,
}

// EquityQuoter - симулятор котировок акций.
//
// Реального источника фондовых данных у системы нет: цена строится
// как случайное блуждание от последней известной базы с шагом ±1%.
// Полученная цена становится новой базой, поэтому последовательные
// запросы по одному тикеру дают связную траекторию, а не шум
// вокруг константы.
type EquityQuoter struct {
	mu     sync.Mutex
	base   map[string]float64
	rng    *rand.Rand
	jitter float64
}

// NewEquityQuoter создает симулятор с дефолтными базовыми ценами
func NewEquityQuoter() *EquityQuoter {
	return NewEquityQuoterWithSeed(DefaultBasePrices, rand.Int63())
}

// NewEquityQuoterWithSeed позволяет задать базу и seed (для тестов)
func NewEquityQuoterWithSeed(base map[string]float64, seed int64) *EquityQuoter {
	prices := make(map[string]float64, len(base))
	for sym, p := range base {
		prices[strings.ToUpper(sym)] = p
	}
	return &EquityQuoter{
		base:   prices,
		rng:    rand.New(rand.NewSource(seed)),
		jitter: 0.01,
	}
}

// Price возвращает симулированную цену тикера.
// Неизвестный тикер дает (0, nil): у симулятора нет базы для него.
func (q *EquityQuoter) Price(_ context.Context, symbol string) (float64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	sym := strings.ToUpper(symbol)
	base, ok := q.base[sym]
	if !ok || base <= 0 {
		return 0, nil
	}

	// шаг в диапазоне [-jitter, +jitter] от базы
	step := (q.rng.Float64()*2 - 1) * q.jitter
	price := base * (1 + step)
	q.base[sym] = price

	return price, nil
}
