package pricefeed

import (
	"context"
	"errors"
	"fmt"

	"tradesettle/internal/models"
)

// ErrUnknownMarket возвращается для рынка, у которого нет источника цен
var ErrUnknownMarket = errors.New("unknown market")

// Source - источник текущих цен для одного рынка.
//
// Контракт: (0, nil) означает "цена недоступна для этого символа" -
// вызывающий решает, что делать с такой сделкой. Ошибка означает
// сбой самого источника (сеть, лимиты, таймаут).
type Source interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// Resolver маршрутизирует запрос цены по рынку инструмента
type Resolver struct {
	crypto Source
	equity Source
}

// NewResolver создает Resolver с источниками для crypto и stock рынков
func NewResolver(crypto, equity Source) *Resolver {
	return &Resolver{
		crypto: crypto,
		equity: equity,
	}
}

// Price возвращает текущую цену инструмента на указанном рынке
func (r *Resolver) Price(ctx context.Context, symbol, market string) (float64, error) {
	switch market {
	case models.MarketCrypto:
		return r.crypto.Price(ctx, symbol)
	case models.MarketStock:
		return r.equity.Price(ctx, symbol)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMarket, market)
	}
}
