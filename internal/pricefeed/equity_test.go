package pricefeed

import (
	"context"
	"errors"
	"math"
	"testing"

	"tradesettle/internal/models"
)

// ============================================================
// Тесты EquityQuoter
// ============================================================

func TestEquityQuoter_JitterBounds(t *testing.T) {
	q := NewEquityQuoterWithSeed(map[string]float64{"AAPL": 100}, 1)

	prev := 100.0
	for i := 0; i < 200; i++ {
		price, err := q.Price(context.Background(), "AAPL")
		if err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
		if price <= 0 {
			t.Fatalf("цена %v должна быть положительной", price)
		}
		// каждый шаг не дальше 1% от предыдущей цены
		if math.Abs(price-prev)/prev > 0.01+1e-9 {
			t.Fatalf("шаг %v -> %v превышает 1%%", prev, price)
		}
		prev = price
	}
}

func TestEquityQuoter_RandomWalkUpdatesBase(t *testing.T) {
	q := NewEquityQuoterWithSeed(map[string]float64{"TSLA": 250}, 42)

	p1, _ := q.Price(context.Background(), "TSLA")
	p2, _ := q.Price(context.Background(), "TSLA")

	// вторая цена строится от первой, а не от исходной базы
	if math.Abs(p2-p1)/p1 > 0.01+1e-9 {
		t.Errorf("второй шаг %v -> %v должен отталкиваться от новой базы", p1, p2)
	}
}

func TestEquityQuoter_UnknownSymbol(t *testing.T) {
	q := NewEquityQuoter()

	price, err := q.Price(context.Background(), "ZZZZ")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if price != 0 {
		t.Errorf("цена = %v, ожидался 0 для неизвестного тикера", price)
	}
}

func TestEquityQuoter_CaseInsensitive(t *testing.T) {
	q := NewEquityQuoterWithSeed(map[string]float64{"NVDA": 880}, 7)

	price, err := q.Price(context.Background(), "nvda")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if price <= 0 {
		t.Errorf("цена = %v, регистр тикера не должен влиять", price)
	}
}

// ============================================================
// Тесты Resolver
// ============================================================

type stubSource struct {
	price float64
	err   error
	calls int
}

func (s *stubSource) Price(_ context.Context, _ string) (float64, error) {
	s.calls++
	return s.price, s.err
}

func TestResolver_RoutesByMarket(t *testing.T) {
	crypto := &stubSource{price: 50000}
	equity := &stubSource{price: 190}
	r := NewResolver(crypto, equity)

	got, err := r.Price(context.Background(), "BTC", models.MarketCrypto)
	if err != nil || got != 50000 {
		t.Errorf("crypto: цена = %v, err = %v", got, err)
	}
	got, err = r.Price(context.Background(), "AAPL", models.MarketStock)
	if err != nil || got != 190 {
		t.Errorf("stock: цена = %v, err = %v", got, err)
	}
	if crypto.calls != 1 || equity.calls != 1 {
		t.Errorf("вызовы источников: crypto=%d equity=%d", crypto.calls, equity.calls)
	}
}

func TestResolver_UnknownMarket(t *testing.T) {
	r := NewResolver(&stubSource{}, &stubSource{})

	_, err := r.Price(context.Background(), "BTC", "forex")
	if !errors.Is(err, ErrUnknownMarket) {
		t.Errorf("ожидалась ErrUnknownMarket, получено: %v", err)
	}
}
