package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*CoinGeckoClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewCoinGeckoClient(CoinGeckoConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
		RateLimit:      1000, // в тестах лимитер не должен тормозить
		RateBurst:      1000,
		MaxRetries:     1,
	}, nil)
	return client, srv
}

// ============================================================
// Тесты Price
// ============================================================

func TestCoinGeckoClient_Price(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":50123.45}}`))
	})

	price, err := client.Price(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if price != 50123.45 {
		t.Errorf("цена = %v, ожидалось 50123.45", price)
	}
	if gotPath != "/simple/price" {
		t.Errorf("путь запроса = %q, ожидался /simple/price", gotPath)
	}
	if gotQuery != "ids=bitcoin&vs_currencies=usd" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestCoinGeckoClient_UnknownSymbolFallsBackToLowercase(t *testing.T) {
	var gotIDs string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("ids")
		_, _ = w.Write([]byte(`{"pepe":{"usd":0.0000012}}`))
	})

	price, err := client.Price(context.Background(), "PEPE")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if gotIDs != "pepe" {
		t.Errorf("ids = %q, ожидался lowercase тикер", gotIDs)
	}
	if price != 0.0000012 {
		t.Errorf("цена = %v", price)
	}
}

func TestCoinGeckoClient_EmptyResponseMeansNoPrice(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	price, err := client.Price(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if price != 0 {
		t.Errorf("цена = %v, ожидался 0 для неизвестного id", price)
	}
}

func TestCoinGeckoClient_ServerErrorRetriesThenFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewCoinGeckoClient(CoinGeckoConfig{
		BaseURL:    srv.URL,
		RateLimit:  1000,
		RateBurst:  1000,
		MaxRetries: 2,
	}, nil)
	// укорачиваем задержки retry, чтобы тест был быстрым
	client.maxRetries = 2

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Price(ctx, "BTC")
	if err == nil {
		t.Fatal("ожидалась ошибка после исчерпания попыток")
	}
	if calls != 2 {
		t.Errorf("сервер вызван %d раз, ожидалось 2", calls)
	}
}

func TestCoinGeckoClient_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	})
	client.maxRetries = 3

	_, err := client.Price(context.Background(), "BTC")
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if calls != 1 {
		t.Errorf("сервер вызван %d раз, 4xx не должна повторяться", calls)
	}
}

func TestCoinGeckoClient_APIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-cg-demo-api-key")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":1}}`))
	}))
	defer srv.Close()

	client := NewCoinGeckoClient(CoinGeckoConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		RateLimit: 1000,
		RateBurst: 1000,
	}, nil)

	if _, err := client.Price(context.Background(), "BTC"); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("заголовок API ключа = %q", gotKey)
	}
}

func TestCoinGeckoClient_ContextTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":1}}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Price(ctx, "BTC")
	if err == nil {
		t.Fatal("ожидалась ошибка таймаута")
	}
}

// ============================================================
// Тесты coinID
// ============================================================

func TestCoinID(t *testing.T) {
	client := NewCoinGeckoClient(CoinGeckoConfig{}, nil)

	tests := []struct {
		symbol   string
		expected string
	}{
		{"BTC", "bitcoin"},
		{"btc", "bitcoin"},
		{"ETH", "ethereum"},
		{"AVAX", "avalanche-2"},
		{"MATIC", "matic-network"},
		{"SHIB", "shib"}, // нет в карте - lowercase fallback
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			if got := client.coinID(tt.symbol); got != tt.expected {
				t.Errorf("coinID(%q) = %q, ожидалось %q", tt.symbol, got, tt.expected)
			}
		})
	}
}
