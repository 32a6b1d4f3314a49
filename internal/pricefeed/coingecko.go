package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"tradesettle/pkg/retry"
	"tradesettle/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// DefaultSymbolIDMap - соответствие тикеров идентификаторам CoinGecko.
// Тикеры, которых здесь нет, пробуются как strings.ToLower(symbol).
var DefaultSymbolIDMap = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
}

// CoinGeckoConfig - настройки клиента CoinGecko
type CoinGeckoConfig struct {
	BaseURL        string
	APIKey         string        // пустой = публичный API
	RequestTimeout time.Duration // таймаут одного HTTP запроса
	RateLimit      float64       // запросов в секунду
	RateBurst      int
	MaxRetries     int
}

// CoinGeckoClient - клиент публичного API CoinGecko для спотовых цен.
//
// Бесплатный тариф ограничен ~30 запросами в минуту, поэтому клиент
// несет собственный rate limiter и ждет в нем перед каждым запросом.
type CoinGeckoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	symbolIDs  map[string]string
	maxRetries int
	log        *utils.Logger
}

// NewCoinGeckoClient создает клиент с разумными значениями по умолчанию
func NewCoinGeckoClient(cfg CoinGeckoConfig, log *utils.Logger) *CoinGeckoClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCoinGeckoBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 0.5 // 30 запросов в минуту
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if log == nil {
		log = utils.L()
	}

	return &CoinGeckoClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		symbolIDs:  DefaultSymbolIDMap,
		maxRetries: cfg.MaxRetries,
		log:        log.WithComponent("coingecko"),
	}
}

// coinID преобразует тикер в идентификатор CoinGecko
func (c *CoinGeckoClient) coinID(symbol string) string {
	if id, ok := c.symbolIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// Price возвращает текущую цену тикера в USD.
// Неизвестный для CoinGecko тикер дает (0, nil), а не ошибку.
func (c *CoinGeckoClient) Price(ctx context.Context, symbol string) (float64, error) {
	id := c.coinID(symbol)

	cfg := retry.NetworkConfig()
	cfg.MaxRetries = c.maxRetries
	cfg.RetryIf = retry.RetryIfNotPermanent
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.log.Warn("повтор запроса цены",
			utils.Symbol(symbol),
			utils.Int("attempt", attempt),
			utils.Dur("delay", delay),
			utils.Err(err),
		)
	}

	return retry.DoWithResult(ctx, func() (float64, error) {
		return c.simplePrice(ctx, id)
	}, cfg)
}

// simplePrice выполняет GET /simple/price?ids={id}&vs_currencies=usd
func (c *CoinGeckoClient) simplePrice(ctx context.Context, id string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	endpoint := c.baseURL + "/simple/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("coingecko: build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("coingecko: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("coingecko: unexpected status %d", resp.StatusCode)
		// клиентские ошибки кроме 429 повтором не лечатся
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return 0, retry.Permanent(err)
		}
		return 0, err
	}

	var payload map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("coingecko: decode response: %w", err)
	}

	entry, ok := payload[id]
	if !ok {
		// CoinGecko возвращает 200 с пустым объектом для неизвестных id
		return 0, nil
	}
	return entry.USD, nil
}
