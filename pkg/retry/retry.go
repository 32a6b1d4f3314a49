package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config описывает политику повторных попыток.
//
// Экспоненциальный backoff с jitter:
// delay = min(InitialDelay * Multiplier^attempt, MaxDelay) ± jitter
//
// Jitter разносит повторы по времени, чтобы клиенты
// не били по внешнему API синхронно после сбоя.
type Config struct {
	// MaxRetries - общее число попыток, включая первую.
	// 0 или меньше = повторять пока контекст жив.
	MaxRetries int

	// InitialDelay - задержка перед второй попыткой.
	// По умолчанию 100ms.
	InitialDelay time.Duration

	// MaxDelay - потолок задержки. По умолчанию 30s.
	MaxDelay time.Duration

	// Multiplier - рост задержки между попытками. По умолчанию 2.0.
	Multiplier float64

	// JitterFactor - доля случайного отклонения задержки (0..1).
	// По умолчанию 0.1.
	JitterFactor float64

	// RetryIf решает, имеет ли смысл повторять после данной ошибки.
	// nil = повторять любую ошибку.
	RetryIf func(error) bool

	// OnRetry вызывается перед каждым повтором. Удобно для логирования.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig - политика для обычных HTTP запросов:
// 4 попытки, задержки 100ms/200ms/400ms с jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   4,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NetworkConfig - политика для нестабильных внешних API
// (котировки, rate-limited источники): 4 попытки, 1s/2s/4s.
func NetworkConfig() Config {
	return Config{
		MaxRetries:   4,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.2,
	}
}

// validate подставляет значения по умолчанию вместо некорректных
func (c *Config) validate() {
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	}
	if c.JitterFactor > 1 {
		c.JitterFactor = 1
	}
}

// calculateDelay вычисляет задержку перед попыткой attempt+1
func (c *Config) calculateDelay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))

	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.JitterFactor > 0 {
		jitter := delay * c.JitterFactor * (rand.Float64()*2 - 1)
		delay += jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// Do выполняет операцию с повторными попытками по политике cfg.
//
// Возвращает nil при первом успехе, иначе последнюю ошибку.
// Отмена контекста прерывает ожидание между попытками.
//
// Пример:
//
//	err := retry.Do(ctx, func() error {
//	    price, err = feed.Price(ctx, "BTC")
//	    return err
//	}, retry.NetworkConfig())
func Do(ctx context.Context, operation func() error, cfg Config) error {
	cfg.validate()

	var lastErr error

	for attempt := 0; cfg.MaxRetries <= 0 || attempt < cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return lastErr
			}
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return err
		}

		// после последней попытки не ждем
		if cfg.MaxRetries > 0 && attempt >= cfg.MaxRetries-1 {
			break
		}

		delay := cfg.calculateDelay(attempt)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return lastErr
		}
	}

	return lastErr
}

// DoWithResult - вариант Do для операций, возвращающих значение:
//
//	quote, err := retry.DoWithResult(ctx, func() (float64, error) {
//	    return client.SimplePrice(ctx, "bitcoin")
//	}, retry.NetworkConfig())
func DoWithResult[T any](ctx context.Context, operation func() (T, error), cfg Config) (T, error) {
	var result T
	err := Do(ctx, func() error {
		var opErr error
		result, opErr = operation()
		return opErr
	}, cfg)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// RetryIfNotContext запрещает повтор после отмены или таймаута контекста
func RetryIfNotContext(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// PermanentError помечает ошибку как не подлежащую повтору
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent оборачивает ошибку в PermanentError.
// В паре с RetryIfNotPermanent останавливает retry на ошибках,
// которые повтором не лечатся (неизвестный символ, 4xx от API).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// RetryIfNotPermanent запрещает повтор для PermanentError и ошибок контекста
func RetryIfNotPermanent(err error) bool {
	var perm *PermanentError
	if errors.As(err, &perm) {
		return false
	}
	return RetryIfNotContext(err)
}
