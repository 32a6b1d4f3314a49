package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	PriceFeed  PriceFeedConfig
	Settlement SettlementConfig
	Logging    LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

// PriceFeedConfig - настройки источника цен криптовалют
type PriceFeedConfig struct {
	BaseURL        string        // CoinGecko API (можно подменить в тестах)
	APIKey         string        // demo ключ, опционально
	RequestTimeout time.Duration // таймаут одного HTTP запроса
	RateLimit      float64       // запросов в секунду
	RateBurst      int
	MaxRetries     int
}

// SettlementConfig - настройки расчетного цикла
type SettlementConfig struct {
	// Interval - период автоматического запуска расчета.
	// 0 = только ручной запуск через API.
	Interval time.Duration

	// RunTimeout ограничивает длительность одного прохода (0 = без лимита)
	RunTimeout time.Duration

	// PriceFetchTimeout ограничивает получение цены для одной сделки
	PriceFetchTimeout time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			Name:         getEnv("DB_NAME", "tradesettle"),
			User:         getEnv("DB_USER", "user"),
			Password:     getEnv("DB_PASSWORD", "password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		PriceFeed: PriceFeedConfig{
			BaseURL:        getEnv("COINGECKO_BASE_URL", ""),
			APIKey:         getEnv("COINGECKO_API_KEY", ""),
			RequestTimeout: getEnvAsDuration("PRICE_REQUEST_TIMEOUT", 10*time.Second),
			RateLimit:      getEnvAsFloat("PRICE_RATE_LIMIT", 0.5),
			RateBurst:      getEnvAsInt("PRICE_RATE_BURST", 1),
			MaxRetries:     getEnvAsInt("PRICE_MAX_RETRIES", 3),
		},
		Settlement: SettlementConfig{
			Interval:          getEnvAsDuration("SETTLEMENT_INTERVAL", 0),
			RunTimeout:        getEnvAsDuration("SETTLEMENT_RUN_TIMEOUT", 5*time.Minute),
			PriceFetchTimeout: getEnvAsDuration("PRICE_FETCH_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	// Валидация портов
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	// Валидация retry параметров
	if c.PriceFeed.MaxRetries < 0 {
		return fmt.Errorf("PRICE_MAX_RETRIES cannot be negative, got %d", c.PriceFeed.MaxRetries)
	}

	if c.PriceFeed.MaxRetries > 10 {
		return fmt.Errorf("PRICE_MAX_RETRIES should not exceed 10, got %d", c.PriceFeed.MaxRetries)
	}

	if c.PriceFeed.RateLimit <= 0 {
		return fmt.Errorf("PRICE_RATE_LIMIT must be positive, got %v", c.PriceFeed.RateLimit)
	}

	// Валидация таймаутов
	if c.PriceFeed.RequestTimeout <= 0 {
		return fmt.Errorf("PRICE_REQUEST_TIMEOUT must be positive, got %v", c.PriceFeed.RequestTimeout)
	}

	if c.Settlement.PriceFetchTimeout <= 0 {
		return fmt.Errorf("PRICE_FETCH_TIMEOUT must be positive, got %v", c.Settlement.PriceFetchTimeout)
	}

	// Interval == 0 означает только ручной запуск
	if c.Settlement.Interval < 0 {
		return fmt.Errorf("SETTLEMENT_INTERVAL cannot be negative, got %v", c.Settlement.Interval)
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1, got %d", c.Database.MaxOpenConns)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
