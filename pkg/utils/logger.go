package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig - настройки логирования
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json или text
	Output      string // путь к файлу; пусто = stderr
	Development bool   // человекочитаемый вывод для разработки
}

// Logger - структурированный logger на базе zap.
//
// Обертка добавляет:
// - sugar-вариант для форматированного логирования (Infof и т.д.)
// - доменные конструкторы полей (Symbol, PNL, TradeID...)
// - хелперы With* для создания дочерних логгеров с контекстом
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// InitLogger создает и настраивает logger.
//
// Никогда не возвращает nil: при ошибке открытия файла вывода
// происходит fallback на stderr, при неизвестном уровне - info.
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	var encCfg zapcore.EncoderConfig
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encCfg = zap.NewProductionEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)
	if cfg.Output != "" && cfg.Output != "stderr" {
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			sink = zapcore.AddSync(file)
		}
		// при ошибке открытия файла остаемся на stderr
	}

	core := zapcore.NewCore(encoder, sink, level)

	var opts []zap.Option
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	zl := zap.New(core, opts...)

	return &Logger{
		Logger: zl,
		sugar:  zl.Sugar(),
	}
}

// parseLevel преобразует строковый уровень в zapcore.Level.
// Неизвестные значения трактуются как info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ============================================================
// Глобальный logger
// ============================================================

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// GetGlobalLogger возвращает глобальный logger, создавая дефолтный при необходимости
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	if globalLogger != nil {
		defer globalMu.RUnlock()
		return globalLogger
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{Level: "info", Format: "json"})
	}
	return globalLogger
}

// L - короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// InitGlobalLogger создает logger по конфигурации и делает его глобальным
func InitGlobalLogger(cfg LogConfig) *Logger {
	logger := InitLogger(cfg)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger устанавливает глобальный logger
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// ============================================================
// Методы Logger
// ============================================================

// With возвращает дочерний logger с дополнительными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{
		Logger: child,
		sugar:  child.Sugar(),
	}
}

// WithComponent возвращает logger с полем component
func (l *Logger) WithComponent(component string) *Logger {
	return l.With(Component(component))
}

// WithSymbol возвращает logger с полем symbol
func (l *Logger) WithSymbol(symbol string) *Logger {
	return l.With(Symbol(symbol))
}

// WithTradeID возвращает logger с полем trade_id
func (l *Logger) WithTradeID(id int) *Logger {
	return l.With(TradeID(id))
}

// WithBotID возвращает logger с полем bot_id
func (l *Logger) WithBotID(id int) *Logger {
	return l.With(BotID(id))
}

// Sugar возвращает sugar-вариант логгера
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// ============================================================
// Глобальные функции логирования
// ============================================================

func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Logger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetGlobalLogger().Logger.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetGlobalLogger().Logger.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Logger.Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { GetGlobalLogger().Logger.Fatal(msg, fields...) }

func Debugf(format string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { GetGlobalLogger().sugar.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { GetGlobalLogger().sugar.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { GetGlobalLogger().sugar.Fatalf(format, args...) }

// fieldsToInterface преобразует zap поля в плоский список key/value
// для передачи в sugar-методы (Infow и т.п.)
func fieldsToInterface(fields []zap.Field) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, fieldValue(f))
	}
	return args
}

func fieldValue(f zap.Field) interface{} {
	if f.Interface != nil {
		return f.Interface
	}
	if f.Type == zapcore.StringType {
		return f.String
	}
	return f.Integer
}

// ============================================================
// Доменные конструкторы полей
// ============================================================

func Symbol(symbol string) zap.Field  { return zap.String("symbol", symbol) }
func Market(market string) zap.Field  { return zap.String("market", market) }
func TradeID(id int) zap.Field        { return zap.Int("trade_id", id) }
func BotID(id int) zap.Field          { return zap.Int("bot_id", id) }
func UserID(id int) zap.Field         { return zap.Int("user_id", id) }
func Price(price float64) zap.Field   { return zap.Float64("price", price) }
func Quantity(qty float64) zap.Field  { return zap.Float64("quantity", qty) }
func PNL(pnl float64) zap.Field       { return zap.Float64("pnl", pnl) }
func Side(side string) zap.Field      { return zap.String("side", side) }
func Status(status string) zap.Field  { return zap.String("status", status) }
func Latency(ms float64) zap.Field    { return zap.Float64("latency_ms", ms) }
func RequestID(id string) zap.Field   { return zap.String("request_id", id) }
func Component(name string) zap.Field { return zap.String("component", name) }

// Переэкспорт стандартных конструкторов, чтобы вызывающим
// не приходилось импортировать zap напрямую
var (
	String  = zap.String
	Int     = zap.Int
	Int64   = zap.Int64
	Float64 = zap.Float64
	Bool    = zap.Bool
	Err     = zap.Error
	Any     = zap.Any
	Dur     = zap.Duration
)
