package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики процесса расчета сделок
// ============================================================
//
// Использование:
// - Grafana дашборды (длительность запусков, размер бэклога)
// - Alertmanager (рост failed сделок, зависший бэклог)

// ============ Метрики запусков ============

// SettlementRunsTotal - количество запусков расчета по результату
var SettlementRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradesettle",
		Subsystem: "settlement",
		Name:      "runs_total",
		Help:      "Total number of settlement runs",
	},
	[]string{"result"}, // ok, error, busy
)

// SettlementRunDuration - длительность полного запуска расчета
var SettlementRunDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "tradesettle",
		Subsystem: "settlement",
		Name:      "run_duration_seconds",
		Help:      "Duration of a full settlement run in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	},
)

// ============ Счетчики сделок ============

// TradesSettled - успешно рассчитанные сделки
var TradesSettled = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tradesettle",
		Subsystem: "settlement",
		Name:      "trades_settled_total",
		Help:      "Total number of trades settled successfully",
	},
)

// TradesFailed - сделки, завершившиеся со статусом failed
var TradesFailed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tradesettle",
		Subsystem: "settlement",
		Name:      "trades_failed_total",
		Help:      "Total number of trades that failed to settle",
	},
)

// RealizedPnl - накопленный реализованный PNL в USD
var RealizedPnl = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tradesettle",
		Subsystem: "settlement",
		Name:      "realized_pnl_usd",
		Help:      "Cumulative realized PnL in USD across settlement runs",
	},
)

// PendingBacklog - размер очереди pending сделок на момент запуска
var PendingBacklog = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tradesettle",
		Subsystem: "settlement",
		Name:      "pending_backlog",
		Help:      "Number of pending trades observed at run start",
	},
)

// ============ Метрики источников цен ============

// PriceLookups - обращения к источникам цен по рынку и исходу
var PriceLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradesettle",
		Subsystem: "pricefeed",
		Name:      "lookups_total",
		Help:      "Price lookups by market and outcome",
	},
	[]string{"market", "outcome"}, // outcome: ok, missing, error, cached
)

// ============ Вспомогательные функции ============

// RecordRun записывает итог запуска расчета
func RecordRun(result string, durationSeconds float64) {
	SettlementRunsTotal.WithLabelValues(result).Inc()
	if result != "busy" {
		SettlementRunDuration.Observe(durationSeconds)
	}
}

// RecordSettledTrade записывает успешный расчет сделки
func RecordSettledTrade(pnl float64) {
	TradesSettled.Inc()
	RealizedPnl.Add(pnl)
}

// RecordPriceLookup записывает обращение к источнику цен
func RecordPriceLookup(market, outcome string) {
	PriceLookups.WithLabelValues(market, outcome).Inc()
}
