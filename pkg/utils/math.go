package utils

import "math"

// WeightedAveragePrice вычисляет средневзвешенную цену позиции
// после докупки: (oldQty*oldAvg + addQty*addPrice) / (oldQty + addQty).
//
// При нулевом суммарном объеме возвращает 0.
func WeightedAveragePrice(oldQty, oldAvg, addQty, addPrice float64) float64 {
	total := oldQty + addQty
	if total <= 0 {
		return 0
	}
	return (oldQty*oldAvg + addQty*addPrice) / total
}

// Round2 округляет значение до 2 знаков после запятой.
// Используется для денежных величин (P&L, цены в отчетах).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Abs возвращает модуль значения
func Abs(v float64) float64 {
	return math.Abs(v)
}

// ClampMin возвращает v, но не меньше min.
// Применяется для пола агрегатов, которые не должны уходить в минус.
func ClampMin(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}
