package analyzer

import (
	"math"
	"time"

	"FundingSentinel/internal/model"
)

// VolatilityIndex computes the standard deviation of log returns scaled
// by sqrt(barsPerDay), tying the reading to the series granularity.
func VolatilityIndex(series model.Series, barsPerDay float64) (float64, error) {
	if len(series) < 2 {
		return 0, ErrInsufficientData
	}
	closes := series.Closes()
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return 0, ErrDataType
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	var sd float64
	if len(returns) > 1 {
		sd = math.Sqrt(ss / float64(len(returns)-1))
	}
	return sd * math.Sqrt(barsPerDay), nil
}

// Variation returns the percent change from the first close to the last.
func Variation(series model.Series) (float64, error) {
	if len(series) == 0 {
		return 0, ErrInsufficientData
	}
	first := series.First().Close
	if first == 0 {
		return 0, ErrDataType
	}
	return (series.Last().Close - first) / first * 100, nil
}

// VolatilityFromHigh returns the percent change from the highest high of
// the series to the last close: how far the price fell from the peak.
func VolatilityFromHigh(series model.Series) (float64, error) {
	if len(series) == 0 {
		return 0, ErrInsufficientData
	}
	high := series.HighestHigh()
	if high == 0 {
		return 0, ErrDataType
	}
	return (series.Last().Close - high) / high * 100, nil
}

// LastVolatility measures the percent price move around the period-th
// most recent funding settlement: from the open of the first candle
// inside [funding-1min, funding+10min] down to the lowest low of that
// window. fundingTimes must be ordered newest first; period 1 is the
// most recent settlement.
func LastVolatility(series model.Series, fundingTimes []time.Time, period int) (float64, error) {
	if period < 1 || period > len(fundingTimes) {
		return 0, ErrInsufficientData
	}
	if len(series) == 0 {
		return 0, ErrInsufficientData
	}

	funding := fundingTimes[period-1]
	window := series.Between(funding.Add(-time.Minute), funding.Add(10*time.Minute))
	if len(window) == 0 {
		return 0, ErrInsufficientData
	}

	start := window.First().Open
	if start == 0 {
		return 0, ErrDataType
	}
	low := window[0].Low
	for _, c := range window {
		if c.Low < low {
			low = c.Low
		}
	}
	return (low - start) / start * 100, nil
}
