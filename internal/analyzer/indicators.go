package analyzer

import (
	"math"

	"FundingSentinel/internal/model"
)

// ComputeIndicators computes the standard indicator columns for a series:
// SMA(20), Wilder RSI(14), MACD(12,26,9) and Bollinger bands (20, 2σ).
// Positions without enough history hold NaN. The series itself is not
// modified.
func ComputeIndicators(series model.Series) (*model.IndicatorSet, error) {
	if len(series) == 0 {
		return nil, ErrInsufficientData
	}
	if err := validate(series); err != nil {
		return nil, err
	}

	closes := series.Closes()
	set := &model.IndicatorSet{
		SMA20:      rollingMean(closes, 20),
		RSI14:      wilderRSI(closes, 14),
		MACD:       make([]float64, len(closes)),
		MACDSignal: nil,
		BollMid:    rollingMean(closes, 20),
	}

	ema12 := emaSeq(closes, 12)
	ema26 := emaSeq(closes, 26)
	for i := range closes {
		set.MACD[i] = ema12[i] - ema26[i]
	}
	set.MACDSignal = emaSeq(set.MACD, 9)

	sd := rollingStd(closes, 20)
	set.BollUpper = make([]float64, len(closes))
	set.BollLower = make([]float64, len(closes))
	for i := range closes {
		set.BollUpper[i] = set.BollMid[i] + 2*sd[i]
		set.BollLower[i] = set.BollMid[i] - 2*sd[i]
	}

	return set, nil
}

func validate(series model.Series) error {
	for _, c := range series {
		for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ErrDataType
			}
		}
	}
	return nil
}

func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		win := values[i-window+1 : i+1]
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(window)
		var ss float64
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		// Sample standard deviation.
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

func emaSeq(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = k*values[i] + (1-k)*out[i-1]
	}
	return out
}

// wilderRSI computes the per-bar Wilder-smoothed RSI. The first `period`
// positions hold NaN.
func wilderRSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
