package analyzer

import "FundingSentinel/internal/model"

// LocalExtrema finds local maxima and minima indices in values. A point
// is a maximum (minimum) if it is >= (<=) every point within `order`
// neighbors on each side. Wider orders suppress noise on longer series.
func LocalExtrema(values []float64, order int) (maxIdx, minIdx []int) {
	for i := range values {
		lo := i - order
		if lo < 0 {
			lo = 0
		}
		hi := i + order
		if hi > len(values)-1 {
			hi = len(values) - 1
		}
		isMax, isMin := true, true
		for j := lo; j <= hi; j++ {
			if values[j] > values[i] {
				isMax = false
			}
			if values[j] < values[i] {
				isMin = false
			}
			if !isMax && !isMin {
				break
			}
		}
		if isMax {
			maxIdx = append(maxIdx, i)
		}
		if isMin {
			minIdx = append(minIdx, i)
		}
	}
	return maxIdx, minIdx
}

// IdentifyTrend classifies price action from detected highs and lows,
// both in chronological order. Bullish needs a higher latest high AND a
// higher latest low; bearish needs both lower. Anything else, or fewer
// than two points on either side, is neutral.
func IdentifyTrend(highs, lows []float64) model.Trend {
	if len(highs) < 2 || len(lows) < 2 {
		return model.TrendNeutral
	}
	h1, h2 := highs[len(highs)-2], highs[len(highs)-1]
	l1, l2 := lows[len(lows)-2], lows[len(lows)-1]
	switch {
	case h2 > h1 && l2 > l1:
		return model.TrendBullish
	case h2 < h1 && l2 < l1:
		return model.TrendBearish
	default:
		return model.TrendNeutral
	}
}

// TrendlineSlope fits a least-squares line through the (unix-seconds,
// close) pairs at the given extrema indices and returns its slope, or
// nil with fewer than 2 points.
func TrendlineSlope(series model.Series, idx []int) *float64 {
	if len(idx) < 2 {
		return nil
	}
	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(idx))
	for _, i := range idx {
		x := float64(series[i].Time.Unix())
		y := series[i].Close
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	slope := (n*sumXY - sumX*sumY) / denom
	return &slope
}
