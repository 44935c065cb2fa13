package model

// Trend classifies recent price action.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// IndicatorSet holds per-bar indicator columns computed from a series.
// Slices are aligned with the source series; leading positions that
// lack enough history hold NaN.
type IndicatorSet struct {
	SMA20      []float64
	RSI14      []float64
	MACD       []float64
	MACDSignal []float64
	BollMid    []float64
	BollUpper  []float64
	BollLower  []float64
}

// AnalysisResult is the directional read of a candle series.
type AnalysisResult struct {
	Trend              Trend
	VolatilityIndex    float64
	Variation          float64 // percent change first close -> last close
	VolatilityFromHigh float64 // percent change highest high -> last close
	AvgVolume          float64
	TrendlineSlopeLow  *float64 // nil with fewer than 2 low extrema
	TrendlineSlopeHigh *float64 // nil with fewer than 2 high extrema
	Indicators         *IndicatorSet
}
