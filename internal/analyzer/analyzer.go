package analyzer

import "FundingSentinel/internal/model"

// Scale selects the extrema window and volatility scaling for a series.
type Scale int

const (
	// ScaleWeekly is for 1-hour bars over roughly a week.
	ScaleWeekly Scale = iota
	// ScaleDaily is for 15-minute bars over roughly a day.
	ScaleDaily
	// ScaleMinute is for 1-minute bars over a few hours.
	ScaleMinute
)

func (s Scale) extremaOrder() int {
	if s == ScaleWeekly {
		return 3
	}
	return 5
}

func (s Scale) barsPerDay() float64 {
	switch s {
	case ScaleWeekly:
		return 24
	case ScaleDaily:
		return 96
	default:
		return 1440
	}
}

// Analyze turns a candle series into a directional read: trend from
// local extrema, trendline slopes, volatility metrics and the indicator
// pass. The indicator columns are retained on the result but are not
// themselves control inputs.
func Analyze(series model.Series, scale Scale) (*model.AnalysisResult, error) {
	if len(series) == 0 {
		return nil, ErrInsufficientData
	}
	if err := validate(series); err != nil {
		return nil, err
	}

	indicators, err := ComputeIndicators(series)
	if err != nil {
		return nil, err
	}

	closes := series.Closes()
	maxIdx, minIdx := LocalExtrema(closes, scale.extremaOrder())

	highs := make([]float64, len(maxIdx))
	for i, idx := range maxIdx {
		highs[i] = closes[idx]
	}
	lows := make([]float64, len(minIdx))
	for i, idx := range minIdx {
		lows[i] = closes[idx]
	}

	volIndex, err := VolatilityIndex(series, scale.barsPerDay())
	if err != nil {
		return nil, err
	}
	variation, err := Variation(series)
	if err != nil {
		return nil, err
	}
	fromHigh, err := VolatilityFromHigh(series)
	if err != nil {
		return nil, err
	}

	var volSum float64
	for _, c := range series {
		volSum += c.Volume
	}

	return &model.AnalysisResult{
		Trend:              IdentifyTrend(highs, lows),
		VolatilityIndex:    volIndex,
		Variation:          variation,
		VolatilityFromHigh: fromHigh,
		AvgVolume:          volSum / float64(len(series)),
		TrendlineSlopeLow:  TrendlineSlope(series, minIdx),
		TrendlineSlopeHigh: TrendlineSlope(series, maxIdx),
		Indicators:         indicators,
	}, nil
}
