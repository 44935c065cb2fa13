package decision

import (
	"context"
	"fmt"
	"log"
	"time"

	"FundingSentinel/internal/analyzer"
	"FundingSentinel/internal/exchange"
	"FundingSentinel/internal/model"
)

// Default thresholds, in percentage points of funding rate.
const (
	DefaultMinFundingRate = -0.5
	DefaultMaxFundingRate = 1.5

	// highFundingRate routes a candidate to the past-settlement analysis.
	highFundingRate = 3.0

	// lowRiskLongBound caps rule 1. The unit of this bound is ambiguous in
	// the historical strategy (percentage points vs raw rate); the observed
	// comparison against the percentage value is kept as-is.
	lowRiskLongBound = 1.3

	// dumpSignal / pumpSignal classify the post-settlement price move.
	dumpSignal = -1.5
	pumpSignal = 1.5
)

// Incrementation thresholds, percent.
const (
	riseSignal       = 10.0
	pullbackSignal   = 5.0
	deepDropSignal   = -15.0
	calmPeakBound    = 1.3
	sharpPeakDrop    = 7.0
	twoDayRiseSignal = 15.0
	setbackSignal    = -5.0
)

// Engine classifies a funding-rate candidate into a trade directive
// using a fixed decision tree. It fetches the candle and funding-rate
// history it needs through the exchange client it was constructed with.
type Engine struct {
	Client         exchange.Client
	MinFundingRate float64
}

// NewEngine creates an Engine. minFundingRate is the long-candidate
// threshold in percentage points (DefaultMinFundingRate when zero).
func NewEngine(client exchange.Client, minFundingRate float64) *Engine {
	if minFundingRate == 0 {
		minFundingRate = DefaultMinFundingRate
	}
	return &Engine{Client: client, MinFundingRate: minFundingRate}
}

// Decide evaluates the decision tree for one funding-rate snapshot.
// A nil directive with nil error means the symbol is skipped this cycle.
func (e *Engine) Decide(ctx context.Context, snap *model.FundingSnapshot) (*model.TradeDirective, error) {
	// Rule 1: deeply negative funding rate, longs get paid at settlement.
	if snap.FundingRatePercent <= e.MinFundingRate {
		if snap.FundingRatePercent < lowRiskLongBound {
			return &model.TradeDirective{
				Symbol:  snap.Symbol,
				Side:    model.Long,
				Risky:   false,
				Profile: model.ProfileNormal,
			}, nil
		}
		return nil, nil
	}

	// Rule 2: very high rate, read the last two settlements' reactions.
	if snap.FundingRatePercent >= highFundingRate {
		return e.decideByPastSettlements(ctx, snap.Symbol)
	}

	// Rule 3: moderate rate, read the recent price action itself.
	return e.decideByRecentAction(ctx, snap.Symbol)
}

// fetchMinuteWindow loads two settlement periods (~16h) of 1-minute
// candles plus the settlement history, newest first.
func (e *Engine) fetchMinuteWindow(ctx context.Context, symbol string) (model.Series, []time.Time, error) {
	series, err := e.Client.GetCandles(ctx, symbol, exchange.Granularity1m, time.Time{}, time.Time{}, 2*8*60)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch minute candles: %w", err)
	}
	points, err := e.Client.GetHistoricalFundingRates(ctx, symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch funding history: %w", err)
	}
	times := make([]time.Time, len(points))
	for i, p := range points {
		times[i] = p.Time
	}
	return series, times, nil
}

// decideByPastSettlements is the high-rate branch: long into the next
// settlement when the previous one dumped, risk-flagged when the dump
// is deteriorating.
func (e *Engine) decideByPastSettlements(ctx context.Context, symbol string) (*model.TradeDirective, error) {
	series, fundingTimes, err := e.fetchMinuteWindow(ctx, symbol)
	if err != nil {
		return nil, err
	}

	last, err := analyzer.LastVolatility(series, fundingTimes, 1)
	if err != nil {
		return nil, err
	}
	prev, err := analyzer.LastVolatility(series, fundingTimes, 2)
	if err != nil {
		return nil, err
	}

	if last < dumpSignal {
		// Not deteriorating: holding steady, or the previous settlement
		// already dumped just as hard.
		steady := last >= prev || prev <= dumpSignal
		return &model.TradeDirective{
			Symbol:  symbol,
			Side:    model.Long,
			Risky:   !steady,
			Profile: model.ProfileAfter,
		}, nil
	}
	return nil, nil
}

// decideByRecentAction is the moderate-rate branch: short a
// post-settlement pump, otherwise fall through to the incrementation
// analysis of the trailing 8 hours.
func (e *Engine) decideByRecentAction(ctx context.Context, symbol string) (*model.TradeDirective, error) {
	series, fundingTimes, err := e.fetchMinuteWindow(ctx, symbol)
	if err != nil {
		return nil, err
	}

	lastMove, err := analyzer.LastVolatility(series, fundingTimes, 1)
	if err != nil {
		return nil, err
	}
	if lastMove >= pumpSignal {
		return &model.TradeDirective{
			Symbol:  symbol,
			Side:    model.Short,
			Risky:   false,
			Profile: model.ProfileAfter,
		}, nil
	}

	window := series.TailDuration(8 * time.Hour)
	if res, err := analyzer.Analyze(window, analyzer.ScaleMinute); err == nil {
		log.Printf("[INFO] %s 8h read: trend=%s fromHigh=%.2f%% variation=%.2f%%",
			symbol, res.Trend, res.VolatilityFromHigh, res.Variation)
	}
	return e.analyzeIncrementation(ctx, symbol, window)
}

// analyzeIncrementation reads the trailing 8-hour window: overall move,
// drop from the window high, and how recent that high is.
func (e *Engine) analyzeIncrementation(ctx context.Context, symbol string, series model.Series) (*model.TradeDirective, error) {
	if len(series) == 0 {
		return nil, analyzer.ErrInsufficientData
	}

	start := series.First().Open
	end := series.Last().Close
	high := series.HighestHigh()
	if start == 0 || high == 0 {
		return nil, analyzer.ErrDataType
	}

	totalMove := (end - start) / start * 100
	dropFromHigh := (end - high) / high * 100

	high2h := series.TailDuration(2 * time.Hour).HighestHigh()
	recentDrop := 0.0
	if high2h > 0 {
		recentDrop = (end - high2h) / high2h * 100
	}

	if totalMove > riseSignal {
		// Trending up. Risky when it is pulling back hard from a recent spike.
		risky := recentDrop <= -pullbackSignal && dropFromHigh <= -riseSignal
		return &model.TradeDirective{
			Symbol:  symbol,
			Side:    model.Long,
			Risky:   risky,
			Profile: model.ProfileNormal,
		}, nil
	}

	if dropFromHigh <= deepDropSignal {
		return &model.TradeDirective{
			Symbol:  symbol,
			Side:    model.Short,
			Risky:   false,
			Profile: model.ProfileAfter,
		}, nil
	}

	high1h := series.TailDuration(time.Hour).HighestHigh()
	if high1h == high {
		// The window peak is very recent.
		hourDrop := (high1h - end) / high1h * 100
		if hourDrop < calmPeakBound {
			return &model.TradeDirective{
				Symbol:  symbol,
				Side:    model.Long,
				Risky:   false,
				Profile: model.ProfileNormal,
			}, nil
		}
		if hourDrop > sharpPeakDrop {
			return &model.TradeDirective{
				Symbol:  symbol,
				Side:    model.Short,
				Risky:   true,
				Profile: model.ProfileAfter,
			}, nil
		}
	}

	return e.analyzeTwoDayMove(ctx, symbol)
}

// analyzeTwoDayMove escalates to a 42-hour window of 15-minute candles
// when the 8-hour window was inconclusive.
func (e *Engine) analyzeTwoDayMove(ctx context.Context, symbol string) (*model.TradeDirective, error) {
	series, err := e.Client.GetCandles(ctx, symbol, exchange.Granularity15m, time.Time{}, time.Time{}, 4*42)
	if err != nil {
		return nil, fmt.Errorf("fetch 15m candles: %w", err)
	}
	if len(series) == 0 {
		return nil, analyzer.ErrInsufficientData
	}

	start := series.First().Open
	if start == 0 {
		return nil, analyzer.ErrDataType
	}
	highLastHour := series.TailDuration(time.Hour).HighestHigh()
	move := (highLastHour - start) / start * 100

	if move > twoDayRiseSignal {
		high2h := series.TailDuration(2 * time.Hour).HighestHigh()
		setback := 0.0
		if high2h > 0 {
			setback = (series.Last().Close - high2h) / high2h * 100
		}
		if setback < setbackSignal {
			return &model.TradeDirective{
				Symbol:  symbol,
				Side:    model.Short,
				Risky:   true,
				Profile: model.ProfileAfterVariation,
			}, nil
		}
		return &model.TradeDirective{
			Symbol:  symbol,
			Side:    model.Long,
			Risky:   true,
			Profile: model.ProfileAfter,
		}, nil
	}

	if move < -twoDayRiseSignal {
		return &model.TradeDirective{
			Symbol:  symbol,
			Side:    model.Long,
			Risky:   true,
			Profile: model.ProfileNormal,
		}, nil
	}

	// No clear signal.
	return nil, nil
}
