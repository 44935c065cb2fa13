package exchange

import (
	"context"
	"time"

	"FundingSentinel/internal/model"
)

// Granularity is a candle interval accepted by the exchange.
type Granularity string

const (
	Granularity1m  Granularity = "1min"
	Granularity5m  Granularity = "5min"
	Granularity15m Granularity = "15min"
	Granularity1h  Granularity = "1H"
	Granularity4h  Granularity = "4H"
	Granularity1d  Granularity = "1D"
)

// Client defines the exchange capability consumed by the core. All
// calls are network I/O and may fail with *NetworkError (unreachable,
// timeout) or *ExchangeError (business-logic failure).
type Client interface {
	// ListFundingRates returns the current funding rate of every
	// perpetual symbol, in percentage points, sorted ascending by rate.
	ListFundingRates(ctx context.Context) ([]model.FundingSnapshot, error)

	// GetCandles fetches an ascending candle series. Zero start/end mean
	// "most recent `limit` bars".
	GetCandles(ctx context.Context, symbol string, granularity Granularity, start, end time.Time, limit int) (model.Series, error)

	// GetHistoricalFundingRates returns settled funding rates for a
	// symbol, newest first.
	GetHistoricalFundingRates(ctx context.Context, symbol string) ([]model.FundingRatePoint, error)

	// OpenOrder opens a market position for the given notional amount.
	OpenOrder(ctx context.Context, symbol string, side model.Side, amountUSDT float64) error

	// CloseOrder flash-closes the open position on a symbol.
	CloseOrder(ctx context.Context, symbol string) error

	// GetLastClosedPosition returns the most recently closed position's
	// realized result.
	GetLastClosedPosition(ctx context.Context, symbol string) (*model.PnLRecord, error)

	Name() string
}
