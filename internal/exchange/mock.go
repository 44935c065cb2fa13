package exchange

import (
	"context"
	"sync"
	"time"

	"FundingSentinel/internal/model"
)

// MockClient returns controllable fixed data for development and testing.
type MockClient struct {
	mu sync.Mutex

	FundingRates   []model.FundingSnapshot
	Candles        map[Granularity]model.Series
	FundingHistory []model.FundingRatePoint
	LastPosition   *model.PnLRecord

	// Errors to inject per call, nil for success.
	ListErr, CandleErr, HistoryErr, OpenErr, CloseErr, PositionErr error

	OpenedOrders []MockOrder
	ClosedOrders []string
}

// MockOrder records one OpenOrder invocation.
type MockOrder struct {
	Symbol string
	Side   model.Side
	Amount float64
}

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) ListFundingRates(_ context.Context) ([]model.FundingSnapshot, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.FundingRates, nil
}

func (m *MockClient) GetCandles(_ context.Context, _ string, granularity Granularity, start, end time.Time, _ int) (model.Series, error) {
	if m.CandleErr != nil {
		return nil, m.CandleErr
	}
	series := m.Candles[granularity]
	if !start.IsZero() || !end.IsZero() {
		if start.IsZero() {
			start = time.Unix(0, 0)
		}
		if end.IsZero() {
			end = time.Now().Add(24 * time.Hour)
		}
		return series.Between(start, end), nil
	}
	return series, nil
}

func (m *MockClient) GetHistoricalFundingRates(_ context.Context, _ string) ([]model.FundingRatePoint, error) {
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	return m.FundingHistory, nil
}

func (m *MockClient) OpenOrder(_ context.Context, symbol string, side model.Side, amountUSDT float64) error {
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OpenedOrders = append(m.OpenedOrders, MockOrder{Symbol: symbol, Side: side, Amount: amountUSDT})
	return nil
}

func (m *MockClient) CloseOrder(_ context.Context, symbol string) error {
	if m.CloseErr != nil {
		return m.CloseErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClosedOrders = append(m.ClosedOrders, symbol)
	return nil
}

func (m *MockClient) GetLastClosedPosition(_ context.Context, symbol string) (*model.PnLRecord, error) {
	if m.PositionErr != nil {
		return nil, m.PositionErr
	}
	if m.LastPosition != nil {
		return m.LastPosition, nil
	}
	return &model.PnLRecord{Symbol: symbol}, nil
}

// Opened returns a copy of the recorded open orders.
func (m *MockClient) Opened() []MockOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockOrder, len(m.OpenedOrders))
	copy(out, m.OpenedOrders)
	return out
}

// Closed returns a copy of the recorded close orders.
func (m *MockClient) Closed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ClosedOrders))
	copy(out, m.ClosedOrders)
	return out
}
