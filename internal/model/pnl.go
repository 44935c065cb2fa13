package model

import "time"

// PnLRecord is the realized result of a closed position, as reported by
// the exchange's position history.
type PnLRecord struct {
	PositionID string
	Symbol     string
	Side       Side
	ClosedAt   time.Time
	PnL        float64
	EntryPrice float64
	ClosePrice float64
	OpenFee    float64
	CloseFee   float64
	NetProfit  float64
}

// SymbolPnL accumulates realized results for one symbol.
type SymbolPnL struct {
	Trades      int       `json:"trades"`
	NetProfit   float64   `json:"net_profit"`
	LastTradeAt time.Time `json:"last_trade_at"`
}

// LedgerState is the persisted realized-PnL ledger.
type LedgerState struct {
	Totals    map[string]SymbolPnL `json:"totals"`
	UpdatedAt time.Time            `json:"updated_at"`
}
