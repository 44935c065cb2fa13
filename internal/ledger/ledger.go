package ledger

import (
	"log"
	"sync"
	"time"

	"FundingSentinel/internal/model"
)

// Book tracks cumulative realized PnL per symbol with concurrency safety.
type Book struct {
	mu       sync.Mutex
	state    *model.LedgerState
	filePath string
}

// NewBook creates a Book, loading or initializing state from disk.
func NewBook(filePath string) (*Book, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	if state.Totals == nil {
		state.Totals = make(map[string]model.SymbolPnL)
	}
	return &Book{state: state, filePath: filePath}, nil
}

// AddRealized records one closed position's net profit.
func (b *Book) AddRealized(rec *model.PnLRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.state.Totals[rec.Symbol]
	entry.Trades++
	entry.NetProfit += rec.NetProfit
	entry.LastTradeAt = rec.ClosedAt
	b.state.Totals[rec.Symbol] = entry

	if err := b.save(); err != nil {
		log.Printf("[ERROR] failed to save pnl ledger: %v", err)
	}
}

// Snapshot returns a copy of the ledger state.
func (b *Book) Snapshot() model.LedgerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	totals := make(map[string]model.SymbolPnL, len(b.state.Totals))
	for k, v := range b.state.Totals {
		totals[k] = v
	}
	return model.LedgerState{Totals: totals, UpdatedAt: b.state.UpdatedAt}
}

// TotalNetProfit sums realized net profit across all symbols.
func (b *Book) TotalNetProfit() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	var total float64
	for _, v := range b.state.Totals {
		total += v.NetProfit
	}
	return total
}

func (b *Book) save() error {
	b.state.UpdatedAt = time.Now()
	return SaveState(b.filePath, b.state)
}
