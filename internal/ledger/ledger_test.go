package ledger

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"FundingSentinel/internal/model"
)

func TestBook_AddRealized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	book, err := NewBook(path)
	if err != nil {
		t.Fatalf("new book: %v", err)
	}

	closed := time.Date(2026, 1, 5, 10, 2, 0, 0, time.UTC)
	book.AddRealized(&model.PnLRecord{Symbol: "DOGEUSDT", NetProfit: 0.42, ClosedAt: closed})
	book.AddRealized(&model.PnLRecord{Symbol: "DOGEUSDT", NetProfit: -0.1, ClosedAt: closed.Add(8 * time.Hour)})
	book.AddRealized(&model.PnLRecord{Symbol: "PEPEUSDT", NetProfit: 1.0, ClosedAt: closed})

	state := book.Snapshot()
	doge := state.Totals["DOGEUSDT"]
	if doge.Trades != 2 || math.Abs(doge.NetProfit-0.32) > 1e-9 {
		t.Errorf("doge totals: %+v", doge)
	}
	if !doge.LastTradeAt.Equal(closed.Add(8 * time.Hour)) {
		t.Errorf("last trade at: %s", doge.LastTradeAt)
	}
	if math.Abs(book.TotalNetProfit()-1.32) > 1e-9 {
		t.Errorf("total: %v", book.TotalNetProfit())
	}
}

func TestBook_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	book, err := NewBook(path)
	if err != nil {
		t.Fatalf("new book: %v", err)
	}
	book.AddRealized(&model.PnLRecord{Symbol: "DOGEUSDT", NetProfit: 0.5, ClosedAt: time.Now()})

	reopened, err := NewBook(path)
	if err != nil {
		t.Fatalf("reopen book: %v", err)
	}
	state := reopened.Snapshot()
	if state.Totals["DOGEUSDT"].Trades != 1 {
		t.Errorf("state lost on reopen: %+v", state.Totals)
	}
}

func TestBook_SnapshotIsACopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	book, err := NewBook(path)
	if err != nil {
		t.Fatalf("new book: %v", err)
	}
	book.AddRealized(&model.PnLRecord{Symbol: "DOGEUSDT", NetProfit: 0.5, ClosedAt: time.Now()})

	snap := book.Snapshot()
	snap.Totals["DOGEUSDT"] = model.SymbolPnL{Trades: 99}

	if book.Snapshot().Totals["DOGEUSDT"].Trades != 1 {
		t.Error("mutating a snapshot must not affect the book")
	}
}
