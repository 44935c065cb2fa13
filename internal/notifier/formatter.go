package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"FundingSentinel/internal/model"
	"FundingSentinel/internal/recorder"
)

// FormatCycleReport formats one scan cycle into a Telegram message.
func FormatCycleReport(boundary time.Time, leads []model.Lead, directives []recorder.DirectiveEvent) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Funding cycle</b> | boundary %s\n\n", boundary.Format("2006-01-02 15:04 MST")))

	b.WriteString(fmt.Sprintf("Candidates: %d\n", len(leads)))
	for _, l := range leads {
		b.WriteString(fmt.Sprintf("  %s  %+.3f%%  (%s lead)\n", l.Symbol, l.FundingRatePercent, l.Side))
	}

	if len(directives) == 0 {
		b.WriteString("\nNo trades scheduled this cycle.")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("\n🎯 <b>Scheduled: %d</b>\n", len(directives)))
	for _, d := range directives {
		risk := ""
		if d.Risky {
			risk = " ⚠️risky"
		}
		b.WriteString(fmt.Sprintf("  %s %s [%s]%s\n    open %s / close %s\n",
			d.Side, d.Symbol, d.Profile, risk,
			d.OpenAt.Format("15:04:05"), d.CloseAt.Format("15:04:05")))
	}

	return b.String()
}

// FormatOrderOpened formats a position-open confirmation.
func FormatOrderOpened(d *model.TradeDirective, amountUSDT float64) string {
	risk := ""
	if d.Risky {
		risk = " (risky)"
	}
	return fmt.Sprintf("🟢 Opened <b>%s %s</b>%s, %.0f USDT, profile %s",
		d.Side, d.Symbol, risk, amountUSDT, d.Profile)
}

// FormatPnL formats the realized result of a closed position.
func FormatPnL(rec *model.PnLRecord) string {
	var b strings.Builder

	icon := "✅"
	if rec.NetProfit < 0 {
		icon = "🔻"
	}
	b.WriteString(fmt.Sprintf("%s <b>Closed %s %s</b>\n\n", icon, rec.Side, rec.Symbol))
	b.WriteString(fmt.Sprintf("Entry: %.6f | Close: %.6f\n", rec.EntryPrice, rec.ClosePrice))
	b.WriteString(fmt.Sprintf("PnL: %+.4f USDT\n", rec.PnL))
	b.WriteString(fmt.Sprintf("Fees: %.4f + %.4f\n", rec.OpenFee, rec.CloseFee))
	b.WriteString(fmt.Sprintf("Net: %+.4f USDT\n", rec.NetProfit))
	b.WriteString(fmt.Sprintf("Closed at: %s", rec.ClosedAt.Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatLedger formats the accumulated per-symbol ledger for display.
func FormatLedger(state *model.LedgerState) string {
	var b strings.Builder
	b.WriteString("📒 <b>Realized PnL</b>\n\n")

	if len(state.Totals) == 0 {
		b.WriteString("No closed trades yet.")
		return b.String()
	}

	symbols := make([]string, 0, len(state.Totals))
	for s := range state.Totals {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	total := 0.0
	for _, s := range symbols {
		t := state.Totals[s]
		b.WriteString(fmt.Sprintf("%s: %+.4f USDT (%d trades)\n", s, t.NetProfit, t.Trades))
		total += t.NetProfit
	}
	b.WriteString(fmt.Sprintf("\nTotal: %+.4f USDT\n", total))
	b.WriteString(fmt.Sprintf("Updated: %s", state.UpdatedAt.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatLeads formats recently recorded funding leads for display.
func FormatLeads(leads []model.Lead) string {
	var b strings.Builder
	b.WriteString("🔎 <b>Recent leads</b>\n\n")
	if len(leads) == 0 {
		b.WriteString("No leads recorded.")
		return b.String()
	}
	for _, l := range leads {
		b.WriteString(fmt.Sprintf("%s  %+.3f%%  %s  %s\n",
			l.Symbol, l.FundingRatePercent, l.Side, l.ObservedAt.Format("01-02 15:04")))
	}
	return b.String()
}
