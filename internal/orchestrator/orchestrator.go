package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"FundingSentinel/internal/analyzer"
	"FundingSentinel/internal/decision"
	"FundingSentinel/internal/exchange"
	"FundingSentinel/internal/ledger"
	"FundingSentinel/internal/model"
	"FundingSentinel/internal/notifier"
	"FundingSentinel/internal/recorder"
	"FundingSentinel/internal/scheduler"
)

// Service states.
const (
	StatusStopped = "stopped"
	StatusRunning = "running"
)

var (
	ErrAlreadyRunning = errors.New("orchestrator is already running")
	ErrNotRunning     = errors.New("orchestrator is not running")
)

// Notifier delivers human-readable event messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, attempts int) error
}

// Config holds the orchestrator's trading parameters.
type Config struct {
	MinFundingRate float64       // long-lead threshold, percentage points
	MaxFundingRate float64       // short-lead threshold, percentage points
	AmountUSDT     float64       // notional per order
	ScanLead       time.Duration // how long before the boundary the scan fires
	PnLDelay       time.Duration // wait after close before fetching realized PnL
}

// Orchestrator is the funding-cycle state machine: it scans funding
// rates shortly before each settlement boundary, fans directives out
// into timed open/close pairs, and re-arms itself for the next boundary.
type Orchestrator struct {
	Ctx      context.Context
	Client   exchange.Client
	Engine   *decision.Engine
	Sched    *scheduler.Scheduler
	Recorder recorder.Recorder
	Ledger   *ledger.Book
	Notifier Notifier
	Cfg      Config

	boundaries cron.Schedule
	loc        *time.Location

	mu     sync.Mutex
	status string
	next   time.Time
	cycle  scheduler.Handle
}

// New creates an Orchestrator. boundarySpec is a 6-field cron expression
// for the funding settlement instants, evaluated in loc.
func New(ctx context.Context, client exchange.Client, engine *decision.Engine,
	sched *scheduler.Scheduler, rec recorder.Recorder, book *ledger.Book,
	notif Notifier, cfg Config, boundarySpec string, loc *time.Location) (*Orchestrator, error) {

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(boundarySpec)
	if err != nil {
		return nil, fmt.Errorf("parse boundary schedule %q: %w", boundarySpec, err)
	}
	if cfg.ScanLead == 0 {
		cfg.ScanLead = 5 * time.Minute
	}
	if cfg.PnLDelay == 0 {
		cfg.PnLDelay = 30 * time.Second
	}

	o := &Orchestrator{
		Ctx:        ctx,
		Client:     client,
		Engine:     engine,
		Sched:      sched,
		Recorder:   rec,
		Ledger:     book,
		Notifier:   notif,
		Cfg:        cfg,
		boundaries: schedule,
		loc:        loc,
		status:     StatusStopped,
	}
	return o, nil
}

// NextBoundary returns the first funding boundary strictly after t.
func (o *Orchestrator) NextBoundary(t time.Time) time.Time {
	return o.boundaries.Next(t.In(o.loc))
}

// Start transitions stopped -> running and arms the first cycle timer.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == StatusRunning {
		return ErrAlreadyRunning
	}

	boundary := o.NextBoundary(time.Now())
	if err := o.armCycleLocked(boundary); err != nil {
		return err
	}
	o.status = StatusRunning
	log.Printf("[INFO] orchestrator started, next scan at %s", o.next.Format(time.RFC3339))
	return nil
}

// Stop transitions running -> stopped and cancels all pending timers.
// In-flight network calls are not aborted; their follow-ups are gone
// with the cancelled timers and their results are discarded.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == StatusStopped {
		return ErrNotRunning
	}

	cancelled := o.Sched.CancelAll()
	o.status = StatusStopped
	o.next = time.Time{}
	o.cycle = scheduler.Handle{}
	log.Printf("[INFO] orchestrator stopped, %d pending timers cancelled", cancelled)
	return nil
}

// Status returns "stopped" or "running".
func (o *Orchestrator) Status() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// NextExecutionTime returns the next scheduled scan instant, if any.
func (o *Orchestrator) NextExecutionTime() (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.next, !o.next.IsZero()
}

// armCycleLocked schedules the scan for the given boundary, replacing
// any pending cycle timer so at most one is ever pending.
func (o *Orchestrator) armCycleLocked(boundary time.Time) error {
	if o.cycle != (scheduler.Handle{}) {
		o.Sched.Cancel(o.cycle)
	}
	fireAt := boundary.Add(-o.Cfg.ScanLead)
	handle, err := o.Sched.Schedule(fireAt, "funding cycle", func() { o.runCycle(boundary) })
	if err != nil {
		return fmt.Errorf("arm cycle: %w", err)
	}
	o.cycle = handle
	o.next = fireAt
	return nil
}

// RunCycleNow executes a scan immediately against the upcoming boundary
// (manual trigger). The cycle re-arms as usual afterwards.
func (o *Orchestrator) RunCycleNow() {
	o.runCycle(o.NextBoundary(time.Now()))
}

// runCycle is the recurring scan fired ScanLead before each boundary.
func (o *Orchestrator) runCycle(boundary time.Time) {
	if o.Status() != StatusRunning {
		return
	}
	// Re-arm no matter how candidate processing goes.
	defer o.rearm(boundary)

	log.Printf("[INFO] funding cycle for boundary %s", boundary.Format(time.RFC3339))

	snapshots, err := o.Client.ListFundingRates(o.Ctx)
	if err != nil {
		log.Printf("[ERROR] cycle: list funding rates: %v", err)
		o.trySend(fmt.Sprintf("❌ Funding scan failed: %v", err))
		return
	}

	leads := o.collectLeads(snapshots)
	for i := range leads {
		if err := o.Recorder.RecordLead(&leads[i]); err != nil {
			log.Printf("[ERROR] record lead %s: %v", leads[i].Symbol, err)
		}
	}

	if len(leads) == 0 {
		log.Println("[INFO] no candidates this cycle, re-arming for the next boundary")
		return
	}

	var directives []recorder.DirectiveEvent
	for i := range leads {
		if evt := o.processCandidate(boundary, &leads[i]); evt != nil {
			directives = append(directives, *evt)
		}
	}

	o.trySend(notifier.FormatCycleReport(boundary, leads, directives))
}

// collectLeads partitions the scan into long and short candidates.
func (o *Orchestrator) collectLeads(snapshots []model.FundingSnapshot) []model.Lead {
	var leads []model.Lead
	for _, s := range snapshots {
		switch {
		case s.FundingRatePercent <= o.Cfg.MinFundingRate:
			leads = append(leads, model.Lead{
				Symbol:             s.Symbol,
				FundingRatePercent: s.FundingRatePercent,
				Side:               model.Long,
				ObservedAt:         s.ObservedAt,
			})
		case s.FundingRatePercent >= o.Cfg.MaxFundingRate:
			leads = append(leads, model.Lead{
				Symbol:             s.Symbol,
				FundingRatePercent: s.FundingRatePercent,
				Side:               model.Short,
				ObservedAt:         s.ObservedAt,
			})
		}
	}
	return leads
}

// processCandidate runs the decision tree for one lead and schedules the
// resulting open/close pair. Failures are contained to the candidate.
func (o *Orchestrator) processCandidate(boundary time.Time, lead *model.Lead) *recorder.DirectiveEvent {
	snap := &model.FundingSnapshot{
		Symbol:             lead.Symbol,
		FundingRatePercent: lead.FundingRatePercent,
		ObservedAt:         lead.ObservedAt,
	}

	directive, err := o.Engine.Decide(o.Ctx, snap)
	if err != nil {
		if errors.Is(err, analyzer.ErrInsufficientData) || errors.Is(err, analyzer.ErrDataType) {
			log.Printf("[WARN] %s: analysis skipped: %v", lead.Symbol, err)
		} else {
			log.Printf("[ERROR] %s: decide: %v", lead.Symbol, err)
		}
		return nil
	}
	if directive == nil {
		log.Printf("[INFO] %s: no directive this cycle (rate %.3f%%)", lead.Symbol, lead.FundingRatePercent)
		return nil
	}

	evt, err := o.scheduleDirective(boundary, lead, directive)
	if err != nil {
		log.Printf("[ERROR] %s: schedule directive: %v", lead.Symbol, err)
		return nil
	}
	return evt
}

// scheduleDirective creates the open/close action pair for a directive.
func (o *Orchestrator) scheduleDirective(boundary time.Time, lead *model.Lead, d *model.TradeDirective) (*recorder.DirectiveEvent, error) {
	openOff, closeOff := d.Profile.Offsets()
	openAt := boundary.Add(openOff)
	closeAt := boundary.Add(closeOff)

	directive := *d
	if _, err := o.Sched.Schedule(openAt, "open "+d.Symbol, func() { o.executeOpen(&directive) }); err != nil {
		return nil, err
	}
	if _, err := o.Sched.Schedule(closeAt, "close "+d.Symbol, func() { o.executeClose(&directive) }); err != nil {
		return nil, err
	}

	evt := &recorder.DirectiveEvent{
		Symbol:             d.Symbol,
		Side:               d.Side,
		Risky:              d.Risky,
		Profile:            d.Profile,
		FundingRatePercent: lead.FundingRatePercent,
		Boundary:           boundary,
		OpenAt:             openAt,
		CloseAt:            closeAt,
	}
	if err := o.Recorder.RecordDirective(evt); err != nil {
		log.Printf("[ERROR] record directive %s: %v", d.Symbol, err)
	}
	log.Printf("[INFO] %s: %s directive (risky=%v, %s), open %s close %s",
		d.Symbol, d.Side, d.Risky, d.Profile,
		openAt.Format("15:04:05"), closeAt.Format("15:04:05"))
	return evt, nil
}

func (o *Orchestrator) executeOpen(d *model.TradeDirective) {
	if o.Status() != StatusRunning {
		return
	}
	log.Printf("[INFO] opening %s %s", d.Side, d.Symbol)
	if err := o.Client.OpenOrder(o.Ctx, d.Symbol, d.Side, o.Cfg.AmountUSDT); err != nil {
		log.Printf("[ERROR] open %s: %v", d.Symbol, err)
		o.trySend(fmt.Sprintf("❌ Open %s %s failed: %v", d.Side, d.Symbol, err))
		return
	}
	o.trySend(notifier.FormatOrderOpened(d, o.Cfg.AmountUSDT))
}

// executeClose closes the position and schedules the PnL capture. A
// failed close is not retried here; it is surfaced for manual action.
func (o *Orchestrator) executeClose(d *model.TradeDirective) {
	if o.Status() != StatusRunning {
		return
	}
	log.Printf("[INFO] closing %s", d.Symbol)
	if err := o.Client.CloseOrder(o.Ctx, d.Symbol); err != nil {
		log.Printf("[ERROR] close %s: %v", d.Symbol, err)
		o.trySend(fmt.Sprintf("⚠️ Close %s failed, manual action may be needed: %v", d.Symbol, err))
		return
	}

	symbol := d.Symbol
	if _, err := o.Sched.Schedule(time.Now().Add(o.Cfg.PnLDelay), "pnl "+symbol, func() { o.capturePnL(symbol) }); err != nil {
		log.Printf("[ERROR] schedule pnl capture %s: %v", symbol, err)
	}
}

// capturePnL fetches and persists the realized result of a closed trade.
func (o *Orchestrator) capturePnL(symbol string) {
	rec, err := o.Client.GetLastClosedPosition(o.Ctx, symbol)
	if err != nil {
		log.Printf("[ERROR] fetch pnl %s: %v", symbol, err)
		return
	}
	if err := o.Recorder.RecordPnL(rec); err != nil {
		log.Printf("[ERROR] record pnl %s: %v", symbol, err)
	}
	if o.Ledger != nil {
		o.Ledger.AddRealized(rec)
	}
	o.trySend(notifier.FormatPnL(rec))
}

// rearm schedules the cycle for the boundary after the one just
// processed, keeping at most one cycle timer pending.
func (o *Orchestrator) rearm(processed time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != StatusRunning {
		return
	}
	next := o.boundaries.Next(processed.In(o.loc))
	if err := o.armCycleLocked(next); err != nil {
		log.Printf("[ERROR] rearm for %s: %v", next.Format(time.RFC3339), err)
		return
	}
	log.Printf("[INFO] re-armed, next scan at %s", o.next.Format(time.RFC3339))
}

func (o *Orchestrator) trySend(text string) {
	if o.Notifier == nil {
		return
	}
	if err := o.Notifier.SendWithRetry(o.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
