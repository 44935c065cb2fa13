package orchestrator

import (
	"fmt"
	"log"
	"time"

	"FundingSentinel/internal/notifier"
)

// HandleCommand processes a user control command and returns a reply.
func (o *Orchestrator) HandleCommand(command string) string {
	switch command {
	case "/status":
		status := o.Status()
		if next, ok := o.NextExecutionTime(); ok {
			return fmt.Sprintf("Status: %s\nNext scan: %s", status, next.In(o.loc).Format("2006-01-02 15:04:05 MST"))
		}
		return fmt.Sprintf("Status: %s", status)

	case "/next":
		boundary := o.NextBoundary(time.Now())
		return fmt.Sprintf("Next funding boundary: %s", boundary.Format("2006-01-02 15:04:05 MST"))

	case "/leads":
		leads, err := o.Recorder.RecentLeads(10)
		if err != nil {
			log.Printf("[ERROR] recent leads: %v", err)
			return fmt.Sprintf("Failed to load leads: %v", err)
		}
		return notifier.FormatLeads(leads)

	case "/pnl":
		state := o.Ledger.Snapshot()
		return notifier.FormatLedger(&state)

	case "/run":
		if o.Status() != StatusRunning {
			return "Not running. Use /start first."
		}
		go o.RunCycleNow()
		return "Scan cycle triggered."

	case "/start":
		if err := o.Start(); err != nil {
			return fmt.Sprintf("Start failed: %v", err)
		}
		next, _ := o.NextExecutionTime()
		return fmt.Sprintf("Started. Next scan: %s", next.In(o.loc).Format("2006-01-02 15:04:05 MST"))

	case "/stop":
		if err := o.Stop(); err != nil {
			return fmt.Sprintf("Stop failed: %v", err)
		}
		return "Stopped. All pending orders cancelled."

	default:
		return "Commands:\n/status\n/next\n/leads\n/pnl\n/run\n/start\n/stop"
	}
}
