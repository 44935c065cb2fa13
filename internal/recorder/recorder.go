package recorder

import (
	"time"

	"FundingSentinel/internal/model"
)

// DirectiveEvent records a directive accepted by the orchestrator and
// the open/close instants it was scheduled at.
type DirectiveEvent struct {
	Symbol             string
	Side               model.Side
	Risky              bool
	Profile            model.TimingProfile
	FundingRatePercent float64
	Boundary           time.Time
	OpenAt             time.Time
	CloseAt            time.Time
}

// Recorder persists cycle observability data: funding-rate leads,
// accepted directives and realized PnL.
type Recorder interface {
	RecordLead(lead *model.Lead) error
	RecordDirective(evt *DirectiveEvent) error
	RecordPnL(rec *model.PnLRecord) error
	RecentLeads(limit int) ([]model.Lead, error)
	Close() error
}
