package recorder

import "FundingSentinel/internal/model"

// NoopRecorder is a no-op implementation used when no backend is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordLead(_ *model.Lead) error          { return nil }
func (n *NoopRecorder) RecordDirective(_ *DirectiveEvent) error { return nil }
func (n *NoopRecorder) RecordPnL(_ *model.PnLRecord) error      { return nil }
func (n *NoopRecorder) RecentLeads(_ int) ([]model.Lead, error) { return nil, nil }
func (n *NoopRecorder) Close() error                            { return nil }
