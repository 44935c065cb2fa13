package model

import "time"

// Side is the direction of a position.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// TimingProfile selects when the open/close pair fires relative to the
// funding boundary.
type TimingProfile string

const (
	// ProfileNormal opens shortly before the boundary to collect the
	// funding payment and closes right after settlement.
	ProfileNormal TimingProfile = "normal"
	// ProfileAfter opens after settlement, riding the immediate reaction.
	ProfileAfter TimingProfile = "after"
	// ProfileAfterVariation opens after settlement and holds through the
	// first ten minutes of the move.
	ProfileAfterVariation TimingProfile = "after-variation"
)

// Offsets returns the open and close instants as offsets from the
// funding boundary. The close offset is always later than the open one.
func (p TimingProfile) Offsets() (open, close time.Duration) {
	switch p {
	case ProfileAfter:
		return 15 * time.Second, 75 * time.Second
	case ProfileAfterVariation:
		return 15 * time.Second, 10 * time.Minute
	default: // ProfileNormal
		return -45 * time.Second, 15 * time.Second
	}
}

// Valid reports whether p is one of the known profiles.
func (p TimingProfile) Valid() bool {
	switch p {
	case ProfileNormal, ProfileAfter, ProfileAfterVariation:
		return true
	}
	return false
}

// TradeDirective instructs the orchestrator to open and later close a
// position around the next funding boundary. Consumed exactly once.
type TradeDirective struct {
	Symbol  string
	Side    Side
	Risky   bool
	Profile TimingProfile
}
