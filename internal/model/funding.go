package model

import "time"

// FundingSnapshot is one symbol's funding rate as observed by a scan.
// The rate is expressed in percentage points (exchange value x100).
type FundingSnapshot struct {
	Symbol             string
	FundingRatePercent float64
	ObservedAt         time.Time
}

// FundingRatePoint is one settled historical funding rate.
type FundingRatePoint struct {
	Rate float64
	Time time.Time
}

// Lead is a funding-rate candidate recorded for observability,
// whether or not it resulted in a trade.
type Lead struct {
	Symbol             string
	FundingRatePercent float64
	Side               Side
	ObservedAt         time.Time
}
