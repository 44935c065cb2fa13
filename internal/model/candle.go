package model

import "time"

// Candle represents a single candlestick bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is an ordered candle sequence, ascending by timestamp.
// A series is never mutated after construction; derived data is
// computed into separate structures.
type Series []Candle

// Closes returns the close prices of the series in order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

// First returns the earliest candle. The series must be non-empty.
func (s Series) First() Candle { return s[0] }

// Last returns the most recent candle. The series must be non-empty.
func (s Series) Last() Candle { return s[len(s)-1] }

// Tail returns the trailing n candles, or the whole series if it is shorter.
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// HighestHigh returns the maximum high of the series, or 0 for an empty series.
func (s Series) HighestHigh() float64 {
	var high float64
	for i, c := range s {
		if i == 0 || c.High > high {
			high = c.High
		}
	}
	return high
}

// TailDuration returns the candles within the trailing d of the series'
// own time range.
func (s Series) TailDuration(d time.Duration) Series {
	if len(s) == 0 {
		return nil
	}
	cutoff := s.Last().Time.Add(-d)
	var out Series
	for _, c := range s {
		if c.Time.After(cutoff) {
			out = append(out, c)
		}
	}
	return out
}

// Between returns the sub-series whose timestamps fall within [start, end].
func (s Series) Between(start, end time.Time) Series {
	var out Series
	for _, c := range s {
		if c.Time.Before(start) || c.Time.After(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Span returns the wall-clock duration covered by the series.
func (s Series) Span() time.Duration {
	if len(s) < 2 {
		return 0
	}
	return s.Last().Time.Sub(s.First().Time)
}
