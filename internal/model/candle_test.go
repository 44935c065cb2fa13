package model

import (
	"testing"
	"time"
)

func mkSeries(start time.Time, step time.Duration, closes ...float64) Series {
	s := make(Series, len(closes))
	for i, c := range closes {
		s[i] = Candle{
			Time:  start.Add(time.Duration(i) * step),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return s
}

func TestSeries_TailDuration(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	s := mkSeries(start, time.Hour, 1, 2, 3, 4, 5)

	tail := s.TailDuration(2 * time.Hour)
	if len(tail) != 2 {
		t.Fatalf("expected 2 candles in 2h tail, got %d", len(tail))
	}
	if tail.First().Close != 4 || tail.Last().Close != 5 {
		t.Errorf("wrong tail contents: %v", tail.Closes())
	}

	if got := s.TailDuration(100 * time.Hour); len(got) != len(s) {
		t.Errorf("oversized tail should return full series, got %d candles", len(got))
	}
	if got := Series(nil).TailDuration(time.Hour); got != nil {
		t.Errorf("empty series tail should be nil, got %v", got)
	}
}

func TestSeries_Between(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	s := mkSeries(start, time.Minute, 1, 2, 3, 4, 5)

	// Bounds are inclusive.
	got := s.Between(start.Add(time.Minute), start.Add(3*time.Minute))
	if len(got) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(got))
	}
	if got.First().Close != 2 || got.Last().Close != 4 {
		t.Errorf("wrong window contents: %v", got.Closes())
	}

	if got := s.Between(start.Add(time.Hour), start.Add(2*time.Hour)); len(got) != 0 {
		t.Errorf("out-of-range window should be empty, got %d candles", len(got))
	}
}

func TestSeries_HighestHigh(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	s := mkSeries(start, time.Minute, 3, 9, 4)
	if got := s.HighestHigh(); got != 9 {
		t.Errorf("expected 9, got %v", got)
	}
	if got := Series(nil).HighestHigh(); got != 0 {
		t.Errorf("empty series should give 0, got %v", got)
	}
}

func TestSeries_Tail(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	s := mkSeries(start, time.Minute, 1, 2, 3)
	if got := s.Tail(2); len(got) != 2 || got.First().Close != 2 {
		t.Errorf("wrong Tail(2): %v", got.Closes())
	}
	if got := s.Tail(10); len(got) != 3 {
		t.Errorf("Tail beyond length should return full series, got %d", len(got))
	}
}
