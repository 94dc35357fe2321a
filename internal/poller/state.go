package poller

import (
	"time"

	"github.com/JPM1118/dearalarm/internal/clock"
)

// Transition describes how a sample relates to the one before it.
type Transition struct {
	Previous      clock.Reading
	MinuteChanged bool
	// Jumped is set when samples are more than a minute (or two poll
	// intervals) apart, or the clock went backwards across a minute.
	Jumped bool
	Gap    time.Duration
}

// ReadingState tracks continuity between consecutive clock samples.
type ReadingState struct {
	Interval time.Duration
	Last     clock.Reading
	Samples  int
	Jumps    int
}

// Record stores r and classifies the transition from the previous sample.
// The first sample is never a transition.
func (s *ReadingState) Record(r clock.Reading) Transition {
	defer func() {
		s.Last = r
		s.Samples++
	}()

	if s.Samples == 0 {
		return Transition{}
	}

	tr := Transition{
		Previous:      s.Last,
		MinuteChanged: !s.Last.SameMinute(r),
		Gap:           r.Time.Sub(s.Last.Time),
	}

	limit := time.Minute
	if 2*s.Interval > limit {
		limit = 2 * s.Interval
	}
	if tr.Gap > limit || (tr.Gap < 0 && tr.MinuteChanged) {
		tr.Jumped = true
		s.Jumps++
	}
	return tr
}
