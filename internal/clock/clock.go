package clock

import (
	"fmt"
	"sync"
	"time"
)

// Source supplies the current host time.
// System implements this interface. Tests can provide Fake.
type Source interface {
	Now() time.Time
}

// Reading is a single sample of the local wall clock.
type Reading struct {
	Hour   int
	Minute int
	Second int
	Time   time.Time
}

// ReadingAt converts t to local time and splits it into a Reading.
func ReadingAt(t time.Time) Reading {
	t = t.Local()
	return Reading{
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
		Time:   t,
	}
}

// Read samples src once.
func Read(src Source) Reading {
	return ReadingAt(src.Now())
}

// String formats the reading as HH:MM:SS.
func (r Reading) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", r.Hour, r.Minute, r.Second)
}

// SameMinute reports whether both readings fall in the same calendar minute.
func (r Reading) SameMinute(o Reading) bool {
	return r.Time.Truncate(time.Minute).Equal(o.Time.Truncate(time.Minute))
}

// System reads the host clock.
type System struct{}

var _ Source = System{}

func (System) Now() time.Time {
	return time.Now()
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a fake clock at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
