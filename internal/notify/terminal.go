package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/JPM1118/dearalarm/internal/alarm"
)

// Bell rings the terminal bell with debounce and suspension.
type Bell struct {
	mu        sync.Mutex
	out       io.Writer
	debounce  time.Duration
	lastRing  time.Time
	suspended bool
	now       func() time.Time
}

var _ alarm.Sink = (*Bell)(nil)

// NewBell creates a Bell writing BEL to stderr.
func NewBell(debounce time.Duration) *Bell {
	return &Bell{
		out:      os.Stderr,
		debounce: debounce,
		now:      time.Now,
	}
}

// WithWriter redirects the bell, mostly for tests.
func (b *Bell) WithWriter(w io.Writer) *Bell {
	b.out = w
	return b
}

// Ring attempts to ring the bell. Returns true if it actually rang.
func (b *Bell) Ring(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.suspended {
		return false
	}
	if !b.lastRing.IsZero() && now.Sub(b.lastRing) < b.debounce {
		return false
	}

	fmt.Fprint(b.out, "\a")
	b.lastRing = now
	return true
}

// Start rings the bell once for a fired alarm.
func (b *Bell) Start(_ context.Context, _ string) error {
	b.Ring(b.now())
	return nil
}

// StopAll is a no-op; a bell cannot be silenced after it rang.
func (b *Bell) StopAll(_ context.Context) error {
	return nil
}

// Suspend disables bell ringing.
func (b *Bell) Suspend() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended = true
}

// Resume re-enables bell ringing.
func (b *Bell) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended = false
}

// Observe keeps the bell suspended while the alarm is disarmed.
func (b *Bell) Observe(e alarm.Event) {
	switch e.Kind {
	case alarm.EventArmed:
		b.Resume()
	case alarm.EventDisarmed:
		b.Suspend()
	}
}
