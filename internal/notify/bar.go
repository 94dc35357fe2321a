package notify

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/JPM1118/dearalarm/internal/alarm"
)

// Notification is a single alarm event shown to the user.
type Notification struct {
	Kind      alarm.EventKind
	Target    alarm.Target
	Detail    string
	Timestamp time.Time
}

// FromEvent converts a controller event.
func FromEvent(e alarm.Event) Notification {
	return Notification{
		Kind:      e.Kind,
		Target:    e.Target,
		Detail:    e.Detail,
		Timestamp: e.At,
	}
}

// Bar keeps a bounded FIFO of notifications. Safe for concurrent use so
// the HTTP surface and the dashboard can share one.
type Bar struct {
	mu       sync.Mutex
	items    []Notification
	maxStore int
}

// NewBar creates a notification bar with the given buffer size.
func NewBar(maxStore int) *Bar {
	if maxStore <= 0 {
		maxStore = 1
	}
	return &Bar{
		items:    make([]Notification, 0, maxStore),
		maxStore: maxStore,
	}
}

// Push adds a notification, trimming oldest if at capacity.
func (b *Bar) Push(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, n)
	if len(b.items) > b.maxStore {
		b.items = b.items[len(b.items)-b.maxStore:]
	}
}

// Observe is an alarm.Controller observer that records every event.
func (b *Bar) Observe(e alarm.Event) {
	b.Push(FromEvent(e))
}

// Visible returns the most recent notifications (max 2), oldest first.
func (b *Bar) Visible() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := 0
	if len(b.items) > 2 {
		start = len(b.items) - 2
	}
	out := make([]Notification, len(b.items)-start)
	copy(out, b.items[start:])
	return out
}

// All returns a copy of every buffered notification, oldest first.
func (b *Bar) All() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Notification, len(b.items))
	copy(out, b.items)
	return out
}

// Clear drops all notifications.
func (b *Bar) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = b.items[:0]
}

// Len returns the total number of buffered notifications.
func (b *Bar) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Render formats the visible notifications for display within the given width.
func (b *Bar) Render(width int, now time.Time) string {
	visible := b.Visible()
	if len(visible) == 0 {
		return ""
	}

	parts := make([]string, 0, len(visible))
	for _, n := range visible {
		parts = append(parts, formatNotification(n, now))
	}
	result := strings.Join(parts, " │ ")

	runes := []rune(result)
	if len(runes) > width {
		if width > 1 {
			result = string(runes[:width-1]) + "…"
		} else if width > 0 {
			result = string(runes[:width])
		} else {
			result = ""
		}
	}

	return result
}

func formatNotification(n Notification, now time.Time) string {
	age := now.Sub(n.Timestamp).Truncate(time.Second)
	var ageStr string
	switch {
	case age < time.Minute:
		ageStr = fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		ageStr = fmt.Sprintf("%dm ago", int(age.Minutes()))
	default:
		ageStr = fmt.Sprintf("%dh ago", int(age.Hours()))
	}

	text := fmt.Sprintf("● %s %s", n.Kind, n.Target)
	if n.Detail != "" {
		text += ": " + n.Detail
	}
	return fmt.Sprintf("%s (%s)", text, ageStr)
}
