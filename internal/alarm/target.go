package alarm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Target is the hour and minute the alarm fires at.
type Target struct {
	Hour   int
	Minute int
}

// ParseTarget parses "HH:MM" (or "H:MM") into a Target.
func ParseTarget(s string) (Target, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Target{}, fmt.Errorf("invalid alarm time %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return Target{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return Target{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	t := Target{Hour: hour, Minute: minute}
	if !t.Valid() {
		return Target{}, fmt.Errorf("alarm time %q out of range", s)
	}
	return t, nil
}

// Valid reports whether the target is a time a real clock can show.
func (t Target) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// String formats the target as HH:MM.
func (t Target) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Next returns the start of the next minute at or after now that matches t.
// The result is zero for an invalid target.
func (t Target) Next(now time.Time) time.Time {
	if !t.Valid() {
		return time.Time{}
	}
	now = now.Local()
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if next.Before(now.Truncate(time.Minute)) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// WrapHour brings h into 0–23 with clock arithmetic.
func WrapHour(h int) int {
	return wrap(h, 24)
}

// WrapMinute brings m into 0–59 with clock arithmetic.
func WrapMinute(m int) int {
	return wrap(m, 60)
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
