package poller

import (
	"context"
	"testing"
	"time"

	"github.com/JPM1118/dearalarm/internal/clock"
)

func TestPoller_ReceivesUpdate(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 3, 1, 8, 0, 5, 0, time.Local))
	p := New(fake, Config{PollInterval: 100 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p.Start(ctx)

	select {
	case u := <-p.Updates():
		if u.Reading.Hour != 8 || u.Reading.Minute != 0 || u.Reading.Second != 5 {
			t.Errorf("reading = %s, want 08:00:05", u.Reading)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for poller update")
	}
}

func TestPoller_DetectsMinuteChange(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 3, 1, 7, 59, 59, 0, time.Local))
	p := New(fake, Config{PollInterval: 50 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p.Start(ctx)

	select {
	case <-p.Updates():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for first update")
	}

	fake.Advance(time.Second)

	deadline := time.After(time.Second)
	for {
		select {
		case u := <-p.Updates():
			if u.Reading.Minute != 0 {
				continue // sample taken before Advance
			}
			if !u.Transition.MinuteChanged {
				t.Errorf("07:59 → 08:00 should report MinuteChanged")
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for minute change")
		}
	}
}

func TestPoller_TriggerNow(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local))
	p := New(fake, Config{PollInterval: 10 * time.Second}) // should not tick on its own

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p.Start(ctx)

	select {
	case <-p.Updates():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for initial update")
	}

	p.TriggerNow()

	select {
	case <-p.Updates():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for triggered update")
	}
}

func TestNew_ClampsInterval(t *testing.T) {
	fake := clock.NewFake(time.Now())

	if p := New(fake, Config{}); p.cfg.PollInterval != DefaultInterval {
		t.Errorf("zero interval = %s, want %s", p.cfg.PollInterval, DefaultInterval)
	}
	if p := New(fake, Config{PollInterval: 5 * time.Minute}); p.cfg.PollInterval != MaxInterval {
		t.Errorf("long interval = %s, want %s", p.cfg.PollInterval, MaxInterval)
	}
}

func TestPoller_DropsOldestWhenFull(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local))
	p := New(fake, Config{PollInterval: time.Second})

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		fake.Advance(time.Second)
		p.sample(ctx)
	}

	if got := len(p.updateCh); got != cap(p.updateCh) {
		t.Fatalf("buffered updates = %d, want %d", got, cap(p.updateCh))
	}

	var last Update
	for len(p.updateCh) > 0 {
		last = <-p.updateCh
	}
	if last.Reading.Second != 10 {
		t.Errorf("newest update second = %d, want 10", last.Reading.Second)
	}
}

func TestPoller_Stop(t *testing.T) {
	fake := clock.NewFake(time.Now())
	p := New(fake, Config{PollInterval: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	select {
	case <-p.Updates():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for initial update")
	}

	cancel()
	time.Sleep(100 * time.Millisecond)

	select {
	case <-p.Updates():
		// Might get one more in-flight, that's OK
	default:
	}
}
