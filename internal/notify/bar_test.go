package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/JPM1118/dearalarm/internal/alarm"
)

func TestBar_PushAndVisible(t *testing.T) {
	b := NewBar(20)
	now := time.Now()

	b.Push(Notification{Kind: alarm.EventArmed, Timestamp: now})
	b.Push(Notification{Kind: alarm.EventFired, Timestamp: now})
	b.Push(Notification{Kind: alarm.EventSilenced, Timestamp: now})

	visible := b.Visible()
	if len(visible) != 2 {
		t.Fatalf("Visible() = %d items, want 2", len(visible))
	}
	if visible[0].Kind != alarm.EventFired {
		t.Errorf("visible[0].Kind = %q, want FIRED", visible[0].Kind)
	}
	if visible[1].Kind != alarm.EventSilenced {
		t.Errorf("visible[1].Kind = %q, want SILENCED", visible[1].Kind)
	}
}

func TestBar_VisibleWithOneItem(t *testing.T) {
	b := NewBar(20)
	b.Push(Notification{Kind: alarm.EventArmed})

	if len(b.Visible()) != 1 {
		t.Fatalf("Visible() = %d items, want 1", len(b.Visible()))
	}
}

func TestBar_VisibleEmpty(t *testing.T) {
	b := NewBar(20)
	if len(b.Visible()) != 0 {
		t.Error("empty bar should have no visible items")
	}
}

func TestBar_MaxBuffer(t *testing.T) {
	b := NewBar(3)
	now := time.Now()

	for i := 0; i < 10; i++ {
		b.Push(Notification{Target: alarm.Target{Hour: i}, Timestamp: now})
	}

	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (max buffer)", b.Len())
	}

	visible := b.Visible()
	if visible[0].Target.Hour != 8 {
		t.Errorf("visible[0] hour = %d, want 8", visible[0].Target.Hour)
	}
	if visible[1].Target.Hour != 9 {
		t.Errorf("visible[1] hour = %d, want 9", visible[1].Target.Hour)
	}
}

func TestBar_Clear(t *testing.T) {
	b := NewBar(20)
	b.Push(Notification{Kind: alarm.EventFired})
	b.Push(Notification{Kind: alarm.EventSilenced})

	b.Clear()

	if b.Len() != 0 {
		t.Errorf("after clear: Len() = %d, want 0", b.Len())
	}
}

func TestBar_Observe(t *testing.T) {
	b := NewBar(20)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)

	b.Observe(alarm.Event{Kind: alarm.EventSinkError, At: at, Target: alarm.Target{Hour: 8}, Detail: "no device"})

	all := b.All()
	if len(all) != 1 {
		t.Fatalf("All() = %d items, want 1", len(all))
	}
	if all[0].Detail != "no device" || !all[0].Timestamp.Equal(at) {
		t.Errorf("observed notification = %+v", all[0])
	}
}

func TestBar_Render(t *testing.T) {
	b := NewBar(20)
	now := time.Now()

	b.Push(Notification{
		Kind:      alarm.EventFired,
		Target:    alarm.Target{Hour: 8, Minute: 0},
		Timestamp: now.Add(-2 * time.Minute),
	})

	result := b.Render(80, now)
	if !strings.Contains(result, "FIRED") {
		t.Errorf("render should contain event kind, got: %q", result)
	}
	if !strings.Contains(result, "08:00") {
		t.Errorf("render should contain target, got: %q", result)
	}
	if !strings.Contains(result, "2m ago") {
		t.Errorf("render should contain relative time, got: %q", result)
	}
}

func TestBar_RenderEmpty(t *testing.T) {
	b := NewBar(20)
	if b.Render(80, time.Now()) != "" {
		t.Error("empty bar should render empty string")
	}
}

func TestBar_RenderTruncation(t *testing.T) {
	b := NewBar(20)
	now := time.Now()

	b.Push(Notification{Kind: alarm.EventSinkError, Detail: "audio device unavailable", Timestamp: now})
	b.Push(Notification{Kind: alarm.EventSinkError, Detail: "mqtt publish timeout", Timestamp: now})

	result := b.Render(30, now)
	if n := len([]rune(result)); n > 30 {
		t.Errorf("render should be truncated to 30 runes, got %d: %q", n, result)
	}
}
