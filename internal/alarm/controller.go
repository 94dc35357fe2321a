package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/JPM1118/dearalarm/internal/clock"
	"github.com/JPM1118/dearalarm/internal/logger"
)

// DefaultSoundID names the clip requested when the alarm fires.
const DefaultSoundID = "alarm"

// Sink produces the notification. Implementations may stop more than the
// clip they started.
type Sink interface {
	Start(ctx context.Context, soundID string) error
	StopAll(ctx context.Context) error
}

// PlaybackReporter is implemented by sinks that can tell whether their
// sound is still audible.
type PlaybackReporter interface {
	Playing() bool
}

// EventKind labels something the controller did.
type EventKind string

const (
	EventFired     EventKind = "FIRED"
	EventSilenced  EventKind = "SILENCED"
	EventArmed     EventKind = "ARMED"
	EventDisarmed  EventKind = "DISARMED"
	EventTargetSet EventKind = "TARGET_SET"
	EventSinkError EventKind = "SINK_ERROR"
)

// Event is reported to the observer after each state-changing call.
type Event struct {
	Kind   EventKind
	At     time.Time
	Target Target
	Detail string
}

// Controller serializes access to an Engine and drives a Sink from its
// decisions. All methods are safe for concurrent use.
//
// Sink calls run after the state lock is released, so a slow sink never
// blocks Snapshot or ticks that do not fire. sinkMu keeps sink calls in the
// order of the state changes that caused them.
type Controller struct {
	mu        sync.Mutex
	sinkMu    sync.Mutex
	engine    *Engine
	sink      Sink
	playback  PlaybackReporter
	soundID   string
	now       func() time.Time
	observers []func(Event)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSoundID overrides the sound requested on Fire.
func WithSoundID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.soundID = id
		}
	}
}

// WithObserver registers fn to receive events. It may be given more than
// once; observers run in registration order with the controller lock held
// and must not call back into the controller.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// WithPlayback sets where SinkPlaying looks for actual playback state.
func WithPlayback(p PlaybackReporter) Option {
	return func(c *Controller) {
		c.playback = p
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(src clock.Source) Option {
	return func(c *Controller) {
		c.now = src.Now
	}
}

// NewController wraps engine. A nil sink makes Fire a no-op.
func NewController(engine *Engine, sink Sink, opts ...Option) *Controller {
	c := &Controller{
		engine:  engine,
		sink:    sink,
		soundID: DefaultSoundID,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tick feeds a clock reading to the engine and starts the sink on Fire.
// Sink failures are logged and reported as events, never returned.
func (c *Controller) Tick(ctx context.Context, r clock.Reading) Decision {
	c.mu.Lock()

	d := c.engine.Tick(r.Hour, r.Minute)
	if d != Fire {
		c.mu.Unlock()
		return d
	}

	logger.InfoKV(ctx, "alarm fired", "target", c.engine.Target().String(), "clock", r.String())
	c.emit(EventFired, "")

	c.callSink(ctx, "notification start failed", func(s Sink) error {
		return s.Start(ctx, c.soundID)
	})
	return d
}

// SetTarget overwrites the alarm time.
func (c *Controller) SetTarget(ctx context.Context, hour, minute int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.engine.SetTarget(hour, minute)
	logger.DebugKV(ctx, "alarm target set", "target", c.engine.Target().String())
	c.emit(EventTargetSet, "")
}

// SetArmed arms or disarms the alarm.
func (c *Controller) SetArmed(ctx context.Context, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setArmed(ctx, active)
}

// ToggleArmed flips the armed flag and returns the new value.
func (c *Controller) ToggleArmed(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := !c.engine.Armed()
	c.setArmed(ctx, active)
	return active
}

func (c *Controller) setArmed(ctx context.Context, active bool) {
	c.engine.SetArmed(active)
	logger.InfoKV(ctx, "alarm armed state changed", "armed", active, "target", c.engine.Target().String())
	if active {
		c.emit(EventArmed, "")
	} else {
		c.emit(EventDisarmed, "")
	}
}

// Silence stops the sound. The alarm stays armed and the current minute
// does not fire again.
func (c *Controller) Silence(ctx context.Context) {
	c.mu.Lock()

	c.engine.Silence()
	logger.InfoKV(ctx, "alarm silenced")
	c.emit(EventSilenced, "")

	c.callSink(ctx, "notification stop failed", func(s Sink) error {
		return s.StopAll(ctx)
	})
}

// callSink runs fn against the sink. c.mu must be held on entry and is
// released before fn runs.
func (c *Controller) callSink(ctx context.Context, msg string, fn func(Sink) error) {
	if c.sink == nil {
		c.mu.Unlock()
		return
	}

	c.sinkMu.Lock()
	c.mu.Unlock()
	err := fn(c.sink)
	c.sinkMu.Unlock()

	if err == nil {
		return
	}
	logger.WarnKV(ctx, msg, "sound", c.soundID, "error", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.emit(EventSinkError, err.Error())
}

// Snapshot returns the engine state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.engine.Snapshot()
}

// SinkPlaying reports whether the sound backend is still audible. ok is
// false when no backend reports playback.
func (c *Controller) SinkPlaying() (playing, ok bool) {
	if c.playback == nil {
		return false, false
	}
	return c.playback.Playing(), true
}

func (c *Controller) emit(kind EventKind, detail string) {
	if len(c.observers) == 0 {
		return
	}
	e := Event{
		Kind:   kind,
		At:     c.now(),
		Target: c.engine.Target(),
		Detail: detail,
	}
	for _, fn := range c.observers {
		fn(e)
	}
}
