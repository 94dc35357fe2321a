package alarm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JPM1118/dearalarm/internal/clock"
	"github.com/JPM1118/dearalarm/internal/testutil"
	"github.com/stretchr/testify/require"
)

func readingAt(h, m, s int) clock.Reading {
	return clock.ReadingAt(time.Date(2026, 3, 1, h, m, s, 0, time.Local))
}

func TestController_FireStartsSinkOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &testutil.MockSink{}
	c := NewController(New(Target{8, 0}), sink, WithSoundID("rooster"))
	c.SetArmed(ctx, true)

	for s := 0; s < 60; s++ {
		c.Tick(ctx, readingAt(8, 0, s))
	}

	require.Equal(t, []string{"rooster"}, sink.Started)
	require.True(t, c.Snapshot().Playing)
}

func TestController_SilenceStopsSink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &testutil.MockSink{}
	c := NewController(New(Target{8, 0}), sink)
	c.SetArmed(ctx, true)

	require.Equal(t, Fire, c.Tick(ctx, readingAt(8, 0, 1)))
	c.Silence(ctx)

	require.Equal(t, 1, sink.StopCount())
	s := c.Snapshot()
	require.False(t, s.Playing)
	require.True(t, s.Armed)
	require.Equal(t, AlreadyFired, c.Tick(ctx, readingAt(8, 0, 2)))
	require.Equal(t, 1, sink.StartCount())
}

func TestController_SinkErrorsAreSwallowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &testutil.MockSink{
		StartErr: errors.New("no audio device"),
		StopErr:  errors.New("no audio device"),
	}

	var events []Event
	c := NewController(New(Target{8, 0}), sink, WithObserver(func(e Event) {
		events = append(events, e)
	}))
	c.SetArmed(ctx, true)

	require.Equal(t, Fire, c.Tick(ctx, readingAt(8, 0, 0)))
	require.True(t, c.Snapshot().Playing)
	c.Silence(ctx)
	require.False(t, c.Snapshot().Playing)

	kinds := make([]EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	require.Equal(t, []EventKind{EventArmed, EventFired, EventSinkError, EventSilenced, EventSinkError}, kinds)
	require.Equal(t, "no audio device", events[2].Detail)
}

func TestController_NilSink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewController(New(Target{8, 0}), nil)
	c.SetArmed(ctx, true)

	require.Equal(t, Fire, c.Tick(ctx, readingAt(8, 0, 0)))
	c.Silence(ctx)
	require.False(t, c.Snapshot().Playing)
}

func TestController_ToggleAndTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.Local)
	var got []Event
	c := NewController(New(DefaultTarget), &testutil.MockSink{},
		WithClock(clock.NewFake(start)),
		WithObserver(func(e Event) { got = append(got, e) }),
	)

	require.True(t, c.ToggleArmed(ctx))
	require.False(t, c.ToggleArmed(ctx))
	c.SetTarget(ctx, 6, 45)

	require.Len(t, got, 3)
	require.Equal(t, EventArmed, got[0].Kind)
	require.Equal(t, EventDisarmed, got[1].Kind)
	require.Equal(t, EventTargetSet, got[2].Kind)
	require.Equal(t, Target{6, 45}, got[2].Target)
	require.Equal(t, start, got[2].At)
	require.Equal(t, Target{6, 45}, c.Snapshot().Target)
}

func TestController_ConcurrentCommands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &testutil.MockSink{}
	c := NewController(New(Target{8, 0}), sink)
	c.SetArmed(ctx, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for s := 0; s < 50; s++ {
				c.Tick(ctx, readingAt(8, 0, s))
			}
		}()
		go func() {
			defer wg.Done()
			for s := 0; s < 50; s++ {
				c.Silence(ctx)
				c.SetArmed(ctx, true)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, sink.StartCount(), "only one fire across concurrent ticks of one minute")
}

// blockingSink holds Start until release is closed.
type blockingSink struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSink) Start(_ context.Context, _ string) error {
	close(b.started)
	<-b.release
	return nil
}

func (b *blockingSink) StopAll(_ context.Context) error { return nil }

func TestController_SlowSinkDoesNotBlockState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := &blockingSink{started: make(chan struct{}), release: make(chan struct{})}
	c := NewController(New(Target{8, 0}), sink)
	c.SetArmed(ctx, true)

	fired := make(chan Decision, 1)
	go func() { fired <- c.Tick(ctx, readingAt(8, 0, 0)) }()
	<-sink.started

	snap := make(chan Snapshot, 1)
	go func() { snap <- c.Snapshot() }()
	select {
	case s := <-snap:
		require.True(t, s.Playing)
	case <-time.After(time.Second):
		t.Fatal("Snapshot blocked behind a sink call")
	}
	require.Equal(t, AlreadyFired, c.Tick(ctx, readingAt(8, 0, 1)))

	close(sink.release)
	require.Equal(t, Fire, <-fired)
}

func TestController_MultipleObservers(t *testing.T) {
	t.Parallel()

	var first, second []EventKind
	c := NewController(New(DefaultTarget), nil,
		WithObserver(func(e Event) { first = append(first, e.Kind) }),
		WithObserver(func(e Event) { second = append(second, e.Kind) }),
	)
	c.SetArmed(context.Background(), true)

	require.Equal(t, []EventKind{EventArmed}, first)
	require.Equal(t, first, second)
}

type fakePlayback bool

func (f fakePlayback) Playing() bool { return bool(f) }

func TestController_SinkPlaying(t *testing.T) {
	t.Parallel()

	_, ok := NewController(New(DefaultTarget), nil).SinkPlaying()
	require.False(t, ok)

	playing, ok := NewController(New(DefaultTarget), nil, WithPlayback(fakePlayback(true))).SinkPlaying()
	require.True(t, ok)
	require.True(t, playing)
}
