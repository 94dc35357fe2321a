package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JPM1118/dearalarm/internal/alarm"
	"github.com/JPM1118/dearalarm/internal/clock"
	"github.com/JPM1118/dearalarm/internal/config"
	"github.com/JPM1118/dearalarm/internal/httpapi"
	"github.com/JPM1118/dearalarm/internal/logger"
	"github.com/JPM1118/dearalarm/internal/notify"
	"github.com/JPM1118/dearalarm/internal/poller"
	"github.com/JPM1118/dearalarm/internal/sound"
)

// app is the wired set of components shared by the dashboard and run commands.
type app struct {
	cfg     config.Config
	ctl     *alarm.Controller
	bar     *notify.Bar
	poller  *poller.Poller
	closers []io.Closer
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	target, err := c.Target()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: c, bar: notify.NewBar(c.Notifications.MaxEvents)}

	opts := []alarm.Option{
		alarm.WithSoundID(c.Sound.ID),
		alarm.WithObserver(a.bar.Observe),
	}

	var sinks notify.Fanout
	if s := buildSound(ctx, c); s != nil {
		sinks = append(sinks, s)
		if p, ok := s.(alarm.PlaybackReporter); ok {
			opts = append(opts, alarm.WithPlayback(p))
		}
	}
	if c.Notifications.TerminalBell {
		bell := notify.NewBell(c.Notifications.BellDebounce.Duration)
		bell.Suspend() // resumed by the ARMED event
		sinks = append(sinks, bell)
		opts = append(opts, alarm.WithObserver(bell.Observe))
	}
	if c.MQTT.Broker != "" {
		pub, err := notify.NewPahoPublisher(c.MQTT.Broker)
		if err != nil {
			logger.WarnKV(ctx, "mqtt disabled", "broker", c.MQTT.Broker, "error", err)
		} else {
			m := notify.NewMQTT(pub, c.MQTT.Topic)
			sinks = append(sinks, m)
			a.closers = append(a.closers, m)
			logger.InfoKV(ctx, "mqtt publishing", "topic", m.Topic())
		}
	}

	a.ctl = alarm.NewController(alarm.New(target), sinks, opts...)
	if c.Alarm.Armed {
		a.ctl.SetArmed(ctx, true)
	}

	a.poller = poller.New(clock.System{}, poller.Config{
		PollInterval: c.Clock.PollInterval.Duration,
	})

	return a, nil
}

// buildSound picks the sound backend. A backend that cannot start is logged
// and skipped; firing without sound still updates state and notifications.
func buildSound(ctx context.Context, c config.Config) alarm.Sink {
	lib := sound.Library{c.Sound.ID: c.Sound.File}

	otoSink := func() alarm.Sink {
		e := sound.NewEngine(lib)
		if err := e.Init(c.Sound.ID); err != nil {
			logger.WarnKV(ctx, "audio device unavailable", "file", c.Sound.File, "error", err)
			return nil
		}
		return e
	}
	commandSink := func() alarm.Sink {
		player := c.Sound.Player
		if player == "" {
			found, err := sound.LookupPlayer()
			if err != nil {
				logger.WarnKV(ctx, "no audio player", "error", err)
				return nil
			}
			player = found
		}
		return sound.NewCommand(player, lib, c.Sound.PlayerArgs...)
	}

	var s alarm.Sink
	switch c.Sound.Backend {
	case config.BackendOto:
		s = otoSink()
	case config.BackendCommand:
		s = commandSink()
	case config.BackendNone:
		return nil
	default:
		if s = otoSink(); s == nil {
			s = commandSink()
		}
	}

	if s == nil {
		logger.WarnKV(ctx, "alarm will fire silently", "backend", c.Sound.Backend)
		return nil
	}
	logger.InfoKV(ctx, "sound backend ready", "backend", fmt.Sprintf("%T", s))
	return s
}

// serveHTTP starts the control API when configured. Errors are logged; the
// alarm keeps running without it.
func (a *app) serveHTTP(ctx context.Context) {
	if a.cfg.HTTP.Listen == "" {
		return
	}
	srv := httpapi.NewServer(a.ctl, a.bar)
	go func() {
		if err := srv.ListenAndServe(ctx, a.cfg.HTTP.Listen); err != nil {
			logger.ErrorKV(ctx, "http control stopped", "error", err)
		}
	}()
}

// Close stops any playing sound and releases publishers.
func (a *app) Close(ctx context.Context) error {
	if a.ctl.Snapshot().Playing {
		a.ctl.Silence(ctx)
	}

	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
