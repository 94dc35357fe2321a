package notify

import (
	"context"
	"errors"

	"github.com/JPM1118/dearalarm/internal/alarm"
)

// Fanout forwards every call to all sinks, in order.
type Fanout []alarm.Sink

var _ alarm.Sink = Fanout(nil)

func (f Fanout) Start(ctx context.Context, soundID string) error {
	var errs []error
	for _, s := range f {
		if err := s.Start(ctx, soundID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) StopAll(ctx context.Context) error {
	var errs []error
	for _, s := range f {
		if err := s.StopAll(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
