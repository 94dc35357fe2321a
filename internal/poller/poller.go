package poller

import (
	"context"
	"sync"
	"time"

	"github.com/JPM1118/dearalarm/internal/clock"
	"github.com/JPM1118/dearalarm/internal/logger"
)

const (
	// DefaultInterval samples the clock once per second.
	DefaultInterval = time.Second

	// MaxInterval keeps at least two samples inside every minute.
	MaxInterval = 30 * time.Second
)

// Config holds poller configuration.
type Config struct {
	PollInterval time.Duration
}

// Update is sent to the host loop on every clock sample.
type Update struct {
	Reading    clock.Reading
	Transition Transition
}

// Poller samples a clock source in the background.
type Poller struct {
	src       clock.Source
	cfg       Config
	state     ReadingState
	updateCh  chan Update
	triggerCh chan struct{}
	mu        sync.Mutex
}

// New creates a poller. Call Start() to begin polling.
func New(src clock.Source, cfg Config) *Poller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultInterval
	}
	if cfg.PollInterval > MaxInterval {
		cfg.PollInterval = MaxInterval
	}
	return &Poller{
		src:       src,
		cfg:       cfg,
		state:     ReadingState{Interval: cfg.PollInterval},
		updateCh:  make(chan Update, 4),
		triggerCh: make(chan struct{}, 1),
	}
}

// Updates returns the channel that receives clock samples.
func (p *Poller) Updates() <-chan Update {
	return p.updateCh
}

// Start begins the polling loop in a goroutine. It stops when ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

// TriggerNow requests an immediate sample.
func (p *Poller) TriggerNow() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// Already triggered, skip
	}
}

func (p *Poller) run(ctx context.Context) {
	p.sample(ctx)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sample(ctx)
		case <-p.triggerCh:
			p.sample(ctx)
			ticker.Reset(p.cfg.PollInterval)
		}
	}
}

func (p *Poller) sample(ctx context.Context) {
	r := clock.Read(p.src)

	p.mu.Lock()
	tr := p.state.Record(r)
	p.mu.Unlock()

	if tr.Jumped {
		logger.WarnKV(ctx, "clock jumped, a minute may have been skipped",
			"from", tr.Previous.String(), "to", r.String(), "gap", tr.Gap)
	}

	p.emit(Update{Reading: r, Transition: tr})
}

// emit drops the oldest pending update when the consumer falls behind.
func (p *Poller) emit(u Update) {
	select {
	case p.updateCh <- u:
	default:
		select {
		case <-p.updateCh:
		default:
		}
		select {
		case p.updateCh <- u:
		default:
		}
	}
}
