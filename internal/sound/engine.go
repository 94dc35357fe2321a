package sound

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/JPM1118/dearalarm/internal/alarm"
	"github.com/JPM1118/dearalarm/internal/logger"
)

// oto allows a single context per process.
var (
	otoOnce   sync.Once
	otoCtx    *oto.Context
	otoFormat Format
	otoErr    error
)

func audioContext(f Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		var sample oto.Format
		switch f.BitDepth {
		case 8:
			sample = oto.FormatUnsignedInt8
		case 16:
			sample = oto.FormatSignedInt16LE
		default:
			otoErr = fmt.Errorf("unsupported bit depth %d", f.BitDepth)
			return
		}

		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       sample,
		})
		if err != nil {
			otoErr = fmt.Errorf("init audio context: %w", err)
			return
		}
		// Wait for the hardware audio devices to be ready
		<-ready

		otoCtx = ctx
		otoFormat = f
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if f != otoFormat {
		return nil, fmt.Errorf("clip format %+v differs from audio context %+v", f, otoFormat)
	}
	return otoCtx, nil
}

// Engine plays WAV clips through the system audio device. Each Start adds
// a looping voice; StopAll silences every voice and leaves the engine ready
// for the next Start.
type Engine struct {
	lib    Library
	mu     sync.Mutex
	voices map[*voice]struct{}
}

var (
	_ alarm.Sink             = (*Engine)(nil)
	_ alarm.PlaybackReporter = (*Engine)(nil)
)

type voice struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func (v *voice) halt() {
	v.stopOnce.Do(func() { close(v.stop) })
}

// NewEngine creates an engine over lib. The audio device is opened lazily
// on the first Start.
func NewEngine(lib Library) *Engine {
	return &Engine{
		lib:    lib,
		voices: make(map[*voice]struct{}),
	}
}

// Init opens the audio device using the format of soundID so that device
// failures surface at startup rather than at the first alarm.
func (e *Engine) Init(soundID string) error {
	clip, err := e.lib.Load(soundID)
	if err != nil {
		return err
	}
	_, err = audioContext(clip.Format)
	return err
}

// Start begins looping soundID in the background.
func (e *Engine) Start(ctx context.Context, soundID string) error {
	clip, err := e.lib.Load(soundID)
	if err != nil {
		return err
	}
	actx, err := audioContext(clip.Format)
	if err != nil {
		return err
	}

	v := &voice{stop: make(chan struct{}), done: make(chan struct{})}

	e.mu.Lock()
	e.voices[v] = struct{}{}
	e.mu.Unlock()

	go e.loop(ctx, actx, clip.Data, v)

	logger.DebugKV(ctx, "sound started", "sound", soundID)
	return nil
}

func (e *Engine) loop(ctx context.Context, actx *oto.Context, data []byte, v *voice) {
	defer func() {
		e.mu.Lock()
		delete(e.voices, v)
		e.mu.Unlock()
		close(v.done)
	}()

	for {
		p := actx.NewPlayer(bytes.NewReader(data))
		p.Play()

		for p.IsPlaying() {
			select {
			case <-v.stop:
				p.Pause()
				_ = p.Close()
				return
			case <-time.After(10 * time.Millisecond):
			}
		}

		if err := p.Close(); err != nil {
			logger.WarnKV(ctx, "close audio player", "error", err)
		}

		select {
		case <-v.stop:
			return
		default:
		}
	}
}

// StopAll silences every voice and waits for their players to close.
func (e *Engine) StopAll(ctx context.Context) error {
	e.mu.Lock()
	voices := make([]*voice, 0, len(e.voices))
	for v := range e.voices {
		voices = append(voices, v)
	}
	e.mu.Unlock()

	for _, v := range voices {
		v.halt()
	}
	for _, v := range voices {
		select {
		case <-v.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if len(voices) > 0 {
		logger.DebugKV(ctx, "sound stopped", "voices", len(voices))
	}
	return nil
}

// Playing reports whether any voice is active.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices) > 0
}
