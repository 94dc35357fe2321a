package sound

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/JPM1118/dearalarm/internal/alarm"
	"github.com/JPM1118/dearalarm/internal/logger"
)

// KnownPlayers are tried in order by LookupPlayer.
var KnownPlayers = []string{"paplay", "aplay", "afplay", "pw-play"}

// Command plays sounds by running an external player, e.g. `paplay file.wav`.
type Command struct {
	// Player is the executable name or path.
	Player string
	// Args are inserted before the file path.
	Args []string

	lib  Library
	mu   sync.Mutex
	runs map[*exec.Cmd]context.CancelFunc
}

var (
	_ alarm.Sink             = (*Command)(nil)
	_ alarm.PlaybackReporter = (*Command)(nil)
)

// NewCommand creates a sink running player for sounds from lib.
func NewCommand(player string, lib Library, args ...string) *Command {
	return &Command{
		Player: player,
		Args:   args,
		lib:    lib,
		runs:   make(map[*exec.Cmd]context.CancelFunc),
	}
}

// LookupPlayer returns the first known player found in PATH.
func LookupPlayer() (string, error) {
	for _, p := range KnownPlayers {
		if path, err := exec.LookPath(p); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no audio player found in PATH (tried %v)", KnownPlayers)
}

// playerCmd builds the player command for a file.
func (c *Command) playerCmd(ctx context.Context, path string) *exec.Cmd {
	args := append(append([]string{}, c.Args...), path)
	return exec.CommandContext(ctx, c.Player, args...)
}

// Start launches the player in the background. The process is not waited
// on synchronously; it ends on its own or via StopAll.
func (c *Command) Start(ctx context.Context, soundID string) error {
	path, err := c.lib.Resolve(soundID)
	if err != nil {
		return err
	}

	// Detached from ctx so a short-lived request context does not cut playback.
	runCtx, cancel := context.WithCancel(context.Background())
	cmd := c.playerCmd(runCtx, path)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%s %s: %w", c.Player, path, err)
	}

	c.mu.Lock()
	c.runs[cmd] = cancel
	c.mu.Unlock()

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		delete(c.runs, cmd)
		c.mu.Unlock()
		cancel()

		var exitErr *exec.ExitError
		if err != nil && runCtx.Err() == nil && errors.As(err, &exitErr) {
			logger.WarnKV(ctx, "audio player exited", "player", c.Player, "code", exitErr.ExitCode())
		}
	}()

	return nil
}

// StopAll kills every running player.
func (c *Command) StopAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cancel := range c.runs {
		cancel()
	}
	return nil
}

// Running returns the number of live player processes.
func (c *Command) Running() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.runs)
}

// Playing reports whether any player process is still running.
func (c *Command) Playing() bool {
	return c.Running() > 0
}
