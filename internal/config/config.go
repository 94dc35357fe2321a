package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JPM1118/dearalarm/internal/alarm"
	"github.com/JPM1118/dearalarm/internal/logger"
)

// Sound backends.
const (
	BackendAuto    = "auto"
	BackendOto     = "oto"
	BackendCommand = "command"
	BackendNone    = "none"
)

// Config holds all configuration for dearalarm. It supplies startup
// defaults only; nothing is written back.
type Config struct {
	Alarm         AlarmConfig        `yaml:"alarm"`
	Clock         ClockConfig        `yaml:"clock"`
	Sound         SoundConfig        `yaml:"sound"`
	Notifications NotificationConfig `yaml:"notifications"`
	MQTT          MQTTConfig         `yaml:"mqtt"`
	HTTP          HTTPConfig         `yaml:"http"`
	Log           LogConfig          `yaml:"log"`
}

// AlarmConfig is the initial alarm state.
type AlarmConfig struct {
	At    string `yaml:"at"`
	Armed bool   `yaml:"armed"`
}

// ClockConfig controls how often the clock is sampled.
type ClockConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
}

// SoundConfig selects the alarm clip and how it is played.
type SoundConfig struct {
	ID         string   `yaml:"id"`
	File       string   `yaml:"file"`
	Backend    string   `yaml:"backend"`
	Player     string   `yaml:"player"`
	PlayerArgs []string `yaml:"player_args"`
}

// NotificationConfig controls the terminal bell and event history.
type NotificationConfig struct {
	TerminalBell bool     `yaml:"terminal_bell"`
	BellDebounce Duration `yaml:"bell_debounce"`
	MaxEvents    int      `yaml:"max_events"`
}

// MQTTConfig enables event publishing when Broker is set.
type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

// HTTPConfig enables the control API when Listen is set.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Duration wraps time.Duration for YAML unmarshalling from strings like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Alarm: AlarmConfig{
			At:    alarm.DefaultTarget.String(),
			Armed: false,
		},
		Clock: ClockConfig{
			PollInterval: Duration{time.Second},
		},
		Sound: SoundConfig{
			ID:      alarm.DefaultSoundID,
			File:    "alarm.wav",
			Backend: BackendAuto,
		},
		Notifications: NotificationConfig{
			TerminalBell: true,
			BellDebounce: Duration{30 * time.Second},
			MaxEvents:    20,
		},
		MQTT: MQTTConfig{
			Topic: "dearalarm",
		},
		Log: LogConfig{
			Level: "info",
			Dir:   defaultLogDir(),
		},
	}
}

// Load reads the config file and merges with defaults.
// Missing file is not an error; defaults are used silently.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads config from a specific path.
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Defaults(), fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Target parses Alarm.At.
func (c Config) Target() (alarm.Target, error) {
	return alarm.ParseTarget(c.Alarm.At)
}

// Validate checks ranges. Flags override fields after loading, so callers
// re-validate after applying them.
func (c Config) Validate() error {
	if _, err := c.Target(); err != nil {
		return fmt.Errorf("alarm.at: %w", err)
	}

	pi := c.Clock.PollInterval.Duration
	if pi < 100*time.Millisecond || pi > 30*time.Second {
		return fmt.Errorf("poll_interval must be between 100ms and 30s, got %s", pi)
	}

	switch c.Sound.Backend {
	case BackendAuto, BackendOto, BackendCommand, BackendNone:
	default:
		return fmt.Errorf("sound.backend must be one of auto, oto, command, none; got %q", c.Sound.Backend)
	}
	if c.Sound.ID == "" {
		return fmt.Errorf("sound.id must not be empty")
	}

	if c.Notifications.BellDebounce.Duration < 0 {
		return fmt.Errorf("bell_debounce must not be negative, got %s", c.Notifications.BellDebounce)
	}
	if c.Notifications.MaxEvents < 1 || c.Notifications.MaxEvents > 1000 {
		return fmt.Errorf("max_events must be between 1 and 1000, got %d", c.Notifications.MaxEvents)
	}

	if _, ok := logger.ParseLogLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	return nil
}

// Path returns the config file location.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "dearalarm", "config.yml")
}

func defaultLogDir() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return os.TempDir()
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "dearalarm")
}
