package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JPM1118/dearalarm/internal/config"
	"github.com/JPM1118/dearalarm/internal/logger"
	"github.com/JPM1118/dearalarm/internal/version"
)

var (
	configPath  string
	flagAt      string
	flagArmed   bool
	flagSound   string
	flagBackend string
	flagListen  string
	flagLevel   string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dearalarm",
	Short: "DearAlarm: a minute-resolution terminal alarm clock",
	Long: `DearAlarm rings once when the local clock reaches the alarm time and
keeps ringing until you stop the sound.

Run without arguments to launch the dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded
		return setupLogging(cfg)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd.Context())
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/dearalarm/config.yml)")
	f.StringVar(&flagAt, "at", "", "alarm time as HH:MM")
	f.BoolVar(&flagArmed, "armed", false, "start with the alarm armed")
	f.StringVar(&flagSound, "sound", "", "WAV file to play")
	f.StringVar(&flagBackend, "backend", "", "sound backend: auto, oto, command, none")
	f.StringVar(&flagListen, "listen", "", "serve the HTTP control API on this address")
	f.StringVar(&flagLevel, "log-level", "", "log level: debug, info, warn, error")

	version.AttachCobraVersionCommand(rootCmd)
}

// loadConfig reads the config file and applies explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	c, err := config.LoadFrom(path)
	if err != nil {
		return c, err
	}

	flags := cmd.Flags()
	if flags.Changed("at") {
		c.Alarm.At = flagAt
	}
	if flags.Changed("armed") {
		c.Alarm.Armed = flagArmed
	}
	if flags.Changed("sound") {
		c.Sound.File = flagSound
	}
	if flags.Changed("backend") {
		c.Sound.Backend = flagBackend
	}
	if flags.Changed("listen") {
		c.HTTP.Listen = flagListen
	}
	if flags.Changed("log-level") {
		c.Log.Level = flagLevel
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid flags: %w", err)
	}
	return c, nil
}

func setupLogging(c config.Config) error {
	level, _ := logger.ParseLogLevel(c.Log.Level)
	logger.SetLevel(level)

	l, err := logger.NewFile(c.Log.Dir)
	if err != nil {
		// Logging is not worth refusing to ring over.
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		return nil
	}
	logger.SetLogger(l)
	return nil
}

func Execute() error {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
