package cmd

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JPM1118/dearalarm/internal/config"
	"github.com/JPM1118/dearalarm/internal/sound"
)

var errCheckFailed = errors.New("check failed")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Print the effective configuration and verify the sound setup",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.OutOrStdout(), cfg, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(out io.Writer, c config.Config, now time.Time) error {
	target, err := c.Target()
	if err != nil {
		return err
	}

	failed := false
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "target\t%s\n", target)
	fmt.Fprintf(w, "armed\t%t\n", c.Alarm.Armed)
	fmt.Fprintf(w, "next\t%s\n", target.Next(now).Format("Mon 02 Jan 15:04"))
	fmt.Fprintf(w, "backend\t%s\n", c.Sound.Backend)

	lib := sound.Library{c.Sound.ID: c.Sound.File}
	if errs := lib.Check(); len(errs) > 0 {
		failed = true
		for _, e := range errs {
			fmt.Fprintf(w, "sound\tFAIL %v\n", e)
		}
	} else if _, err := lib.Load(c.Sound.ID); err != nil {
		failed = true
		fmt.Fprintf(w, "sound\tFAIL %v\n", err)
	} else {
		path, _ := lib.Resolve(c.Sound.ID)
		fmt.Fprintf(w, "sound\tok %s\n", path)
	}

	if c.Sound.Backend == config.BackendCommand || c.Sound.Backend == config.BackendAuto {
		fmt.Fprintf(w, "player\t%s\n", describePlayer(c.Sound.Player))
	}
	if c.MQTT.Broker != "" {
		fmt.Fprintf(w, "mqtt\t%s (%s/events)\n", c.MQTT.Broker, c.MQTT.Topic)
	}
	if c.HTTP.Listen != "" {
		fmt.Fprintf(w, "http\t%s\n", c.HTTP.Listen)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed {
		return errCheckFailed
	}
	return nil
}

func describePlayer(configured string) string {
	if configured != "" {
		path, err := exec.LookPath(configured)
		if err != nil {
			return "FAIL " + err.Error()
		}
		return path
	}
	path, err := sound.LookupPlayer()
	if err != nil {
		return "none: " + err.Error()
	}
	return path
}
