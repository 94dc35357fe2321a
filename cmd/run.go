package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JPM1118/dearalarm/internal/alarm"
	"github.com/JPM1118/dearalarm/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the alarm without the dashboard",
	Long: `Run the alarm loop headless. Press Enter to stop a ringing alarm,
or use the HTTP control API when --listen is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runHeadless(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// defaultListen is used by serve when no address is configured.
const defaultListen = "127.0.0.1:8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run headless with the HTTP control API enabled",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HTTP.Listen == "" {
			cfg.HTTP.Listen = defaultListen
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runHeadless(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

func runHeadless(ctx context.Context, in io.Reader, out io.Writer) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.WarnKV(ctx, "shutdown", "error", err)
		}
	}()

	a.poller.Start(ctx)
	a.serveHTTP(ctx)

	snap := a.ctl.Snapshot()
	fmt.Fprintf(out, "dearalarm: target %s, %s\n", snap.Target, armedWord(snap.Armed))

	lines := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lines:
			if a.ctl.Snapshot().Playing {
				a.ctl.Silence(ctx)
				fmt.Fprintln(out, "silenced")
			}
		case u := <-a.poller.Updates():
			if a.ctl.Tick(ctx, u.Reading) == alarm.Fire {
				fmt.Fprintf(out, "%s BEEP BEEP BEEP (press Enter to stop)\n", u.Reading)
			}
		}
	}
}

func armedWord(armed bool) string {
	if armed {
		return "armed"
	}
	return "disarmed"
}
