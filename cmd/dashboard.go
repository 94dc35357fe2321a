package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JPM1118/dearalarm/internal/logger"
	"github.com/JPM1118/dearalarm/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive TUI dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

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

	model := tui.NewDashboard(a.ctl,
		tui.WithPoller(a.poller),
		tui.WithNotifyBar(a.bar),
		tui.WithContext(ctx),
	)

	program := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := program.Run()
	cancel() // Stop poller
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	if m, ok := finalModel.(tui.Dashboard); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
