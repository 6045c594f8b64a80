package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/typist/internal/service"
	"github.com/verte-zerg/typist/internal/stats"
	"github.com/verte-zerg/typist/internal/store"
)

var (
	statsUser     int64
	statsSessions bool
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a user's stats and most mistyped characters",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().Int64Var(&statsUser, "user", 0, "user id")
	cmd.Flags().BoolVar(&statsSessions, "sessions", false, "also list stored sessions")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if statsUser <= 0 {
		return fmt.Errorf("--user must be > 0")
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(store.Options{
		Driver:    settings.Database.Driver,
		DSN:       settings.Database.DSN,
		Retention: settings.Text.Retention,
	})
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, st, statsUser, service.TopErrors)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	out := cmd.OutOrStdout()
	title := fmt.Sprintf("User %d", statsUser)
	if out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd())) {
		title = headerStyle.Render(title)
	}
	if _, err := fmt.Fprintln(out, title); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderSummary(out, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderErrorTable(out, report.Errors); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !statsSessions {
		return nil
	}
	sessions, err := st.ListSessions(ctx, statsUser)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	if _, err := fmt.Fprintln(out, ""); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderSessions(out, sessions); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
