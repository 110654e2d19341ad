package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/badgeforge/internal/history"
)

// NewHistoryCommand creates the 'badgeforge history' command group.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the badge-generation run history",
	}

	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show recent badge-generation runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryShow,
	}

	cmd.Flags().Int("limit", 10, "Maximum number of runs to display (0 = all)")

	return cmd
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}
}

// openHistory opens the configured history store, failing with a friendly
// message when history has never been recorded.
func openHistory(cmd *cobra.Command) (*history.Store, error) {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("run history is disabled in configuration")
	}
	if _, err := os.Stat(cfg.History.DBPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no run history found at %s", cfg.History.DBPath)
	}

	return history.NewStore(cfg.History.DBPath)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	output := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(output, "No runs recorded.")
		return nil
	}

	okColor := color.New(color.FgGreen)
	failColor := color.New(color.FgRed)

	for _, run := range runs {
		verdict := okColor.Sprint("ok")
		if !run.Success {
			verdict = failColor.Sprint("failed")
		}

		coverage := "unknown"
		if run.CoverageKnown {
			coverage = fmt.Sprintf("%.1f%%", run.CoveragePct)
		}

		fmt.Fprintf(output, "%s  %s  v%s  build %s  tests %d/%d  coverage %s  (%s)\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			verdict,
			run.Version,
			run.BuildStatus,
			run.TestsPassed,
			run.TestsPassed+run.TestsFailed,
			coverage,
			run.Duration.Round(time.Millisecond),
		)
	}

	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.Clear(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d run(s).\n", deleted)
	return nil
}
