package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campuswatch/watcher/internal/core/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the most recent ingest run",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cfg, log, appOptions{runStore: true})
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.runs.LastReport(cmd.Context())
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("No ingest runs recorded yet.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading run history: %w", err)
	}

	cmd.Printf("Last run: %s mode, started %s\n",
		report.Mode, report.StartedAt.Local().Format("2006-01-02 15:04:05"))
	printReport(cmd, report)
	return nil
}
