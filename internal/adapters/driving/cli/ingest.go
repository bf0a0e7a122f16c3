package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/campuswatch/watcher/internal/core/domain"
)

var (
	ingestFull     bool
	ingestWebsite  bool
	ingestHandbook bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Crawl, extract and index the knowledge sources",
	Long: `Runs one ingestion pass: crawls the university website, extracts and
chunks each page, embeds the passages and replaces the indexed data
page by page. With no source flags, both sources are refreshed.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestFull, "full", false, "delete all website passages first and rebuild")
	ingestCmd.Flags().BoolVar(&ingestWebsite, "website", false, "refresh the website crawl only")
	ingestCmd.Flags().BoolVar(&ingestHandbook, "handbook", false, "refresh the handbook only")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cfg, log, appOptions{runStore: true})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := domain.IngestOptions{
		Website:  ingestWebsite,
		Handbook: ingestHandbook,
	}
	if ingestFull {
		opts.Mode = domain.IngestFull
	}

	report, err := a.ingest.Ingest(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Ingest complete (%s mode) in %s\n",
		report.Mode, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	cmd.Printf("  Pages updated:     %d\n", report.PagesUpdated)
	cmd.Printf("  Pages skipped:     %d\n", report.PagesSkipped)
	cmd.Printf("  Pages failed:      %d\n", report.PagesFailed)
	cmd.Printf("  Handbook passages: %d\n", report.HandbookPassages)

	for _, page := range report.Pages {
		if page.Outcome == domain.PageUpdated {
			continue
		}
		cmd.Printf("  [%s] %s: %s\n", page.Outcome, page.URL, page.Error)
	}
}
