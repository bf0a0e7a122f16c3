package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectLimit int

var inspectCmd = &cobra.Command{
	Use:   "inspect [query]",
	Short: "Show the passages retrieval would ground an answer on",
	Long: `Embeds the query and prints the nearest indexed passages with their
similarity scores. Useful for judging index quality without spending
a generation call.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectLimit, "limit", "n", 0, "maximum passages to show (default from config)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg, log, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	vector, err := a.embedder.Embed(ctx, args[0])
	if err != nil {
		return fmt.Errorf("embedding query: %w", err)
	}

	k := inspectLimit
	if k <= 0 {
		k = cfg.Retrieval.TopK
	}

	hits, err := a.store.Search(ctx, vector, k, float32(cfg.Retrieval.MinScore))
	if err != nil {
		return fmt.Errorf("searching passages: %w", err)
	}

	if len(hits) == 0 {
		cmd.Println("No passages above the score threshold.")
		return nil
	}

	total, err := a.store.Count(ctx, "")
	if err == nil {
		cmd.Printf("%d hits (collection holds %d passages)\n\n", len(hits), total)
	} else {
		cmd.Printf("%d hits\n\n", len(hits))
	}

	for i, hit := range hits {
		cmd.Printf("  [%d] %.3f %s\n", i+1, hit.Score, hit.Passage.SourceType)
		if hit.Passage.URL != "" {
			cmd.Printf("      %s\n", hit.Passage.URL)
		}
		cmd.Printf("      %s\n\n", snippet(hit.Passage.Text, 200))
	}
	return nil
}

func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
