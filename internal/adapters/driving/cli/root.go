// Package cli wires the application together and exposes its commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.uber.org/zap"

	"github.com/campuswatch/watcher/internal/config"
)

// Set via ldflags at build time.
var version = "dev"

var (
	cfgPath string
	verbose bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "watcher",
	Short: "The Watcher answers handbook and campus questions over chat",
	Long: `The Watcher crawls the university website, ingests the student
handbook and answers slash-command questions grounded in what it finds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		log, err = buildLogger(verbose)
		if err != nil {
			return fmt.Errorf("initialising logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "watcher.toml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func buildLogger(debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}

// Execute runs the CLI. Returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}
