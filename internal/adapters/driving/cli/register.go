package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campuswatch/watcher/internal/config"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the slash command with the chat platform",
	Long: `One-time setup: registers the /watcher command so it appears in the
platform's command picker. Requires ` + config.EnvBotToken + ` and ` +
		config.EnvApplicationID + `.`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, _ []string) error {
	if cfg.Discord.BotToken == "" {
		return errors.New(config.EnvBotToken + " is not set")
	}
	if cfg.Discord.ApplicationID == "" {
		return errors.New(config.EnvApplicationID + " is not set")
	}

	a, err := buildApp(cfg, log, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	command := driven.Command{
		Name:              cfg.Discord.CommandName,
		Description:       "Summon The Watcher to observe your timeline",
		OptionName:        "query",
		OptionDescription: "What nexus event troubles you?",
	}

	if err := a.delivery.RegisterCommand(cmd.Context(), cfg.Discord.ApplicationID, command); err != nil {
		return fmt.Errorf("registering command: %w", err)
	}

	cmd.Printf("Command /%s registered.\n", command.Name)
	return nil
}
