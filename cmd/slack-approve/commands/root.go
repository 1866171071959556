package commands

import (
	"github.com/spf13/cobra"

	"github.com/pipegate/slack-approve/internal/config"
)

var logLevelOverride string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "slack-approve",
		Short:        "Slack approval gate for GitHub Actions",
		Long:         `slack-approve posts an interactive approval message to a Slack channel and blocks the invoking workflow until the configured approvers approve or reject it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogger(config.DefaultConfig(), logLevelOverride)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level (debug|info|warn|error)")

	cmd.AddCommand(
		NewRunCmd(),
		NewVersionCmd(),
	)

	return cmd
}
