// Package cli implements the intakectl command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/intake-tracker/backend/internal/app"
	"github.com/intake-tracker/backend/internal/config"
)

// Version is printed by the version command.
var Version = "dev"

type rootOptions struct {
	configPath string
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "intakectl",
		Short: "Inspect, chart and append to the intake sheet",
		Long: `intakectl reads the configured intake sheet, shows how its columns
and times are interpreted, renders the chart and appends rows, using the
same configuration as the dashboard server.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultFileName, "path to the XML config file")

	rootCmd.AddCommand(
		newColumnsCmd(opts),
		newRecordsCmd(opts),
		newSeriesCmd(opts),
		newChartCmd(opts),
		newAppendCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				cmd.Printf("intakectl %s\n", Version)
			},
		},
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) open(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg)
}
