package main

import (
	"github.com/spf13/cobra"

	"github.com/fletcher/iebusctl/internal/app"
)

type composeFlags struct {
	configPath string
	verbose    bool
	debug      bool
}

func newComposeCmd() *cobra.Command {
	flags := &composeFlags{}

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Build a message interactively and send it",
		Long: `Walk through building an IEBus message field by field, then hand it
to the send pipeline. Useful when you do not remember the token format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			return app.RunCompose(app.ComposeOptions{
				ConfigPath: flags.configPath,
				Verbose:    flags.verbose,
				Debug:      flags.debug,
			})
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to YAML config file")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Verbose logging")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Debug logging")

	return cmd
}
