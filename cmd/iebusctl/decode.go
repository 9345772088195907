package main

import (
	"github.com/spf13/cobra"

	"github.com/fletcher/iebusctl/internal/app"
)

type decodeFlags struct {
	files      []string
	output     string
	channel    string
	tui        bool
	configPath string
	verbose    bool
	debug      bool
}

func newDecodeCmd() *cobra.Command {
	flags := &decodeFlags{}

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode capture files into a message log",
		Long: `Run the sigrok-cli iebus decoder over capture files and present the
merged, time-ordered message stream. By default the log is written next
to the captures and a summary table is printed.`,
		Example: `  # Decode a capture set, writing drive_.txt
  iebusctl decode --files drive_01.sr --files drive_02.sr

  # Browse messages interactively
  iebusctl decode --files drive_01.sr --tui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if len(flags.files) == 0 {
				return missingFlagError(cmd, "--files")
			}
			return app.RunDecode(app.DecodeOptions{
				Files:      flags.files,
				Output:     flags.output,
				Channel:    flags.channel,
				TUI:        flags.tui,
				ConfigPath: flags.configPath,
				Verbose:    flags.verbose,
				Debug:      flags.debug,
			})
		},
	}

	cmd.Flags().StringArrayVar(&flags.files, "files", nil, "Capture files to decode (repeatable)")
	cmd.Flags().StringVar(&flags.output, "output", "", `Message log path ("-" skips the file)`)
	cmd.Flags().StringVar(&flags.channel, "channel", "", "Keep only this channel (RX or TX)")
	cmd.Flags().BoolVar(&flags.tui, "tui", false, "Browse messages in an interactive viewer")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to YAML config file")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Verbose logging")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Debug logging")

	return cmd
}
