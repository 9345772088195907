package main

import (
	"github.com/spf13/cobra"

	"github.com/fletcher/iebusctl/internal/app"
)

type sendFlags struct {
	message    string
	files      []string
	filesRaw   []string
	channel    string
	glitch     int
	regular    int
	simulate   bool
	slowdown   float64
	device     string
	configPath string
	verbose    bool
	debug      bool
}

func newSendCmd() *cobra.Command {
	flags := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Transmit a message or replay captured traffic",
		Long: `Build an IEBus waveform and transmit it through the SPI device.
The waveform comes from one of three sources: a single message string,
decoded capture files replayed with synthesized timing, or raw capture
samples replayed bit for bit.`,
		Example: `  # One-off unicast message, printed instead of transmitted
  iebusctl send --simulate --message "- 190 440 f 2 60 01"

  # Replay decoded frames from a capture at their original spacing
  iebusctl send --files drive.sr

  # Replay raw samples from the TX channel at half speed
  iebusctl send --files-raw drive.sr --channel TX --slowdown 2.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if flags.message == "" && len(flags.files) == 0 && len(flags.filesRaw) == 0 {
				return missingFlagError(cmd, "--message, --files or --files-raw")
			}
			return app.RunSend(app.SendOptions{
				Message:    flags.message,
				Files:      flags.files,
				FilesRaw:   flags.filesRaw,
				Channel:    flags.channel,
				Glitch:     flags.glitch,
				Regular:    flags.regular,
				Simulate:   flags.simulate,
				Slowdown:   flags.slowdown,
				Device:     flags.device,
				ConfigPath: flags.configPath,
				Verbose:    flags.verbose,
				Debug:      flags.debug,
			})
		},
	}

	cmd.Flags().StringVar(&flags.message, "message", "", `Message string, e.g. "- 190 440 f 2 60 01"`)
	cmd.Flags().StringArrayVar(&flags.files, "files", nil, "Capture files to decode and replay (repeatable)")
	cmd.Flags().StringArrayVar(&flags.filesRaw, "files-raw", nil, "Capture files to replay sample for sample (repeatable)")
	cmd.Flags().StringVar(&flags.channel, "channel", "", "Capture channel to replay (default from config, RX)")
	cmd.Flags().IntVar(&flags.glitch, "glitch", 0, "Idle samples prepended before the first frame")
	cmd.Flags().IntVar(&flags.regular, "regular", 0, "Fixed sample interval between replayed frames (0 keeps original timing)")
	cmd.Flags().BoolVar(&flags.simulate, "simulate", false, "Print the waveform instead of transmitting")
	cmd.Flags().Float64Var(&flags.slowdown, "slowdown", 0, "Clock scaling factor (>1 slows the bus down)")
	cmd.Flags().StringVar(&flags.device, "device", "", "spidev node (default from config, /dev/spidev0.0)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to YAML config file")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Verbose logging")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Debug logging")

	return cmd
}
