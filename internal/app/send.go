package app

import (
	"context"
	"fmt"
	"os"

	"github.com/fletcher/iebusctl/internal/config"
	"github.com/fletcher/iebusctl/internal/errors"
	"github.com/fletcher/iebusctl/internal/iebus"
	"github.com/fletcher/iebusctl/internal/logging"
	"github.com/fletcher/iebusctl/internal/sigrok"
	"github.com/fletcher/iebusctl/internal/spidev"
	"github.com/fletcher/iebusctl/internal/transport"
)

// SendOptions selects the waveform source and transmission settings for
// one send run. Exactly one of Message, Files or FilesRaw must be set;
// when more than one is given they are honored in that priority order.
type SendOptions struct {
	Message  string   // single token-string message
	Files    []string // captures processed with protocol decoding
	FilesRaw []string // captures replayed sample-for-sample

	Channel  string
	Glitch   int
	Regular  int
	Simulate bool
	Slowdown float64
	Device   string

	ConfigPath string
	Verbose    bool
	Debug      bool
}

// RunSend builds the transmission waveform from the selected source and
// either prints it (simulate) or clocks it out of the SPI device.
func RunSend(opts SendOptions) error {
	log, err := newLogger(opts.Verbose, opts.Debug)
	if err != nil {
		return err
	}
	defer log.Close()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	applySendDefaults(&opts, cfg)

	signal, err := buildSignal(context.Background(), opts, cfg, log)
	if err != nil {
		return err
	}

	if opts.Simulate {
		fmt.Fprintf(os.Stdout, "Simulation mode - sample count: %d\n", len(signal))
		if opts.Slowdown != 1.0 {
			fmt.Fprintf(os.Stdout, "Note: slowdown %gx would be applied during actual transmission\n", opts.Slowdown)
		}
		fmt.Fprintln(os.Stdout, signal.String())
		return nil
	}

	packed := iebus.Pack(signal)
	log.LogTransmit(opts.Device, len(signal), len(packed), opts.Slowdown)
	log.LogHex("packed waveform", packed[:min(len(packed), 64)])

	dev, err := spidev.Open(opts.Device)
	if err != nil {
		return errors.WrapDeviceError(err, opts.Device)
	}
	defer dev.Close()

	if err := dev.Transmit(packed, opts.Slowdown); err != nil {
		return errors.WrapDeviceError(err, opts.Device)
	}
	return nil
}

// buildSignal produces the finished waveform for the selected source mode.
func buildSignal(ctx context.Context, opts SendOptions, cfg *config.Config, log *logging.Logger) (iebus.Signal, error) {
	switch {
	case opts.Message != "":
		log.Info("processing single message: %s", opts.Message)
		m, err := iebus.ParseMessage(opts.Message)
		if err != nil {
			return nil, errors.WrapMessageError(err, opts.Message)
		}
		return iebus.ComposeSingle(m, opts.Glitch), nil

	case len(opts.FilesRaw) > 0:
		log.Info("replaying raw capture data from %d file(s)", len(opts.FilesRaw))
		tool := sigrok.New(cfg.Sigrok.Binary, transport.NewLocal(transport.DefaultOptions()))
		raw, err := tool.RawSamples(ctx, opts.FilesRaw, opts.Channel, cfg.Sigrok.SampleRate)
		if err != nil {
			return nil, errors.WrapSigrokError(err, opts.FilesRaw[0])
		}
		return iebus.Finalize(raw, opts.Glitch), nil

	case len(opts.Files) > 0:
		log.Info("decoding and replaying %d capture file(s)", len(opts.Files))
		tool := sigrok.New(cfg.Sigrok.Binary, transport.NewLocal(transport.DefaultOptions()))
		events, err := tool.Messages(ctx, opts.Files, "", "")
		if err != nil {
			return nil, errors.WrapSigrokError(err, opts.Files[0])
		}
		placements, err := placementsForChannel(events, opts.Channel, log)
		if err != nil {
			return nil, err
		}
		return iebus.Compose(placements, iebus.ComposeOptions{
			RegularInterval: opts.Regular,
			GlitchSamples:   opts.Glitch,
		})

	default:
		return nil, fmt.Errorf("one of --message, --files or --files-raw is required")
	}
}

// placementsForChannel filters decoded events down to one channel,
// normalizes their timestamps so the first frame sits at offset zero, and
// parses each token string back into a frame.
func placementsForChannel(events []sigrok.Event, channel string, log *logging.Logger) ([]iebus.Placement, error) {
	var filtered []sigrok.Event
	for _, ev := range events {
		if ev.Channel == channel {
			filtered = append(filtered, ev)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no messages decoded on channel %q", channel)
	}

	start := filtered[0].Timestamp
	placements := make([]iebus.Placement, 0, len(filtered))
	for _, ev := range filtered {
		m, err := iebus.ParseMessage(ev.Message)
		if err != nil {
			return nil, errors.WrapMessageError(err, ev.Message)
		}
		log.Debug("replay frame at %d: %s", ev.Timestamp-start, m)
		placements = append(placements, iebus.Placement{
			Offset:  int(ev.Timestamp - start),
			Message: m,
		})
	}
	return placements, nil
}

func applySendDefaults(opts *SendOptions, cfg *config.Config) {
	if opts.Channel == "" {
		opts.Channel = cfg.Sigrok.Channel
	}
	if opts.Slowdown == 0 {
		opts.Slowdown = cfg.Device.Slowdown
	}
	if opts.Device == "" {
		opts.Device = cfg.Device.Path
	}
	if opts.Glitch == 0 {
		opts.Glitch = cfg.Replay.GlitchSamples
	}
	if opts.Regular == 0 {
		opts.Regular = cfg.Replay.RegularInterval
	}
}

func newLogger(verbose, debug bool) (*logging.Logger, error) {
	level := logging.LogLevelInfo
	if verbose {
		level = logging.LogLevelVerbose
	}
	if debug {
		level = logging.LogLevelDebug
	}
	return logging.NewLogger(level, "")
}
