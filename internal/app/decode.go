package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fletcher/iebusctl/internal/config"
	"github.com/fletcher/iebusctl/internal/errors"
	"github.com/fletcher/iebusctl/internal/sigrok"
	"github.com/fletcher/iebusctl/internal/transport"
	"github.com/fletcher/iebusctl/internal/tui"
	"github.com/fletcher/iebusctl/internal/ui"
)

// DecodeOptions selects capture files and the presentation of the decoded
// messages.
type DecodeOptions struct {
	Files   []string
	Output  string // "" derives <common prefix>.txt; "-" prints to stdout only
	Channel string // filter to one channel, "" keeps both
	TUI     bool

	ConfigPath string
	Verbose    bool
	Debug      bool
}

// RunDecode decodes capture files with sigrok-cli and writes the message
// log to a text file, the terminal, or an interactive browser.
func RunDecode(opts DecodeOptions) error {
	log, err := newLogger(opts.Verbose, opts.Debug)
	if err != nil {
		return err
	}
	defer log.Close()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if len(opts.Files) == 0 {
		return fmt.Errorf("at least one capture file is required")
	}

	tool := sigrok.New(cfg.Sigrok.Binary, transport.NewLocal(transport.DefaultOptions()))
	events, err := tool.Messages(context.Background(), opts.Files, "", "")
	if err != nil {
		return errors.WrapSigrokError(err, opts.Files[0])
	}
	if opts.Channel != "" {
		events = filterChannel(events, opts.Channel)
	}
	log.Info("decoded %d messages from %d file(s)", len(events), len(opts.Files))

	if opts.TUI {
		return tui.Run(events)
	}

	if opts.Output != "-" {
		path := opts.Output
		if path == "" {
			path = outputPath(opts.Files)
		}
		if err := os.WriteFile(path, []byte(ui.RenderPlain(events)), 0o644); err != nil {
			return fmt.Errorf("write message log: %w", err)
		}
		log.Info("message log written to %s", path)
	}

	fmt.Fprint(os.Stdout, ui.RenderStyled(events))
	return nil
}

func filterChannel(events []sigrok.Event, channel string) []sigrok.Event {
	var out []sigrok.Event
	for _, ev := range events {
		if ev.Channel == channel {
			out = append(out, ev)
		}
	}
	return out
}

// outputPath derives the log filename from the longest common prefix of
// the capture filenames, so cap_01.sr + cap_02.sr yields cap_.txt. A
// single file drops its extension instead.
func outputPath(files []string) string {
	if len(files) == 1 {
		base := files[0]
		return strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
	}
	prefix := files[0]
	for _, f := range files[1:] {
		prefix = commonPrefix(prefix, f)
	}
	if prefix == "" {
		prefix = "messages"
	}
	return prefix + ".txt"
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
