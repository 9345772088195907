package app

import (
	"github.com/fletcher/iebusctl/internal/ui"
)

// ComposeOptions carries settings the wizard cannot ask for.
type ComposeOptions struct {
	ConfigPath string
	Verbose    bool
	Debug      bool
}

// RunCompose walks the user through building a message interactively and
// hands the result to the send pipeline.
func RunCompose(opts ComposeOptions) error {
	result, err := ui.RunWizard()
	if err != nil {
		return err
	}

	return RunSend(SendOptions{
		Message:    result.Message,
		Simulate:   result.Simulate,
		Glitch:     result.Glitch,
		ConfigPath: opts.ConfigPath,
		Verbose:    opts.Verbose,
		Debug:      opts.Debug,
	})
}
