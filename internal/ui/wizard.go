package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// WizardResult is what the interactive composer hands back: a token-string
// message plus the run settings the user picked.
type WizardResult struct {
	Message  string
	Simulate bool
	Glitch   int
}

// RunWizard walks the user through building a message field by field.
func RunWizard() (WizardResult, error) {
	var (
		broadcast = "-"
		master    string
		slave     string
		data      string
		glitch    string
		simulate  = true
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Addressing mode").
				Options(
					huh.NewOption("Unicast (acknowledged)", "-"),
					huh.NewOption("Broadcast", "B"),
				).
				Value(&broadcast),

			huh.NewInput().
				Title("Master address (hex, 12-bit)").
				Placeholder("190").
				Validate(validateHex12).
				Value(&master),

			huh.NewInput().
				Title("Slave address (hex, 12-bit)").
				Placeholder("440").
				Validate(validateHex12).
				Value(&slave),

			huh.NewInput().
				Title("Data bytes (hex, space-separated)").
				Placeholder("60 01").
				Validate(validateHexBytes).
				Value(&data),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Glitch samples (0 for none)").
				Placeholder("0").
				Validate(validateCount).
				Value(&glitch),

			huh.NewConfirm().
				Title("Simulate only?").
				Description("Print the waveform instead of transmitting").
				Value(&simulate),
		),
	)

	if err := form.Run(); err != nil {
		return WizardResult{}, err
	}

	g := 0
	if strings.TrimSpace(glitch) != "" {
		g, _ = strconv.Atoi(strings.TrimSpace(glitch))
	}

	parts := []string{broadcast, master, slave}
	if d := strings.TrimSpace(data); d != "" {
		parts = append(parts, strings.Fields(d)...)
	}

	return WizardResult{
		Message:  strings.Join(parts, " "),
		Simulate: simulate,
		Glitch:   g,
	}, nil
}

func validateHex12(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("address is required")
	}
	if _, err := strconv.ParseUint(s, 16, 12); err != nil {
		return fmt.Errorf("need a hex value up to fff")
	}
	return nil
}

func validateHexBytes(s string) error {
	fields := strings.Fields(s)
	if len(fields) > 64 {
		return fmt.Errorf("at most 64 data bytes")
	}
	for _, f := range fields {
		if _, err := strconv.ParseUint(f, 16, 8); err != nil {
			return fmt.Errorf("%q is not a hex byte", f)
		}
	}
	return nil
}

func validateCount(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("need a non-negative sample count")
	}
	return nil
}
