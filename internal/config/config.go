package config

// Configuration loading and validation for iebusctl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fletcher/iebusctl/internal/errors"
)

// DeviceConfig selects the SPI transmitter.
type DeviceConfig struct {
	Path     string  `yaml:"path"`     // spidev node, e.g. /dev/spidev0.0
	Slowdown float64 `yaml:"slowdown"` // default clock scaling factor
}

// SigrokConfig controls how capture files are processed.
type SigrokConfig struct {
	Binary     string `yaml:"binary"`      // sigrok-cli executable
	Channel    string `yaml:"channel"`     // channel replayed from captures
	SampleRate int    `yaml:"sample_rate"` // raw capture sample rate in Hz
}

// ReplayConfig carries default composition settings.
type ReplayConfig struct {
	RegularInterval int `yaml:"regular_interval"` // samples between replayed frames, 0 = original timing
	GlitchSamples   int `yaml:"glitch_samples"`   // leading idle samples for driver robustness testing
}

// Config is the iebusctl configuration. Command-line flags override
// anything set here.
type Config struct {
	Device DeviceConfig `yaml:"device"`
	Sigrok SigrokConfig `yaml:"sigrok"`
	Replay ReplayConfig `yaml:"replay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Path:     "/dev/spidev0.0",
			Slowdown: 1.0,
		},
		Sigrok: SigrokConfig{
			Binary:     "sigrok-cli",
			Channel:    "RX",
			SampleRate: 24000000,
		},
	}
}

// Load reads a YAML config file and applies defaults for unset fields. An
// empty path returns the defaults without touching the filesystem.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("parse YAML: %w", err), path)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, errors.WrapConfigError(err, path)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Device.Path == "" {
		cfg.Device.Path = def.Device.Path
	}
	if cfg.Device.Slowdown == 0 {
		cfg.Device.Slowdown = def.Device.Slowdown
	}
	if cfg.Sigrok.Binary == "" {
		cfg.Sigrok.Binary = def.Sigrok.Binary
	}
	if cfg.Sigrok.Channel == "" {
		cfg.Sigrok.Channel = def.Sigrok.Channel
	}
	if cfg.Sigrok.SampleRate == 0 {
		cfg.Sigrok.SampleRate = def.Sigrok.SampleRate
	}
}

// Validate checks a configuration
func Validate(cfg *Config) error {
	if cfg.Device.Slowdown <= 0 {
		return fmt.Errorf("device.slowdown must be positive, got %g", cfg.Device.Slowdown)
	}
	if cfg.Sigrok.SampleRate < 1000000 {
		return fmt.Errorf("sigrok.sample_rate %d is below the 1000000 Hz reference rate", cfg.Sigrok.SampleRate)
	}
	if cfg.Replay.RegularInterval < 0 {
		return fmt.Errorf("replay.regular_interval must not be negative, got %d", cfg.Replay.RegularInterval)
	}
	if cfg.Replay.GlitchSamples < 0 {
		return fmt.Errorf("replay.glitch_samples must not be negative, got %d", cfg.Replay.GlitchSamples)
	}
	return nil
}
