package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapSigrokError wraps sigrok-cli invocation failures with context
func WrapSigrokError(err error, file string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to process capture file %s", file),
		Reason:  extractSigrokReason(err),
		Hint:    "sigrok-cli with the iebus protocol decoder must be installed and the file must be a sigrok session",
		Try:     fmt.Sprintf("sigrok-cli -i %s --show", file),
		Err:     err,
	}
}

// WrapDeviceError wraps SPI device failures with context
func WrapDeviceError(err error, path string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to transmit via %s", path),
		Reason:  extractDeviceReason(err),
		Hint:    "The SPI device must exist and be writable; MOSI must be wired to the bus driver",
		Try:     "iebusctl send --simulate to verify the waveform without hardware",
		Err:     err,
	}
}

// WrapMessageError wraps message construction failures with context
func WrapMessageError(err error, message string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Invalid message string %q", message),
		Reason:  err.Error(),
		Hint:    `Format is "[B|-] <master_hex> <slave_hex> <data_hex>..." with at most 64 data bytes`,
		Try:     `iebusctl send --simulate --message "- 190 440 f 2 60 01"`,
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "The config file is YAML; unset fields fall back to defaults",
		Try:     "Remove the file to run with built-in defaults",
		Err:     err,
	}
}

func extractSigrokReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "executable file not found") {
		return "sigrok-cli is not installed or not on PATH"
	}
	if strings.Contains(errStr, "exit") {
		return "sigrok-cli rejected the capture file or decoder options"
	}
	if strings.Contains(errStr, "deadline exceeded") {
		return "sigrok-cli did not finish within the timeout"
	}
	if strings.Contains(errStr, "parse trace") {
		return "Decoder output was not valid JSON trace data"
	}

	return "Capture processing failed"
}

func extractDeviceReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "no such file") {
		return "SPI device node does not exist - is the spidev overlay enabled?"
	}
	if strings.Contains(errStr, "permission denied") {
		return "No permission to open the SPI device"
	}
	if strings.Contains(errStr, "inappropriate ioctl") {
		return "Path is not a spidev character device"
	}

	return "SPI transmission failed"
}
