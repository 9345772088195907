// Package spidev drives a Linux spidev character device as the bit-bang
// transmitter: packed waveform bytes are clocked out MOSI at the bus bit
// rate, so each SPI bit becomes one line-state sample.
package spidev

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// BaseSpeedHz is the SPI clock matching the IEBus reference bit rate.
const BaseSpeedHz = 1000000

// Clock limits applied to slowdown-adjusted speeds.
const (
	MinSpeedHz = 1000
	MaxSpeedHz = 10000000
)

// spidev ioctl requests (linux/spi/spidev.h).
const (
	iocWrMode        = 0x40016B01
	iocWrBitsPerWord = 0x40016B03
	iocWrMaxSpeedHz  = 0x40046B04
)

// Device is an open spidev handle. Callers construct it explicitly and pass
// it to Transmit; there is no process-wide device state.
type Device struct {
	f       *os.File
	speedHz uint32
}

// Open opens a spidev node (e.g. /dev/spidev0.0) and configures it for
// 8-bit words at the base speed.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	d := &Device{f: f, speedHz: BaseSpeedHz}

	if err := d.ioctlUint8(iocWrMode, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: set mode: %w", path, err)
	}
	if err := d.ioctlUint8(iocWrBitsPerWord, 8); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: set bits per word: %w", path, err)
	}
	if err := d.setSpeed(BaseSpeedHz); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: set speed: %w", path, err)
	}
	return d, nil
}

// Close releases the device.
func (d *Device) Close() error {
	return d.f.Close()
}

// SpeedHz returns the currently configured clock rate.
func (d *Device) SpeedHz() uint32 {
	return d.speedHz
}

// ClampSpeed converts a slowdown factor into a clock rate, bounded to the
// device's usable range. A slowdown of 2.0 halves the clock; 0.5 doubles it.
func ClampSpeed(slowdown float64) uint32 {
	adjusted := int(float64(BaseSpeedHz) / slowdown)
	if adjusted < MinSpeedHz {
		adjusted = MinSpeedHz
	}
	if adjusted > MaxSpeedHz {
		adjusted = MaxSpeedHz
	}
	return uint32(adjusted)
}

// Transmit clocks the packed waveform out of the device in one blocking
// write. A slowdown other than 1.0 temporarily rescales the clock and the
// original rate is restored on every exit path.
func (d *Device) Transmit(buf []byte, slowdown float64) error {
	if slowdown <= 0 {
		return fmt.Errorf("slowdown factor %g must be positive", slowdown)
	}

	if slowdown != 1.0 {
		original := d.speedHz
		if err := d.setSpeed(ClampSpeed(slowdown)); err != nil {
			return fmt.Errorf("adjust speed: %w", err)
		}
		defer func() {
			_ = d.setSpeed(original)
		}()
	}

	for len(buf) > 0 {
		n, err := d.f.Write(buf)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		buf = buf[n:]
	}
	return nil
}

func (d *Device) setSpeed(hz uint32) error {
	if err := d.ioctlUint32(iocWrMaxSpeedHz, hz); err != nil {
		return err
	}
	d.speedHz = hz
	return nil
}

func (d *Device) ioctlUint8(req uintptr, val uint8) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), req, uintptr(unsafe.Pointer(&val)))
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *Device) ioctlUint32(req uintptr, val uint32) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), req, uintptr(unsafe.Pointer(&val)))
	if errno != 0 {
		return errno
	}
	return nil
}
