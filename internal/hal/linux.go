package hal

import "fmt"

// LinuxHAL wires the gpiocdev GPIO backend and the go.bug.st/serial backend
// behind the HAL interface. On non-Linux platforms the GPIO half returns
// errors from every call (see gpio_gpiocdev_stub.go); use MockHAL for local
// development instead.
type LinuxHAL struct {
	gpio   *GpiocdevGPIO
	serial *BugStSerial
	info   BoardInfo
}

// NewLinuxHAL opens the GPIO chip named in info.GPIOChip and prepares a
// serial endpoint for later Open.
func NewLinuxHAL(info BoardInfo) (*LinuxHAL, error) {
	gpio, err := NewGpiocdevGPIO(info.GPIOChip)
	if err != nil {
		return nil, fmt.Errorf("hal: linux hal init: %w", err)
	}
	return &LinuxHAL{
		gpio:   gpio,
		serial: NewBugStSerial(),
		info:   info,
	}, nil
}

func (h *LinuxHAL) GPIO() GPIOProvider     { return h.gpio }
func (h *LinuxHAL) Serial() SerialProvider { return h.serial }
func (h *LinuxHAL) Info() BoardInfo        { return h.info }

func (h *LinuxHAL) Close() error {
	gpioErr := h.gpio.Close()
	serErr := h.serial.Close()
	if gpioErr != nil {
		return gpioErr
	}
	return serErr
}
