package hal

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// BugStSerial implements SerialProvider over go.bug.st/serial, used by the
// netif link layer to carry framed Ethernet over a byte-oriented endpoint
// (and, in the emulator transport, over a pty pair).
type BugStSerial struct {
	port serial.Port
}

func NewBugStSerial() *BugStSerial {
	return &BugStSerial{}
}

func (s *BugStSerial) Open(path string, baud int) error {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(path, mode)
	if err != nil {
		return fmt.Errorf("hal: open serial %s: %w", path, err)
	}
	s.port = p
	return nil
}

func (s *BugStSerial) SetReadTimeout(ms int) error {
	if s.port == nil {
		return fmt.Errorf("hal: serial not open")
	}
	if ms <= 0 {
		return s.port.SetReadTimeout(serial.NoTimeout)
	}
	return s.port.SetReadTimeout(time.Duration(ms) * time.Millisecond)
}

func (s *BugStSerial) Read(buf []byte) (int, error) {
	if s.port == nil {
		return 0, fmt.Errorf("hal: serial not open")
	}
	return s.port.Read(buf)
}

func (s *BugStSerial) Write(data []byte) (int, error) {
	if s.port == nil {
		return 0, fmt.Errorf("hal: serial not open")
	}
	return s.port.Write(data)
}

func (s *BugStSerial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
