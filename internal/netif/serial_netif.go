// Package netif provides a link-layer device to an IP stack by framing
// Ethernet frames over a byte-oriented serial endpoint (used both as the
// emulator transport and, with the same contract, on a real link).
package netif

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/rangeguard/parkaid-fw/internal/apperr"
	"github.com/rangeguard/parkaid-fw/internal/hal"
)

// LinkDevice is the capability an IP stack needs from the link layer: send
// an outgoing Ethernet frame, and register the sink that inbound frames are
// delivered to. Modeled per the "pointer-heavy callback" re-architecture
// note — a narrow interface standing in for link-output/link-input function
// pointers.
type LinkDevice interface {
	Send(ethFrame []byte) error
	SetDeliverFunc(func(frame []byte))
}

// LinkConfig is the static addressing this link is brought up with — no
// link-layer resolution happens over the narrow serial pipe.
type LinkConfig struct {
	DeviceIP string
	Mask     string
	Gateway  string
}

// DefaultLinkConfig matches spec's documented defaults.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{DeviceIP: "192.168.100.2", Mask: "255.255.255.0", Gateway: "192.168.100.1"}
}

const rxInterByteTimeoutMs = 1000

// SerialLink implements LinkDevice over a hal.SerialProvider. The RX path
// runs on its own goroutine; TX is a direct synchronous write.
type SerialLink struct {
	serial hal.SerialProvider
	cfg    LinkConfig

	mu      sync.Mutex
	deliver func(frame []byte)

	malformed atomic.Uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewSerialLink binds a serial endpoint and its static addressing. It only
// stores them: the device/peer MACs are the package-level DeviceMAC and
// PeerMAC, and no ARP entry is installed here.
func NewSerialLink(serial hal.SerialProvider, cfg LinkConfig) *SerialLink {
	return &SerialLink{serial: serial, cfg: cfg}
}

// SetDeliverFunc installs the sink inbound frames are handed to.
func (l *SerialLink) SetDeliverFunc(f func(frame []byte)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deliver = f
}

// Send flattens and transmits one Ethernet frame with its length prefix.
// Non-blocking with respect to the caller beyond the underlying write.
func (l *SerialLink) Send(ethFrame []byte) error {
	wire, err := EncodeFrame(ethFrame)
	if err != nil {
		return err
	}
	if _, err := l.serial.Write(wire); err != nil {
		return apperr.Wrap(apperr.IoError, "netif.Send", err)
	}
	return nil
}

// Start configures the inter-byte read timeout and launches the RX worker.
func (l *SerialLink) Start() error {
	if err := l.serial.SetReadTimeout(rxInterByteTimeoutMs); err != nil {
		return apperr.Wrap(apperr.IoError, "netif.Start", err)
	}
	l.stopCh = make(chan struct{})
	l.wg.Add(1)
	go l.rxLoop()
	return nil
}

// Stop halts the RX worker and waits for it to exit.
func (l *SerialLink) Stop() error {
	if l.stopCh == nil {
		return apperr.New(apperr.InvalidState, "netif.Stop", "not running")
	}
	close(l.stopCh)
	l.wg.Wait()
	return nil
}

// MalformedCount returns how many frames were dropped for a length or
// timeout violation.
func (l *SerialLink) MalformedCount() uint64 {
	return l.malformed.Load()
}

func (l *SerialLink) rxLoop() {
	defer l.wg.Done()
	lenBuf := make([]byte, lenPrefixLen)

	for {
		select {
		case <-l.stopCh:
			return
		default:
		}

		if err := l.readExact(lenBuf); err != nil {
			continue
		}
		n := binary.BigEndian.Uint16(lenBuf)
		if !ValidateLength(n) {
			l.malformed.Add(1)
			continue
		}

		frame := make([]byte, n)
		if err := l.readExact(frame); err != nil {
			l.malformed.Add(1)
			continue
		}

		l.mu.Lock()
		deliver := l.deliver
		l.mu.Unlock()
		if deliver != nil {
			deliver(frame)
		}
	}
}

// readExact fills buf completely or returns an error; a read that returns
// zero bytes with no error is treated as an inter-byte timeout (partial
// frame discarded, caller resynchronizes on the next call).
func (l *SerialLink) readExact(buf []byte) error {
	total := 0
	for total < len(buf) {
		select {
		case <-l.stopCh:
			return apperr.New(apperr.InvalidState, "netif.readExact", "stopped")
		default:
		}
		n, err := l.serial.Read(buf[total:])
		if err != nil {
			return apperr.Wrap(apperr.IoError, "netif.readExact", err)
		}
		if n == 0 {
			return apperr.New(apperr.IoError, "netif.readExact", "read timeout")
		}
		total += n
	}
	return nil
}

