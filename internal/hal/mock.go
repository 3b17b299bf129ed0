package hal

import (
	"fmt"
	"sync"
)

// MockHAL backs tests and non-Linux dev builds: an in-memory GPIO provider
// whose edges are injected by the test, and a loopback-buffer serial
// provider.
type MockHAL struct {
	gpio   *MockGPIO
	serial *MockSerial
	info   BoardInfo
}

func NewMockHAL() *MockHAL {
	return &MockHAL{
		gpio:   NewMockGPIO(),
		serial: NewMockSerial(),
		info:   BoardInfo{Name: "mock", GPIOChip: "mock0", CPUCores: 2, Profile: ProfileMock},
	}
}

func (m *MockHAL) GPIO() GPIOProvider     { return m.gpio }
func (m *MockHAL) Serial() SerialProvider { return m.serial }
func (m *MockHAL) Info() BoardInfo        { return m.info }
func (m *MockHAL) Close() error           { return nil }

// MockGPIOHandle exposes the concrete mock so tests can inject edges without
// a type assertion on the GPIOProvider interface.
func (m *MockHAL) MockGPIOHandle() *MockGPIO { return m.gpio }

// MockSerialHandle exposes the concrete mock serial loopback.
func (m *MockHAL) MockSerialHandle() *MockSerial { return m.serial }

// MockGPIO is an in-memory GPIOProvider. Edge watchers are driven by
// InjectEdge, which calls the registered callback synchronously — tests
// that need interrupt-like concurrency should call it from a goroutine.
type MockGPIO struct {
	mu       sync.Mutex
	values   map[int]bool
	modes    map[int]PinMode
	watchers map[int]func(pin int, value bool)
}

func NewMockGPIO() *MockGPIO {
	return &MockGPIO{
		values:   make(map[int]bool),
		modes:    make(map[int]PinMode),
		watchers: make(map[int]func(pin int, value bool)),
	}
}

func (g *MockGPIO) SetMode(pin int, mode PinMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modes[pin] = mode
	return nil
}

func (g *MockGPIO) DigitalRead(pin int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.values[pin], nil
}

func (g *MockGPIO) DigitalWrite(pin int, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[pin] = value
	return nil
}

func (g *MockGPIO) WatchEdge(pin int, edge EdgeMode, callback func(pin int, value bool)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modes[pin] = Input
	g.watchers[pin] = callback
	return nil
}

func (g *MockGPIO) ActivePins() map[int]PinMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int]PinMode, len(g.modes))
	for p, m := range g.modes {
		out[p] = m
	}
	return out
}

func (g *MockGPIO) Close() error { return nil }

// InjectEdge simulates a transition on pin, invoking any registered watcher.
func (g *MockGPIO) InjectEdge(pin int, value bool) {
	g.mu.Lock()
	g.values[pin] = value
	cb := g.watchers[pin]
	g.mu.Unlock()
	if cb != nil {
		cb(pin, value)
	}
}

// MockSerial is an in-memory loopback SerialProvider: bytes written are
// appended to an inbox buffer tests can read back via Feed/Read.
type MockSerial struct {
	mu      sync.Mutex
	inbox   []byte
	written []byte
	open    bool
}

func NewMockSerial() *MockSerial {
	return &MockSerial{}
}

func (s *MockSerial) Open(port string, baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return nil
}

func (s *MockSerial) SetReadTimeout(ms int) error { return nil }

func (s *MockSerial) Read(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, fmt.Errorf("hal: mock serial not open")
	}
	if len(s.inbox) == 0 {
		return 0, fmt.Errorf("hal: mock serial read timeout")
	}
	n := copy(buf, s.inbox)
	s.inbox = s.inbox[n:]
	return n, nil
}

func (s *MockSerial) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return 0, fmt.Errorf("hal: mock serial not open")
	}
	s.written = append(s.written, data...)
	return len(data), nil
}

func (s *MockSerial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

// Feed appends bytes to the inbox for a subsequent Read to consume.
func (s *MockSerial) Feed(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbox = append(s.inbox, data...)
}

// Written returns a copy of everything written so far.
func (s *MockSerial) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.written))
	copy(out, s.written)
	return out
}
