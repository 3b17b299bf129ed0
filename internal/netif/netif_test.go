package netif

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/rangeguard/parkaid-fw/internal/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEthFrame(payloadLen int) []byte {
	frame := make([]byte, ethHeaderLen+payloadLen)
	copy(frame[0:6], PeerMAC[:])
	copy(frame[6:12], DeviceMAC[:])
	frame[12], frame[13] = 0x08, 0x00 // IPv4 ethertype
	return frame
}

func TestEncodeFrameRejectsBadLength(t *testing.T) {
	_, err := EncodeFrame(make([]byte, 10))
	assert.Error(t, err)

	_, err = EncodeFrame(make([]byte, 2000))
	assert.Error(t, err)
}

func TestSendWritesLengthPrefixedFrame(t *testing.T) {
	mock := hal.NewMockHAL()
	serial := mock.MockSerialHandle()
	require.NoError(t, serial.Open("mock", 115200))

	link := NewSerialLink(serial, DefaultLinkConfig())
	eth := makeEthFrame(84) // 98 total, matches spec's seed scenario
	require.NoError(t, link.Send(eth))

	written := serial.Written()
	require.Len(t, written, 2+len(eth))
	assert.Equal(t, uint16(len(eth)), binary.BigEndian.Uint16(written[:2]))
	assert.Equal(t, eth, written[2:])
}

func TestRXDeliversValidFrame(t *testing.T) {
	mock := hal.NewMockHAL()
	serial := mock.MockSerialHandle()
	require.NoError(t, serial.Open("mock", 115200))

	link := NewSerialLink(serial, DefaultLinkConfig())

	var mu sync.Mutex
	var delivered []byte
	done := make(chan struct{})
	link.SetDeliverFunc(func(frame []byte) {
		mu.Lock()
		delivered = frame
		mu.Unlock()
		close(done)
	})

	require.NoError(t, link.Start())
	defer link.Stop()

	eth := makeEthFrame(84)
	wire, err := EncodeFrame(eth)
	require.NoError(t, err)
	serial.Feed(wire)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, eth, delivered)
}

func TestRXResyncsOnUndersizedLength(t *testing.T) {
	mock := hal.NewMockHAL()
	serial := mock.MockSerialHandle()
	require.NoError(t, serial.Open("mock", 115200))

	link := NewSerialLink(serial, DefaultLinkConfig())

	delivered := make(chan []byte, 1)
	link.SetDeliverFunc(func(frame []byte) { delivered <- frame })
	require.NoError(t, link.Start())
	defer link.Stop()

	// LEN=19 is too small for a valid frame; it must be dropped, and the
	// stream resynchronized onto the next valid frame.
	bad := []byte{0x00, 0x13}
	serial.Feed(bad)

	eth := makeEthFrame(84)
	good, err := EncodeFrame(eth)
	require.NoError(t, err)
	serial.Feed(good)

	select {
	case frame := <-delivered:
		assert.Equal(t, eth, frame)
	case <-time.After(time.Second):
		t.Fatal("frame not delivered after resync")
	}
	assert.GreaterOrEqual(t, link.MalformedCount(), uint64(1))
}
