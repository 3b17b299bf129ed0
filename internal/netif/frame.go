package netif

import (
	"encoding/binary"

	"github.com/rangeguard/parkaid-fw/internal/apperr"
)

const (
	ethHeaderLen = 14
	// minEthLen is the minimum total Ethernet frame size: a 14-byte header
	// plus the 46-byte minimum payload real Ethernet requires. A length
	// prefix above the bare header size (14) but below this is still
	// rejected as malformed.
	minEthLen    = 60
	maxEthLen    = 1518
	lenPrefixLen = 2
)

// MAC is a 6-byte hardware address.
type MAC [6]byte

var (
	// DeviceMAC and PeerMAC are the fixed, locally-administered addresses
	// this link always presents — no address resolution is needed over the
	// narrow point-to-point pipe.
	DeviceMAC = MAC{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	PeerMAC   = MAC{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
)

// EncodeFrame prepends the 2-byte big-endian length prefix to an already
// fully-formed Ethernet frame (header + payload). Callers own framing the
// Ethernet header; this only adds the wire-level length prefix.
func EncodeFrame(ethFrame []byte) ([]byte, error) {
	n := len(ethFrame)
	if n < minEthLen || n > maxEthLen {
		return nil, apperr.New(apperr.InvalidArg, "netif.EncodeFrame", "ethernet frame length out of range")
	}
	out := make([]byte, lenPrefixLen+n)
	binary.BigEndian.PutUint16(out[:2], uint16(n))
	copy(out[2:], ethFrame)
	return out, nil
}

// ValidateLength checks a length-prefix value against the wire contract
// (60..1518 bytes of Ethernet frame).
func ValidateLength(n uint16) bool {
	return n >= minEthLen && n <= maxEthLen
}
