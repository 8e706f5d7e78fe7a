package codec

import (
	"encoding/binary"
	"net/netip"

	"icc.tech/switch-agent/internal/core"
)

const ipv4HeaderMinLen = 20

// decodeIPv4 decodes the fixed 20-byte IPv4 header.
// Returns the header and the remaining bytes. The header is always extracted
// as exactly 20 bytes; when IHL advertises options, the option bytes stay at
// the front of the payload so that encode reproduces the frame unchanged.
func decodeIPv4(data []byte) (core.IPv4Header, []byte, error) {
	if len(data) < ipv4HeaderMinLen {
		return core.IPv4Header{}, nil, core.ErrTruncated
	}

	// Version (upper 4 bits) and IHL (lower 4 bits) of first byte
	version := data[0] >> 4
	if version != 4 {
		return core.IPv4Header{}, nil, core.ErrNotIPv4
	}
	ihl := data[0] & 0x0F
	if int(ihl)*4 < ipv4HeaderMinLen { // IHL is in 32-bit words
		return core.IPv4Header{}, nil, core.ErrHeaderTooShort
	}

	ip := core.IPv4Header{
		Version: version,
		IHL:     ihl,
	}

	// DSCP/ECN (1 byte at offset 1)
	ip.DSCP = data[1]

	// Total Length (2 bytes at offset 2)
	ip.TotalLen = binary.BigEndian.Uint16(data[2:4])

	// Identification (2 bytes at offset 4)
	ip.ID = binary.BigEndian.Uint16(data[4:6])

	// Flags (3 bits) and Fragment Offset (13 bits) at offset 6
	flagsFrag := binary.BigEndian.Uint16(data[6:8])
	ip.Flags = uint8(flagsFrag >> 13)
	ip.FragOffset = flagsFrag & 0x1FFF

	// TTL (1 byte at offset 8)
	ip.TTL = data[8]

	// Protocol (1 byte at offset 9)
	ip.Protocol = data[9]

	// Header Checksum (2 bytes at offset 10)
	ip.Checksum = binary.BigEndian.Uint16(data[10:12])

	// Source IP (4 bytes at offset 12)
	ip.SrcIP = netip.AddrFrom4([4]byte(data[12:16]))

	// Destination IP (4 bytes at offset 16)
	ip.DstIP = netip.AddrFrom4([4]byte(data[16:20]))

	return ip, data[ipv4HeaderMinLen:], nil
}

// encodeIPv4 appends the fixed 20-byte wire form of the IPv4 header to buf.
// The stored Checksum field is emitted as-is; callers mutating any other
// field must recompute it first.
func encodeIPv4(buf []byte, ip core.IPv4Header) []byte {
	var b [ipv4HeaderMinLen]byte

	b[0] = ip.Version<<4 | ip.IHL&0x0F
	b[1] = ip.DSCP
	binary.BigEndian.PutUint16(b[2:4], ip.TotalLen)
	binary.BigEndian.PutUint16(b[4:6], ip.ID)
	binary.BigEndian.PutUint16(b[6:8], uint16(ip.Flags&0x07)<<13|ip.FragOffset&0x1FFF)
	b[8] = ip.TTL
	b[9] = ip.Protocol
	binary.BigEndian.PutUint16(b[10:12], ip.Checksum)

	src := ip.SrcIP.As4()
	copy(b[12:16], src[:])
	dst := ip.DstIP.As4()
	copy(b[16:20], dst[:])

	return append(buf, b[:]...)
}
