// Package codec implements wire encoding and decoding of packet headers.
package codec

import (
	"encoding/binary"

	"icc.tech/switch-agent/internal/core"
)

const ethernetHeaderLen = 14

// decodeEthernet decodes an Ethernet frame header.
// Returns the header and the remaining payload.
func decodeEthernet(data []byte) (core.EthernetHeader, []byte, error) {
	if len(data) < ethernetHeaderLen {
		return core.EthernetHeader{}, nil, core.ErrTruncated
	}

	eth := core.EthernetHeader{}

	// Destination MAC (6 bytes)
	copy(eth.DstMAC[:], data[0:6])

	// Source MAC (6 bytes)
	copy(eth.SrcMAC[:], data[6:12])

	// EtherType (2 bytes)
	eth.EtherType = binary.BigEndian.Uint16(data[12:14])

	return eth, data[ethernetHeaderLen:], nil
}

// encodeEthernet appends the wire form of the Ethernet header to buf.
func encodeEthernet(buf []byte, eth core.EthernetHeader) []byte {
	var b [ethernetHeaderLen]byte
	copy(b[0:6], eth.DstMAC[:])
	copy(b[6:12], eth.SrcMAC[:])
	binary.BigEndian.PutUint16(b[12:14], eth.EtherType)
	return append(buf, b[:]...)
}
