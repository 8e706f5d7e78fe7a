package codec

import (
	"encoding/binary"
	"net/netip"

	"icc.tech/switch-agent/internal/core"
)

// arpMessageLen is the size of an ARP message for IPv4 over Ethernet:
// 2+2+1+1+2 fixed fields plus two hardware/protocol address pairs.
const arpMessageLen = 28

// decodeARP decodes an ARP message for IPv4 over Ethernet.
func decodeARP(data []byte) (core.ARPMessage, []byte, error) {
	if len(data) < arpMessageLen {
		return core.ARPMessage{}, nil, core.ErrTruncated
	}

	arp := core.ARPMessage{}

	// Hardware Type (2 bytes), Protocol Type (2 bytes)
	arp.HardwareType = binary.BigEndian.Uint16(data[0:2])
	arp.ProtocolType = binary.BigEndian.Uint16(data[2:4])

	// Hardware/Protocol address lengths (1 byte each)
	arp.HardwareLen = data[4]
	arp.ProtocolLen = data[5]

	// Opcode (2 bytes at offset 6)
	arp.Opcode = binary.BigEndian.Uint16(data[6:8])

	// Sender hardware address (6 bytes at offset 8)
	copy(arp.SenderMAC[:], data[8:14])

	// Sender protocol address (4 bytes at offset 14)
	arp.SenderIP = netip.AddrFrom4([4]byte(data[14:18]))

	// Target hardware address (6 bytes at offset 18)
	copy(arp.TargetMAC[:], data[18:24])

	// Target protocol address (4 bytes at offset 24)
	arp.TargetIP = netip.AddrFrom4([4]byte(data[24:28]))

	return arp, data[arpMessageLen:], nil
}

// encodeARP appends the wire form of the ARP message to buf.
func encodeARP(buf []byte, arp core.ARPMessage) []byte {
	var b [arpMessageLen]byte

	binary.BigEndian.PutUint16(b[0:2], arp.HardwareType)
	binary.BigEndian.PutUint16(b[2:4], arp.ProtocolType)
	b[4] = arp.HardwareLen
	b[5] = arp.ProtocolLen
	binary.BigEndian.PutUint16(b[6:8], arp.Opcode)
	copy(b[8:14], arp.SenderMAC[:])
	sip := arp.SenderIP.As4()
	copy(b[14:18], sip[:])
	copy(b[18:24], arp.TargetMAC[:])
	tip := arp.TargetIP.As4()
	copy(b[24:28], tip[:])

	return append(buf, b[:]...)
}
