package codec

import "icc.tech/switch-agent/internal/core"

// Decode parses a raw frame into its typed headers.
//
// Parsing is a linear state machine: Ethernet first, then a branch on the
// ether-type to IPv4 or ARP. Any other ether-type terminates parsing with
// only the Ethernet header valid — an unrecognized ether-type is not an
// error. Running out of bytes for a selected header is.
func Decode(data []byte) (core.ParsedPacket, error) {
	pkt := core.ParsedPacket{}

	eth, rest, err := decodeEthernet(data)
	if err != nil {
		return core.ParsedPacket{}, err
	}
	pkt.Ethernet = eth
	pkt.EthernetValid = true

	switch eth.EtherType {
	case core.EtherTypeIPv4:
		ip, rest, err := decodeIPv4(rest)
		if err != nil {
			return core.ParsedPacket{}, err
		}
		pkt.IPv4 = ip
		pkt.IPv4Valid = true
		pkt.Payload = rest
	case core.EtherTypeARP:
		arp, rest, err := decodeARP(rest)
		if err != nil {
			return core.ParsedPacket{}, err
		}
		pkt.ARP = arp
		pkt.ARPValid = true
		pkt.Payload = rest
	default:
		pkt.Payload = rest
	}

	return pkt, nil
}

// Encode emits the packet's valid headers in wire order: Ethernet, then IPv4
// if valid, then ARP if valid, followed by the payload. Headers marked
// invalid contribute no bytes.
func Encode(pkt core.ParsedPacket) []byte {
	buf := make([]byte, 0, ethernetHeaderLen+ipv4HeaderMinLen+arpMessageLen+len(pkt.Payload))

	if pkt.EthernetValid {
		buf = encodeEthernet(buf, pkt.Ethernet)
	}
	if pkt.IPv4Valid {
		buf = encodeIPv4(buf, pkt.IPv4)
	}
	if pkt.ARPValid {
		buf = encodeARP(buf, pkt.ARP)
	}

	return append(buf, pkt.Payload...)
}
