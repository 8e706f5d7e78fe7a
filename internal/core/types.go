// Package core defines core data-plane types with zero external dependencies.
package core

import (
	"fmt"
	"net"
	"net/netip"
)

// PortID identifies a switch port.
type PortID uint16

// EtherType values the parser branches on.
const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeARP  uint16 = 0x0806
)

// ARP constants for IPv4 over Ethernet.
const (
	ARPHardwareEthernet uint16 = 1
	ARPOpRequest        uint16 = 1
	ARPOpReply          uint16 = 2
)

// MAC is a 48-bit Ethernet hardware address.
type MAC [6]byte

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsZero reports whether the address is all zeroes.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// ParseMAC parses a 48-bit hardware address in any form net.ParseMAC
// accepts.
func ParseMAC(s string) (MAC, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MAC{}, err
	}
	if len(hw) != 6 {
		return MAC{}, fmt.Errorf("switchd: not a 48-bit hardware address: %s", s)
	}
	var m MAC
	copy(m[:], hw)
	return m, nil
}

// MarshalText implements encoding.TextMarshaler.
func (m MAC) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so config decoding can
// read MAC addresses from strings.
func (m *MAC) UnmarshalText(text []byte) error {
	parsed, err := ParseMAC(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// EthernetHeader represents an L2 Ethernet frame header.
type EthernetHeader struct {
	DstMAC    MAC
	SrcMAC    MAC
	EtherType uint16 // 0x0800=IPv4, 0x0806=ARP
}

// IPv4Header represents an IPv4 header with explicit fixed-width fields.
// Checksum must equal the ones'-complement checksum of the remaining header
// fields whenever the packet is re-emitted on the wire.
type IPv4Header struct {
	Version    uint8 // always 4 on decode
	IHL        uint8 // header length in 32-bit words
	DSCP       uint8 // full diffserv byte, including ECN bits
	TotalLen   uint16
	ID         uint16
	Flags      uint8  // 3 bits
	FragOffset uint16 // 13 bits
	TTL        uint8
	Protocol   uint8
	Checksum   uint16
	SrcIP      netip.Addr
	DstIP      netip.Addr
}

// ARPMessage represents an ARP request or reply for IPv4 over Ethernet.
type ARPMessage struct {
	HardwareType uint16
	ProtocolType uint16
	HardwareLen  uint8
	ProtocolLen  uint8
	Opcode       uint16 // 1=request, 2=reply
	SenderMAC    MAC
	SenderIP     netip.Addr
	TargetMAC    MAC
	TargetIP     netip.Addr
}

// ParsedPacket is the typed view of one decoded frame. Each header is either
// present-and-valid or absent; a partially decoded header is never exposed.
// A ParsedPacket is owned by the pipeline invocation that decoded it and is
// never shared across packets.
type ParsedPacket struct {
	Ethernet      EthernetHeader
	IPv4          IPv4Header
	ARP           ARPMessage
	EthernetValid bool
	IPv4Valid     bool
	ARPValid      bool

	// Payload holds the bytes following the last decoded header.
	Payload []byte
}

// DecisionKind enumerates the possible outcomes of ingress processing.
type DecisionKind uint8

const (
	DecisionDrop DecisionKind = iota
	DecisionForward
	DecisionBroadcast
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionDrop:
		return "drop"
	case DecisionForward:
		return "forward"
	case DecisionBroadcast:
		return "broadcast"
	default:
		return fmt.Sprintf("decision(%d)", uint8(k))
	}
}

// Decision is the output of ingress processing for one packet.
type Decision struct {
	Kind       DecisionKind
	EgressPort PortID // valid when Kind == DecisionForward
	Group      uint16 // valid when Kind == DecisionBroadcast
}

// Forward returns a forward decision to the given port.
func Forward(port PortID) Decision {
	return Decision{Kind: DecisionForward, EgressPort: port}
}

// Drop returns a drop decision.
func Drop() Decision {
	return Decision{Kind: DecisionDrop}
}

// Broadcast returns a broadcast decision for the given flood group.
func Broadcast(group uint16) Decision {
	return Decision{Kind: DecisionBroadcast, Group: group}
}
