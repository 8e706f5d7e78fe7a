package codec

import (
	"bytes"
	"errors"
	"net"
	"reflect"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"icc.tech/switch-agent/internal/core"
)

func ipv4Frame(t *testing.T) []byte {
	t.Helper()
	frame := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x08, 0x00,
	}
	frame = append(frame, sampleIPv4Header...)
	return append(frame, 0xDE, 0xAD, 0xBE, 0xEF)
}

func TestDecodeIPv4Frame(t *testing.T) {
	pkt, err := Decode(ipv4Frame(t))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !pkt.EthernetValid || !pkt.IPv4Valid || pkt.ARPValid {
		t.Fatalf("validity = eth:%v ip:%v arp:%v, want eth+ip only",
			pkt.EthernetValid, pkt.IPv4Valid, pkt.ARPValid)
	}
	if !bytes.Equal(pkt.Payload, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("Payload = % x", pkt.Payload)
	}
}

func TestDecodeUnknownEtherType(t *testing.T) {
	frame := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x86, 0xDD, // IPv6: not parsed further
		0x60, 0x00, 0x00, 0x00,
	}

	pkt, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !pkt.EthernetValid {
		t.Fatal("Ethernet header should be valid")
	}
	if pkt.IPv4Valid || pkt.ARPValid {
		t.Fatal("no upper header should be valid for an unknown ether-type")
	}

	// Unknown payloads survive re-encoding untouched.
	if !bytes.Equal(Encode(pkt), frame) {
		t.Error("unknown ether-type frame not byte-identical after encode")
	}
}

func TestDecodeTruncatedSelectedHeader(t *testing.T) {
	frame := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x08, 0x06, // ARP selected...
		0x00, 0x01, 0x08, 0x00, // ...but only 4 bytes follow
	}

	_, err := Decode(frame)
	if !errors.Is(err, core.ErrTruncated) {
		t.Fatalf("Expected ErrTruncated, got %v", err)
	}
}

func TestRoundTripProperty(t *testing.T) {
	frames := [][]byte{
		ipv4Frame(t),
		append([]byte{
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			0x02, 0x00, 0x00, 0x00, 0x0A, 0x0A,
			0x08, 0x06,
		}, sampleARPRequest...),
	}

	for _, frame := range frames {
		first, err := Decode(frame)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		wire := Encode(first)
		if !bytes.Equal(wire, frame) {
			t.Fatalf("Encode(Decode(frame)) != frame:\n got  % x\n want % x", wire, frame)
		}
		second, err := Decode(wire)
		if err != nil {
			t.Fatalf("re-Decode failed: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Decode(Encode(p)) != p:\n%+v\n%+v", first, second)
		}
	}
}

// TestDecodeAgainstGopacket cross-validates the hand-rolled codec against an
// independent serializer.
func TestDecodeAgainstGopacket(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Id:       0x1234,
		Flags:    layers.IPv4DontFragment,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 1, 1},
	}
	payload := gopacket.Payload([]byte{0x01, 0x02, 0x03})

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, payload); err != nil {
		t.Fatalf("SerializeLayers failed: %v", err)
	}

	pkt, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if pkt.Ethernet.SrcMAC != (core.MAC{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}) {
		t.Errorf("SrcMAC = %s", pkt.Ethernet.SrcMAC)
	}
	if pkt.IPv4.ID != 0x1234 {
		t.Errorf("ID = 0x%04x, want 0x1234", pkt.IPv4.ID)
	}
	if pkt.IPv4.DstIP.String() != "10.0.1.1" {
		t.Errorf("DstIP = %s, want 10.0.1.1", pkt.IPv4.DstIP)
	}

	// gopacket computed the checksum; our engine must agree.
	if !VerifyChecksum(pkt.IPv4) {
		t.Error("VerifyChecksum rejects a gopacket-computed checksum")
	}

	// And the reverse direction must be byte-identical.
	if !bytes.Equal(Encode(pkt), buf.Bytes()) {
		t.Error("Encode differs from gopacket serialization")
	}
}
