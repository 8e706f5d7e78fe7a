package codec

import "icc.tech/switch-agent/internal/core"

// Checksum computes the IPv4 header checksum over the fixed 20-byte header
// with the checksum field treated as zero: sum all 16-bit words, fold the
// carries back into the low 16 bits until none remain, then complement.
func Checksum(ip core.IPv4Header) uint16 {
	scratch := ip
	scratch.Checksum = 0

	var b [ipv4HeaderMinLen]byte
	buf := encodeIPv4(b[:0], scratch)

	var sum uint32
	for i := 0; i < len(buf); i += 2 {
		sum += uint32(buf[i])<<8 | uint32(buf[i+1])
	}
	for sum>>16 != 0 {
		sum = sum&0xFFFF + sum>>16
	}
	return ^uint16(sum)
}

// VerifyChecksum recomputes the checksum and compares it against the stored
// field. A mismatch is reported as false, not as an error; the caller owns
// the drop-or-pass policy.
func VerifyChecksum(ip core.IPv4Header) bool {
	return ip.Checksum == Checksum(ip)
}
