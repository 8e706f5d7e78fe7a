// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors shared across the data plane.
var (
	// Packet decoding errors
	ErrTruncated      = errors.New("switchd: truncated packet")
	ErrNotIPv4        = errors.New("switchd: not an ipv4 header")
	ErrHeaderTooShort = errors.New("switchd: ipv4 header length below minimum")

	// Table errors (control-plane facing, never returned from lookups)
	ErrTableNotFound  = errors.New("switchd: table not found")
	ErrEntryNotFound  = errors.New("switchd: entry not found")
	ErrKeyKindInvalid = errors.New("switchd: key does not match table discipline")

	// Configuration errors
	ErrConfigInvalid = errors.New("switchd: invalid configuration")
)
