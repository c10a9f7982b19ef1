// Package mac provides a compact Bluetooth device address type.
//
// Addresses are stored as a plain 6-byte array so they are comparable,
// cheap to copy and usable directly as map keys on the per-advertisement
// hot path (alias lookup and throttling).
package mac

import (
	"errors"
	"fmt"
	"strings"
)

// Address is a Bluetooth device address in canonical byte order
// (most significant octet first).
type Address [6]byte

// Parse failure kinds, matchable with errors.Is.
var (
	ErrGroupCount  = errors.New("wrong number of colon-separated groups")
	ErrGroupLength = errors.New("wrong group length")
	ErrNotHex      = errors.New("not a hex octet")
)

const hexd = "0123456789ABCDEF"

// String renders the address as six colon-separated uppercase hex octets,
// e.g. "AA:BB:CC:DD:EE:FF".
func (a Address) String() string {
	return string(a.Append(make([]byte, 0, 17)))
}

// Append appends the canonical textual form to dst without allocating.
func (a Address) Append(dst []byte) []byte {
	for i, b := range a {
		if i > 0 {
			dst = append(dst, ':')
		}
		dst = append(dst, hexd[b>>4], hexd[b&0x0F])
	}
	return dst
}

// Parse converts a colon-separated hex string into an Address. Input octets
// may be upper or lower case; Parse(a.String()) round-trips for every a.
func Parse(s string) (Address, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return Address{}, fmt.Errorf("address %q has %d groups: %w", s, len(parts), ErrGroupCount)
	}

	var a Address
	for i, part := range parts {
		if len(part) != 2 {
			return Address{}, fmt.Errorf("address group %d (%q): %w", i, part, ErrGroupLength)
		}
		hi := hexNibble(part[0])
		lo := hexNibble(part[1])
		if hi < 0 || lo < 0 {
			return Address{}, fmt.Errorf("address group %d (%q): %w", i, part, ErrNotHex)
		}
		a[i] = byte(hi<<4 | lo)
	}
	return a, nil
}

func hexNibble(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}
