// Package alias maps device addresses to human-readable names.
package alias

import (
	"fmt"
	"strings"

	"github.com/lautis/ruuvitag-listener/internal/mac"
)

// Map resolves device addresses to display names.
type Map map[mac.Address]string

// Parse parses a single "AA:BB:CC:DD:EE:FF=Name" entry.
func Parse(src string) (mac.Address, string, error) {
	addrStr, name, ok := strings.Cut(src, "=")
	if !ok {
		return mac.Address{}, "", fmt.Errorf("invalid alias %q: expected format MAC=NAME", src)
	}
	addr, err := mac.Parse(strings.TrimSpace(addrStr))
	if err != nil {
		return mac.Address{}, "", fmt.Errorf("invalid alias %q: %w", src, err)
	}
	return addr, name, nil
}

// ParseList parses a comma-separated list of MAC=NAME entries. Empty
// elements are skipped.
func ParseList(src string) (Map, error) {
	m := make(Map)
	for _, entry := range strings.Split(src, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		addr, name, err := Parse(entry)
		if err != nil {
			return nil, err
		}
		m[addr] = name
	}
	return m, nil
}

// Resolve returns the alias for addr, or the canonical address string when
// no alias is configured.
func (m Map) Resolve(addr mac.Address) string {
	if name, ok := m[addr]; ok {
		return name
	}
	return addr.String()
}
