// Package scanner defines the scanning backend contract and the runtime
// backend registry. Concrete backends live in subpackages and register
// themselves by name; asking for a name that was not built into the binary
// yields a descriptive error instead of a panic.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lautis/ruuvitag-listener/internal/measurement"
)

// ChannelBufferSize is the capacity of a backend's result channel. A full
// channel blocks the producer instead of dropping results; the kernel may
// still drop advertisements if its receive buffer overflows first.
const ChannelBufferSize = 100

// Result is one decoded advertisement: a measurement, or the decode error
// it produced when the backend runs in verbose mode.
type Result struct {
	Measurement measurement.Measurement
	Err         error
}

// Options configures a scan.
type Options struct {
	// DeviceID selects the local Bluetooth controller (0 for hci0).
	DeviceID uint16
	// Verbose forwards per-packet decode errors as Results instead of
	// dropping them.
	Verbose bool
}

// Backend starts a passive scan and streams decoded results. The returned
// channel is closed when the scan stops (context canceled or the receive
// socket failed); setup failures are returned before any scanning begins.
type Backend interface {
	Scan(ctx context.Context, opts Options) (<-chan Result, error)
}

var backends = map[string]func() Backend{}

// Register makes a backend constructor available under name. Backends call
// this from init; platform-specific backends simply never register on
// platforms where they cannot run.
func Register(name string, ctor func() Backend) {
	backends[name] = ctor
}

// New resolves a backend name to an implementation.
func New(name string) (Backend, error) {
	ctor, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

// Names lists the registered backends in stable order.
func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
