//go:build linux

package bluez

import (
	"context"
	"fmt"
	"log/slog"

	"tinygo.org/x/bluetooth"

	"github.com/lautis/ruuvitag-listener/internal/mac"
	"github.com/lautis/ruuvitag-listener/internal/ruuvi"
	"github.com/lautis/ruuvitag-listener/internal/scanner"
)

func init() {
	scanner.Register("bluez", func() scanner.Backend { return &backend{} })
}

type backend struct{}

func (b *backend) Scan(ctx context.Context, opts scanner.Options) (<-chan scanner.Result, error) {
	adapter := bluetooth.NewAdapter(fmt.Sprintf("hci%d", opts.DeviceID))
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter hci%d: %w", opts.DeviceID, err)
	}

	go func() {
		<-ctx.Done()
		_ = adapter.StopScan()
	}()

	slog.Info("bluez: scanning started", "device", opts.DeviceID, "verbose", opts.Verbose)

	ch := make(chan scanner.Result, scanner.ChannelBufferSize)
	go func() {
		defer close(ch)

		// adapter.Scan blocks until StopScan or error.
		err := adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
			for _, md := range r.ManufacturerData() {
				if md.CompanyID != ruuvi.ManufacturerID {
					continue
				}

				addr, err := mac.Parse(r.Address.String())
				if err != nil {
					return
				}

				m, err := ruuvi.Decode(addr, md.Data)
				if err != nil {
					if opts.Verbose {
						select {
						case ch <- scanner.Result{Err: err}:
						case <-ctx.Done():
						}
					}
					return
				}

				select {
				case ch <- scanner.Result{Measurement: m}:
				case <-ctx.Done():
				}
				return
			}
		})
		if err != nil && ctx.Err() == nil {
			slog.Warn("bluez: scan stopped", "error", err)
			return
		}
		slog.Info("bluez: scanning stopped (context canceled)")
	}()

	return ch, nil
}
