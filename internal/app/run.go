// Package app wires the scanner, throttle, encoder and sink into the
// listening loop.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lautis/ruuvitag-listener/internal/alias"
	"github.com/lautis/ruuvitag-listener/internal/config"
	"github.com/lautis/ruuvitag-listener/internal/lineproto"
	"github.com/lautis/ruuvitag-listener/internal/output"
	"github.com/lautis/ruuvitag-listener/internal/scanner"
	"github.com/lautis/ruuvitag-listener/internal/throttle"
)

// LoopOptions carries everything the listening loop needs besides the
// result stream and the sink.
type LoopOptions struct {
	Encoder  *lineproto.Encoder
	Throttle *throttle.Throttle
	Aliases  alias.Map
	Verbose  bool
}

// Run starts the configured backend and pumps results into the configured
// sink until ctx is canceled or the backend fails.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	backend, err := scanner.New(cfg.Backend)
	if err != nil {
		return err
	}

	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			logger.Error("closing sink", "error", cerr)
		}
	}()

	results, err := backend.Scan(ctx, scanner.Options{
		DeviceID: cfg.DeviceID,
		Verbose:  cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("starting scan: %w", err)
	}

	logger.Info("listening",
		"backend", cfg.Backend,
		"device", fmt.Sprintf("hci%d", cfg.DeviceID),
		"output", cfg.Output,
		"throttle", cfg.Throttle,
	)

	opts := LoopOptions{
		Encoder:  lineproto.NewEncoder(cfg.Measurement),
		Throttle: throttle.New(cfg.Throttle),
		Aliases:  cfg.Aliases,
		Verbose:  cfg.Verbose,
	}
	return RunLoop(results, opts, sink, os.Stderr)
}

// RunLoop consumes results until the channel closes. Each measurement
// passes through the per-device throttle, gets its display name resolved
// and is emitted to the sink. Decode errors reach errw only in verbose
// mode. A sink failure drops that one measurement with a diagnostic; the
// next advertisement gets a fresh attempt. The only error return in the
// pipeline is the backend failing to start, which happens before this
// loop runs.
func RunLoop(results <-chan scanner.Result, opts LoopOptions, sink output.Sink, errw io.Writer) error {
	var buf []byte
	for res := range results {
		if res.Err != nil {
			if opts.Verbose {
				fmt.Fprintln(errw, res.Err)
			}
			continue
		}
		m := res.Measurement
		if !opts.Throttle.ShouldEmit(m.Addr) {
			continue
		}
		name := opts.Aliases.Resolve(m.Addr)
		buf = opts.Encoder.AppendLine(buf[:0], &m, name)
		if err := sink.Emit(&m, name, buf); err != nil {
			fmt.Fprintf(errw, "emit failed: %v\n", err)
		}
	}
	return nil
}

func newSink(cfg config.Config) (output.Sink, error) {
	switch cfg.Output {
	case "stdout":
		return output.NewWriterSink(os.Stdout), nil
	case "mqtt":
		return output.NewMQTTSink(output.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		})
	case "influx":
		return output.NewInfluxSink(output.InfluxConfig{
			URL:      cfg.InfluxURL,
			Database: cfg.InfluxDatabase,
			Username: cfg.InfluxUsername,
			Password: cfg.InfluxPassword,
			Series:   cfg.Measurement,
		})
	default:
		return nil, fmt.Errorf("unknown output %q", cfg.Output)
	}
}
