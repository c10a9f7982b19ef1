//go:build linux

package hci

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/lautis/ruuvitag-listener/internal/scanner"
)

// maxEventSize is the largest HCI event packet: 3 header bytes plus 255
// parameter bytes.
const maxEventSize = 258

func init() {
	scanner.Register("hci", func() scanner.Backend { return &backend{filter: DefaultFilterConfig()} })
}

// backend scans through a raw HCI socket. It owns two sockets: one receives
// advertising events, the other is used only to send the two scan
// configuration commands and is then held open to keep the scan state alive.
type backend struct {
	filter FilterConfig
}

func (b *backend) Scan(ctx context.Context, opts scanner.Options) (<-chan scanner.Result, error) {
	fd, err := openSocket()
	if err != nil {
		return nil, err
	}
	if err := bindSocket(fd, opts.DeviceID); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := setEventFilter(fd); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := attachVendorFilter(fd, CompileVendorFilter(b.filter)); err != nil {
		unix.Close(fd)
		return nil, err
	}

	cmdFD, err := openSocket()
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := bindSocket(cmdFD, opts.DeviceID); err != nil {
		unix.Close(fd)
		unix.Close(cmdFD)
		return nil, err
	}
	if err := configureScan(cmdFD); err != nil {
		unix.Close(fd)
		unix.Close(cmdFD)
		return nil, err
	}

	// Wake pipe unblocks the poll when the context is canceled.
	var wake [2]int
	if err := unix.Pipe2(wake[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		unix.Close(fd)
		unix.Close(cmdFD)
		return nil, err
	}

	slog.Info("hci: scanning started", "device", opts.DeviceID, "verbose", opts.Verbose)

	ch := make(chan scanner.Result, scanner.ChannelBufferSize)
	stop := make(chan struct{})
	go func() {
		// Wakes the poll on cancellation; stop covers the loop exiting
		// on its own so neither the goroutine nor the write end lingers.
		select {
		case <-ctx.Done():
		case <-stop:
		}
		unix.Close(wake[1])
	}()
	go b.loop(ctx, fd, cmdFD, wake[0], stop, ch, opts.Verbose)

	return ch, nil
}

// loop owns all socket state. It waits for readability, then drains every
// available datagram before waiting again so load does not cost one wake-up
// per packet. A poll error ends the loop and closes the channel; per-packet
// problems never do.
func (b *backend) loop(ctx context.Context, fd, cmdFD, wakeFD int, stop chan<- struct{}, ch chan<- scanner.Result, verbose bool) {
	defer func() {
		close(stop)
		unix.Close(fd)
		unix.Close(cmdFD)
		unix.Close(wakeFD)
		close(ch)
	}()

	buf := make([]byte, maxEventSize)
	fds := []unix.PollFd{
		{Fd: int32(fd), Events: unix.POLLIN},
		{Fd: int32(wakeFD), Events: unix.POLLIN | unix.POLLHUP},
	}

	for {
		fds[0].Revents = 0
		fds[1].Revents = 0
		if _, err := unix.Poll(fds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			slog.Warn("hci: poll failed, stopping scan", "error", err)
			return
		}
		if fds[1].Revents != 0 {
			slog.Info("hci: scanning stopped (context canceled)")
			return
		}

		for {
			n, err := unix.Read(fd, buf)
			if errors.Is(err, unix.EAGAIN) {
				break
			}
			if err != nil {
				slog.Warn("hci: read failed, stopping scan", "error", err)
				return
			}
			if n == 0 {
				slog.Warn("hci: receive socket closed, stopping scan")
				return
			}

			pkt := buf[:n]
			if n < 4 || pkt[0] != pktTypeEvent || pkt[1] != evtLEMeta || pkt[3] != subevtAdvReport {
				continue
			}
			if !mightBeRuuvi(pkt) {
				continue
			}

			result, ok := parseAdvertisingReport(pkt, verbose)
			if !ok {
				continue
			}
			select {
			case ch <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}
