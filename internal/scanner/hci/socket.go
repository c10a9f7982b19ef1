//go:build linux

package hci

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// Socket-level constants not exported by x/sys/unix.
const (
	solHCI       = 0
	hciFilterOpt = 2
)

// LE controller commands.
const (
	ogfLECtl            = 0x08
	ocfSetScanParams    = 0x000B
	ocfSetScanEnable    = 0x000C
	pktTypeCommand      = 0x01
	leScanPassive       = 0x00
	leOwnAddressPublic  = 0x00
	leFilterAcceptAll   = 0x00
	leScanIntervalSlots = 0x00A0 // 100ms in 0.625ms units
	leScanWindowSlots   = 0x00A0
)

// openSocket creates a raw, non-blocking HCI socket. Requires CAP_NET_RAW;
// without it the kernel refuses the socket and the error surfaces here.
func openSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_RAW|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, unix.BTPROTO_HCI)
	if err != nil {
		return -1, fmt.Errorf("create hci socket: %w", err)
	}
	return fd, nil
}

func bindSocket(fd int, deviceID uint16) error {
	addr := &unix.SockaddrHCI{Dev: deviceID, Channel: unix.HCI_CHANNEL_RAW}
	if err := unix.Bind(fd, addr); err != nil {
		return fmt.Errorf("bind hci socket to device %d: %w", deviceID, err)
	}
	return nil
}

// setEventFilter installs the coarse HCI socket filter: event packets only,
// LE meta events only. The finer BPF program runs after this filter.
func setEventFilter(fd int) error {
	// struct hci_filter: type_mask u32, event_mask u32[2], opcode u16,
	// in host byte order.
	var filter [14]byte
	typeMask := uint32(1) << pktTypeEvent
	var eventMask [2]uint32
	eventMask[evtLEMeta/32] = 1 << (evtLEMeta % 32)

	binary.NativeEndian.PutUint32(filter[0:4], typeMask)
	binary.NativeEndian.PutUint32(filter[4:8], eventMask[0])
	binary.NativeEndian.PutUint32(filter[8:12], eventMask[1])
	binary.NativeEndian.PutUint16(filter[12:14], 0)

	if err := unix.SetsockoptString(fd, solHCI, hciFilterOpt, string(filter[:])); err != nil {
		return fmt.Errorf("set hci event filter: %w", err)
	}
	return nil
}

// attachVendorFilter installs the compiled BPF program. The program is
// built once and never re-installed for the life of the socket.
func attachVendorFilter(fd int, program []Instruction) error {
	filters := make([]unix.SockFilter, len(program))
	for i, ins := range program {
		filters[i] = unix.SockFilter{Code: ins.Code, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	prog := unix.SockFprog{Len: uint16(len(filters)), Filter: &filters[0]}
	if err := unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &prog); err != nil {
		return fmt.Errorf("attach bpf filter: %w", err)
	}
	return nil
}

// commandPacket frames an HCI command: packet type, little-endian opcode,
// parameter length, parameters.
func commandPacket(ogf, ocf uint16, params []byte) []byte {
	opcode := ogf<<10 | ocf
	pkt := make([]byte, 0, 4+len(params))
	pkt = append(pkt, pktTypeCommand, byte(opcode), byte(opcode>>8), byte(len(params)))
	return append(pkt, params...)
}

func sendCommand(fd int, pkt []byte) error {
	if _, err := unix.Write(fd, pkt); err != nil {
		return fmt.Errorf("send hci command: %w", err)
	}
	return nil
}

// configureScan sets passive scan parameters and enables scanning with
// controller duplicate filtering off, so repeated broadcasts keep arriving.
func configureScan(fd int) error {
	params := []byte{
		leScanPassive,
		byte(leScanIntervalSlots), byte(leScanIntervalSlots >> 8),
		byte(leScanWindowSlots), byte(leScanWindowSlots >> 8),
		leOwnAddressPublic,
		leFilterAcceptAll,
	}
	if err := sendCommand(fd, commandPacket(ogfLECtl, ocfSetScanParams, params)); err != nil {
		return fmt.Errorf("set scan parameters: %w", err)
	}

	enable := []byte{0x01, 0x00} // enabled, duplicate filtering off
	if err := sendCommand(fd, commandPacket(ogfLECtl, ocfSetScanEnable, enable)); err != nil {
		return fmt.Errorf("enable scanning: %w", err)
	}
	return nil
}
