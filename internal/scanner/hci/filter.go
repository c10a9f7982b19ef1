// Package hci implements the raw HCI socket scanning backend. It talks to
// the local Bluetooth controller directly over an AF_BLUETOOTH raw socket,
// with no daemon in between, and installs a classic BPF program so the
// kernel discards non-Ruuvi traffic before it reaches user space.
package hci

// Classic BPF opcode fields (not eBPF).
const (
	bpfLD  uint16 = 0x00
	bpfJMP uint16 = 0x05
	bpfRET uint16 = 0x06
	bpfH   uint16 = 0x08 // half-word (16-bit) load
	bpfB   uint16 = 0x10 // byte load
	bpfABS uint16 = 0x20
	bpfJEQ uint16 = 0x10
	bpfK   uint16 = 0x00
)

// Instruction is one classic BPF instruction. The layout mirrors struct
// sock_filter; jump offsets are relative instruction counts.
type Instruction struct {
	Code uint16
	Jt   uint8
	Jf   uint8
	K    uint32
}

// FilterConfig controls the compiled kernel filter. The scan window bounds
// the byte offsets checked for the vendor ID; it is tuned to where
// manufacturer data appears in observed advertisement layouts rather than
// derived from the protocol, so it stays configurable.
type FilterConfig struct {
	// VendorID compared against 16-bit loads. BPF loads half-words in
	// network byte order, so the little-endian wire bytes 99 04 read back
	// as 0x9904.
	VendorID uint16
	// WindowStart and WindowEnd are the first and last packet offsets
	// (inclusive) checked for the vendor ID.
	WindowStart uint32
	WindowEnd   uint32
}

// DefaultFilterConfig matches Ruuvi advertisements: manufacturer data
// starts at offset 14 (after the HCI and report headers) and lands within
// the first few AD structures.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		VendorID:    0x9904,
		WindowStart: 14,
		WindowEnd:   45,
	}
}

// Assembly labels. Jumps are emitted symbolically and resolved to relative
// offsets in a second pass, so the program shape can change without
// hand-recomputing jump counts.
type label int

const (
	labelNone label = iota
	labelReject
	labelAccept
)

type asm struct {
	ins []Instruction
	jt  []label
	jf  []label
}

func (a *asm) emit(ins Instruction, jt, jf label) {
	a.ins = append(a.ins, ins)
	a.jt = append(a.jt, jt)
	a.jf = append(a.jf, jf)
}

// resolve patches symbolic jump targets to relative instruction counts.
// BPF jumps are relative to the next instruction: target - current - 1.
func (a *asm) resolve(marks map[label]int) []Instruction {
	for i := range a.ins {
		if l := a.jt[i]; l != labelNone {
			a.ins[i].Jt = uint8(marks[l] - i - 1)
		}
		if l := a.jf[i]; l != labelNone {
			a.ins[i].Jf = uint8(marks[l] - i - 1)
		}
	}
	return a.ins
}

// CompileVendorFilter builds the kernel packet filter:
//
//  1. Equality checks on the HCI header: packet type, event code and
//     subevent must identify an LE advertising report.
//  2. A 16-bit load-and-compare at every offset of the scan window,
//     jumping to accept on a vendor ID match.
//  3. Reject (drop) and accept (keep whole packet) returns.
//
// The program is a pre-filter only; user-space parsing stays authoritative.
func CompileVendorFilter(cfg FilterConfig) []Instruction {
	var a asm

	for _, check := range []struct {
		offset uint32
		want   uint32
	}{
		{0, pktTypeEvent},
		{1, evtLEMeta},
		{3, subevtAdvReport},
	} {
		a.emit(Instruction{Code: bpfLD | bpfB | bpfABS, K: check.offset}, labelNone, labelNone)
		a.emit(Instruction{Code: bpfJMP | bpfJEQ | bpfK, K: check.want}, labelNone, labelReject)
	}

	for offset := cfg.WindowStart; offset <= cfg.WindowEnd; offset++ {
		a.emit(Instruction{Code: bpfLD | bpfH | bpfABS, K: offset}, labelNone, labelNone)
		a.emit(Instruction{Code: bpfJMP | bpfJEQ | bpfK, K: uint32(cfg.VendorID)}, labelAccept, labelNone)
	}

	marks := map[label]int{labelReject: len(a.ins)}
	a.emit(Instruction{Code: bpfRET | bpfK, K: 0}, labelNone, labelNone)
	marks[labelAccept] = len(a.ins)
	a.emit(Instruction{Code: bpfRET | bpfK, K: 0xFFFF}, labelNone, labelNone)

	return a.resolve(marks)
}
