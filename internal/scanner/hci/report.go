package hci

import (
	"bytes"

	"github.com/lautis/ruuvitag-listener/internal/mac"
	"github.com/lautis/ruuvitag-listener/internal/ruuvi"
	"github.com/lautis/ruuvitag-listener/internal/scanner"
)

// HCI packet layout constants for LE advertising reports.
const (
	pktTypeEvent    = 0x04
	evtLEMeta       = 0x3E
	subevtAdvReport = 0x02

	adTypeManufacturerData = 0xFF
)

// Ruuvi manufacturer ID as it appears on the wire (little-endian).
var vendorIDLE = []byte{0x99, 0x04}

// mightBeRuuvi is a cheap, allocation-free pre-check for the vendor ID
// byte pattern anywhere in the packet, run before full structural parsing.
func mightBeRuuvi(pkt []byte) bool {
	return bytes.Contains(pkt, vendorIDLE)
}

// parseAdvertisingReport walks an LE advertising report looking for Ruuvi
// manufacturer data and decodes it. The second return is false when the
// packet holds nothing to emit: not a Ruuvi advertisement, a malformed
// packet in non-verbose mode, or an empty report.
//
// Only the first report of a multi-report event is processed.
func parseAdvertisingReport(pkt []byte, verbose bool) (scanner.Result, bool) {
	if len(pkt) < 12 {
		if verbose {
			return scanner.Result{Err: ruuvi.ErrInvalidData}, true
		}
		return scanner.Result{}, false
	}

	// Skip packet type, event code, parameter length and subevent bytes.
	report := pkt[4:]
	if len(report) == 0 || report[0] == 0 {
		return scanner.Result{}, false
	}

	// Layout: num_reports, event_type, addr_type, addr[6], data_len, data.
	if len(report) < 10 {
		return scanner.Result{}, false
	}

	// Addresses are little-endian on the wire.
	var addr mac.Address
	for i := 0; i < 6; i++ {
		addr[i] = report[8-i]
	}

	dataLen := int(report[9])
	if len(report) < 10+dataLen {
		return scanner.Result{}, false
	}
	adData := report[10 : 10+dataLen]

	// Walk the AD structures: [length][type][type-specific bytes...].
	// Zero or overlong lengths end the walk without error.
	for offset := 0; offset+2 <= len(adData); {
		length := int(adData[offset])
		if length == 0 || offset+1+length > len(adData) {
			break
		}

		adType := adData[offset+1]
		if adType == adTypeManufacturerData && length >= 3 {
			id := uint16(adData[offset+2]) | uint16(adData[offset+3])<<8
			if id == ruuvi.ManufacturerID {
				payload := adData[offset+4 : offset+1+length]
				m, err := ruuvi.Decode(addr, payload)
				if err != nil {
					if verbose {
						return scanner.Result{Err: err}, true
					}
					return scanner.Result{}, false
				}
				return scanner.Result{Measurement: m}, true
			}
		}

		offset += 1 + length
	}

	return scanner.Result{}, false
}
