// Package ruuvi decodes RuuviTag manufacturer-specific data into
// measurements. Data formats 5 (RAWv2) and 6 (air quality) are supported.
//
// The input is the manufacturer data payload with the company ID already
// stripped; the first byte is the data format.
package ruuvi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lautis/ruuvitag-listener/internal/mac"
	"github.com/lautis/ruuvitag-listener/internal/measurement"
)

// ManufacturerID is the Ruuvi Innovations Bluetooth company identifier.
const ManufacturerID uint16 = 0x0499

// Decode failure kinds, matchable with errors.Is. A decode error is never
// fatal to the scan loop; callers either drop it or report it depending on
// verbosity.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidData       = errors.New("invalid data")
	ErrDecoder           = errors.New("decoder error")
)

// Format 5 layout, offsets relative to the format byte.
const (
	f5MinLen = 18

	f5TemperatureInvalid = 0x8000
	f5HumidityInvalid    = 0xFFFF
	f5PressureInvalid    = 0xFFFF
	f5AccelInvalid       = 0x8000
	f5BatteryInvalid     = 0x07FF // 11-bit field all ones
	f5TxPowerInvalid     = 0x1F   // 5-bit field all ones
	f5MovementInvalid    = 0xFF
	f5SequenceInvalid    = 0xFFFF

	f5PressureOffsetPa = 50000
	f5BatteryBaseMV    = 1600
)

// Format 6 layout, offsets relative to the format byte. Temperature,
// humidity and pressure share the format 5 scales; VOC and NOx are 9-bit
// values with the high 8 bits in their own byte and the low bit in the
// flags byte. The trailing sound byte and compact MAC are not carried.
const (
	f6MinLen = 17

	f6PM25Invalid       = 0xFFFF
	f6CO2Invalid        = 0xFFFF
	f6IndexInvalid      = 0x1FF
	f6LuminosityInvalid = 0xFF
	f6SequenceInvalid   = 0xFF

	f6FlagsVOCLowBit = 6
	f6FlagsNOxLowBit = 7
)

// Decode converts manufacturer data from addr into a Measurement, stamping
// it with the current time. The first payload byte selects the data format.
func Decode(addr mac.Address, data []byte) (measurement.Measurement, error) {
	if len(data) == 0 {
		return measurement.Measurement{}, fmt.Errorf("%w: empty payload", ErrInvalidData)
	}

	switch data[0] {
	case 5:
		return decodeFormat5(addr, data)
	case 6:
		return decodeFormat6(addr, data)
	default:
		return measurement.Measurement{}, fmt.Errorf("%w: data format %d (only 5 and 6 supported)", ErrUnsupportedFormat, data[0])
	}
}

func decodeFormat5(addr mac.Address, data []byte) (measurement.Measurement, error) {
	if len(data) < f5MinLen {
		return measurement.Measurement{}, fmt.Errorf("%w: format 5 payload is %d bytes, need %d", ErrDecoder, len(data), f5MinLen)
	}

	m := measurement.Measurement{Addr: addr, Timestamp: time.Now()}

	if raw := binary.BigEndian.Uint16(data[1:3]); raw != f5TemperatureInvalid {
		m.Temperature = f64(float64(int16(raw)) * 0.005)
	}
	if raw := binary.BigEndian.Uint16(data[3:5]); raw != f5HumidityInvalid {
		m.Humidity = f64(float64(raw) * 0.0025)
	}
	if raw := binary.BigEndian.Uint16(data[5:7]); raw != f5PressureInvalid {
		m.Pressure = f64(float64(raw) + f5PressureOffsetPa)
	}

	// Acceleration axes are optional individually on the wire but emitted
	// as one vector only when all three are present.
	ax := binary.BigEndian.Uint16(data[7:9])
	ay := binary.BigEndian.Uint16(data[9:11])
	az := binary.BigEndian.Uint16(data[11:13])
	if ax != f5AccelInvalid && ay != f5AccelInvalid && az != f5AccelInvalid {
		m.Acceleration = &measurement.Acceleration{
			X: float64(int16(ax)) / 1000.0,
			Y: float64(int16(ay)) / 1000.0,
			Z: float64(int16(az)) / 1000.0,
		}
	}

	// Battery millivolts in the high 11 bits (offset from 1600 mV), tx
	// power in the low 5 bits (-40 dBm + 2 dBm steps).
	power := binary.BigEndian.Uint16(data[13:15])
	if raw := power >> 5; raw != f5BatteryInvalid {
		m.BatteryPotential = f64(float64(raw+f5BatteryBaseMV) / 1000.0)
	}
	if raw := power & 0x1F; raw != f5TxPowerInvalid {
		m.TxPower = f64(float64(raw)*2 - 40)
	}

	if data[15] != f5MovementInvalid {
		m.MovementCounter = f64(float64(data[15]))
	}
	if raw := binary.BigEndian.Uint16(data[16:18]); raw != f5SequenceInvalid {
		m.SequenceNumber = f64(float64(raw))
	}

	return m, nil
}

func decodeFormat6(addr mac.Address, data []byte) (measurement.Measurement, error) {
	if len(data) < f6MinLen {
		return measurement.Measurement{}, fmt.Errorf("%w: format 6 payload is %d bytes, need %d", ErrDecoder, len(data), f6MinLen)
	}

	m := measurement.Measurement{Addr: addr, Timestamp: time.Now()}

	if raw := binary.BigEndian.Uint16(data[1:3]); raw != f5TemperatureInvalid {
		m.Temperature = f64(float64(int16(raw)) * 0.005)
	}
	if raw := binary.BigEndian.Uint16(data[3:5]); raw != f5HumidityInvalid {
		m.Humidity = f64(float64(raw) * 0.0025)
	}
	if raw := binary.BigEndian.Uint16(data[5:7]); raw != f5PressureInvalid {
		// The wire carries hectopascal-scale data; stored as Pa to stay
		// consistent with format 5.
		hpa := (float64(raw) + f5PressureOffsetPa) / 100.0
		m.Pressure = f64(hpa * 100.0)
	}
	if raw := binary.BigEndian.Uint16(data[7:9]); raw != f6PM25Invalid {
		m.PM25 = f64(float64(raw) * 0.1)
	}
	if raw := binary.BigEndian.Uint16(data[9:11]); raw != f6CO2Invalid {
		m.CO2 = f64(float64(raw))
	}

	flags := data[16]
	if raw := uint16(data[11])<<1 | uint16(flags>>f6FlagsVOCLowBit)&1; raw != f6IndexInvalid {
		m.VOCIndex = f64(float64(raw))
	}
	if raw := uint16(data[12])<<1 | uint16(flags>>f6FlagsNOxLowBit)&1; raw != f6IndexInvalid {
		m.NOxIndex = f64(float64(raw))
	}

	if code := data[13]; code != f6LuminosityInvalid {
		m.Luminosity = f64(luminosityLux(code))
	}
	if data[15] != f6SequenceInvalid {
		m.SequenceNumber = f64(float64(data[15]))
	}

	return m, nil
}

// luminosityLux expands the 8-bit logarithmic luminosity code (0..254)
// to lux over a 0..65535 range.
func luminosityLux(code uint8) float64 {
	if code == 0 {
		return 0
	}
	return math.Exp(float64(code) / 254.0 * math.Log(65535))
}

func f64(v float64) *float64 { return &v }
