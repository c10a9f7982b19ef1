// Package measurement defines the decoded RuuviTag reading.
package measurement

import (
	"time"

	"github.com/lautis/ruuvitag-listener/internal/mac"
)

// Acceleration is a 3-axis acceleration vector in g. The vector is present
// only when all three axes were measured.
type Acceleration struct {
	X, Y, Z float64
}

// Measurement is one decoded sensor reading. Optional fields are pointers:
// nil means the source data format does not carry that quantity, which is
// distinct from a zero reading. Values are in SI-ish units: temperature in
// Celsius, humidity in percent, pressure in Pascals, battery in Volts,
// tx power in dBm, PM2.5 in ug/m3, CO2 in ppm, luminosity in lux.
type Measurement struct {
	Addr      mac.Address
	Timestamp time.Time

	Temperature      *float64
	Humidity         *float64
	Pressure         *float64
	BatteryPotential *float64
	TxPower          *float64
	MovementCounter  *float64
	SequenceNumber   *float64
	Acceleration     *Acceleration
	PM25             *float64
	CO2              *float64
	VOCIndex         *float64
	NOxIndex         *float64
	Luminosity       *float64
}
