// Package lineproto renders measurements as InfluxDB line protocol.
//
// The encoder appends to a caller-supplied buffer and allocates nothing per
// line once the buffer has grown to a steady size, since one line is
// produced for every accepted advertisement.
package lineproto

import (
	"strconv"

	"github.com/lautis/ruuvitag-listener/internal/measurement"
)

// fieldSpec declares one optional field: its wire name, how to read it from
// a measurement, and an optional unit transform applied at encode time.
// The table is iterated in declared order, which keeps output byte-identical
// across runs for identical input.
type fieldSpec struct {
	name      string
	value     func(m *measurement.Measurement) *float64
	transform func(v float64) float64
}

func pascalToKilopascal(v float64) float64 { return v / 1000.0 }

var fields = []fieldSpec{
	{name: "temperature", value: func(m *measurement.Measurement) *float64 { return m.Temperature }},
	{name: "humidity", value: func(m *measurement.Measurement) *float64 { return m.Humidity }},
	{name: "pressure", value: func(m *measurement.Measurement) *float64 { return m.Pressure }, transform: pascalToKilopascal},
	{name: "battery_potential", value: func(m *measurement.Measurement) *float64 { return m.BatteryPotential }},
	{name: "tx_power", value: func(m *measurement.Measurement) *float64 { return m.TxPower }},
	{name: "movement_counter", value: func(m *measurement.Measurement) *float64 { return m.MovementCounter }},
	{name: "measurement_sequence_number", value: func(m *measurement.Measurement) *float64 { return m.SequenceNumber }},
	{name: "acceleration_x", value: accelAxis(func(a *measurement.Acceleration) float64 { return a.X })},
	{name: "acceleration_y", value: accelAxis(func(a *measurement.Acceleration) float64 { return a.Y })},
	{name: "acceleration_z", value: accelAxis(func(a *measurement.Acceleration) float64 { return a.Z })},
	{name: "pm2_5", value: func(m *measurement.Measurement) *float64 { return m.PM25 }},
	{name: "co2", value: func(m *measurement.Measurement) *float64 { return m.CO2 }},
	{name: "voc_index", value: func(m *measurement.Measurement) *float64 { return m.VOCIndex }},
	{name: "nox_index", value: func(m *measurement.Measurement) *float64 { return m.NOxIndex }},
	{name: "luminosity", value: func(m *measurement.Measurement) *float64 { return m.Luminosity }},
}

func accelAxis(axis func(a *measurement.Acceleration) float64) func(m *measurement.Measurement) *float64 {
	return func(m *measurement.Measurement) *float64 {
		if m.Acceleration == nil {
			return nil
		}
		v := axis(m.Acceleration)
		return &v
	}
}

// Encoder renders measurements under a fixed series name.
type Encoder struct {
	series string
}

func NewEncoder(series string) *Encoder {
	return &Encoder{series: series}
}

// AppendLine appends one line-protocol point to dst and returns the
// extended buffer. The line has no trailing newline. name is the resolved
// display name for the device. Absent fields are omitted entirely; a
// measurement with no fields still renders tags, the separating space and
// the timestamp.
func (e *Encoder) AppendLine(dst []byte, m *measurement.Measurement, name string) []byte {
	dst = appendEscaped(dst, e.series, `, `)
	dst = append(dst, ",mac="...)
	dst = m.Addr.Append(dst)
	dst = append(dst, ",name="...)
	dst = appendEscaped(dst, name, `, =`)
	dst = append(dst, ' ')

	first := true
	for _, f := range fields {
		v := f.value(m)
		if v == nil {
			continue
		}
		if !first {
			dst = append(dst, ',')
		}
		first = false
		dst = append(dst, f.name...)
		dst = append(dst, '=')
		val := *v
		if f.transform != nil {
			val = f.transform(val)
		}
		dst = strconv.AppendFloat(dst, val, 'f', -1, 64)
	}

	dst = append(dst, ' ')
	nanos := m.Timestamp.UnixNano()
	if nanos < 0 {
		// Timestamps before the epoch clamp to zero rather than erroring.
		nanos = 0
	}
	return strconv.AppendInt(dst, nanos, 10)
}

// FieldMap returns the present fields with unit transforms applied, keyed
// by wire name, for sinks that consume structured points instead of text.
func FieldMap(m *measurement.Measurement) map[string]interface{} {
	out := make(map[string]interface{})
	for _, f := range fields {
		v := f.value(m)
		if v == nil {
			continue
		}
		val := *v
		if f.transform != nil {
			val = f.transform(val)
		}
		out[f.name] = val
	}
	return out
}

// appendEscaped appends s with every byte in special preceded by a
// backslash, per the line protocol's series-name and tag-value rules.
func appendEscaped(dst []byte, s, special string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		for j := 0; j < len(special); j++ {
			if c == special[j] {
				dst = append(dst, '\\')
				break
			}
		}
		dst = append(dst, c)
	}
	return dst
}
