package output

import (
	"fmt"

	client "github.com/influxdata/influxdb/client/v2"

	"github.com/lautis/ruuvitag-listener/internal/lineproto"
	"github.com/lautis/ruuvitag-listener/internal/measurement"
)

// InfluxConfig configures the InfluxDB HTTP sink.
type InfluxConfig struct {
	URL      string
	Database string
	Username string
	Password string
	Series   string
}

// InfluxSink writes each measurement as a single point straight to an
// InfluxDB HTTP endpoint, one synchronous write per measurement.
type InfluxSink struct {
	c        client.Client
	database string
	series   string
}

func NewInfluxSink(cfg InfluxConfig) (*InfluxSink, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("influxdb client: %w", err)
	}
	return &InfluxSink{c: c, database: cfg.Database, series: cfg.Series}, nil
}

func (s *InfluxSink) Emit(m *measurement.Measurement, name string, _ []byte) error {
	fields := lineproto.FieldMap(m)
	if len(fields) == 0 {
		return nil
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.database,
		Precision: "ns",
	})
	if err != nil {
		return fmt.Errorf("batch points: %w", err)
	}

	tags := map[string]string{
		"mac":  m.Addr.String(),
		"name": name,
	}
	pt, err := client.NewPoint(s.series, tags, fields, m.Timestamp)
	if err != nil {
		return fmt.Errorf("new point: %w", err)
	}
	bp.AddPoint(pt)

	if err := s.c.Write(bp); err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	return nil
}

func (s *InfluxSink) Close() error {
	return s.c.Close()
}
