package output

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lautis/ruuvitag-listener/internal/measurement"
)

const mqttPublishTimeout = 5 * time.Second

// MQTTConfig configures the MQTT sink.
type MQTTConfig struct {
	Broker   string
	Port     int
	ClientID string
	Topic    string
}

// MQTTSink publishes each line-protocol line to a fixed topic. Publishing
// is synchronous per measurement; the paho client handles connection-level
// reconnects on its own.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSink connects to the broker and returns the sink. Connection
// failure is a setup error surfaced to the caller.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		slog.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttPublishTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout to %s:%d", cfg.Broker, cfg.Port)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return &MQTTSink{client: client, topic: cfg.Topic}, nil
}

func (s *MQTTSink) Emit(_ *measurement.Measurement, _ string, line []byte) error {
	token := s.client.Publish(s.topic, 1, false, append([]byte(nil), line...))
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish measurement: %w", err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	slog.Info("mqtt disconnected")
	return nil
}
