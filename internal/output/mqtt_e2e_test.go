//go:build e2e

package output

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lautis/ruuvitag-listener/internal/mac"
	"github.com/lautis/ruuvitag-listener/internal/measurement"
)

const brokerPort = "1883/tcp"

// startBroker runs an anonymous-access mosquitto and returns its host:port.
func startBroker(t *testing.T) (string, int) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2",
		ExposedPorts: []string{brokerPort},
		// The image ships a no-auth config for exactly this use.
		Cmd:        []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor: wait.ForListeningPort(nat.Port(brokerPort)).WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mosquitto container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, nat.Port(brokerPort))
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return host, port.Int()
}

func subscribe(t *testing.T, host string, port int, topic string) <-chan []byte {
	t.Helper()

	msgs := make(chan []byte, 16)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID("mqtt-e2e-subscriber")

	client := mqtt.NewClient(opts)
	if tok := client.Connect(); !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	t.Cleanup(func() { client.Disconnect(250) })

	tok := client.Subscribe(topic, 1, func(_ mqtt.Client, m mqtt.Message) {
		msgs <- m.Payload()
	})
	if !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}
	return msgs
}

func TestMQTTSinkDeliversOneMessagePerMeasurement(t *testing.T) {
	host, port := startBroker(t)
	topic := "ruuvi/e2e"
	msgs := subscribe(t, host, port, topic)

	sink, err := NewMQTTSink(MQTTConfig{
		Broker:   host,
		Port:     port,
		ClientID: "mqtt-e2e-sink",
		Topic:    topic,
	})
	if err != nil {
		t.Fatalf("NewMQTTSink() error = %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })

	addr, _ := mac.Parse("AA:BB:CC:DD:EE:FF")
	m := &measurement.Measurement{Addr: addr, Timestamp: time.Unix(1, 0)}

	lines := []string{
		"ruuvi,mac=AA:BB:CC:DD:EE:FF,name=one temperature=21.5 1000000000",
		"ruuvi,mac=AA:BB:CC:DD:EE:FF,name=two temperature=22.5 1000000000",
		"ruuvi,mac=AA:BB:CC:DD:EE:FF,name=three temperature=23.5 1000000000",
	}
	for _, line := range lines {
		if err := sink.Emit(m, "e2e", []byte(line)); err != nil {
			t.Fatalf("Emit(%q) error = %v", line, err)
		}
	}

	for _, want := range lines {
		select {
		case got := <-msgs:
			if string(got) != want {
				t.Errorf("message = %q, want %q", got, want)
			}
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	select {
	case extra := <-msgs:
		t.Errorf("unexpected extra message %q", extra)
	case <-time.After(500 * time.Millisecond):
	}
}
