package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/lautis/ruuvitag-listener/internal/mac"
)

func envFromMap(vars map[string]string) Env {
	return func(key string) string { return vars[key] }
}

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv(envFromMap(nil))
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if got, want := cfg.AppEnv, "dev"; got != want {
		t.Errorf("AppEnv = %q, want %q", got, want)
	}
	if got, want := cfg.LogLevel, slog.LevelInfo; got != want {
		t.Errorf("LogLevel = %v, want %v", got, want)
	}
	if got, want := cfg.Backend, "hci"; got != want {
		t.Errorf("Backend = %q, want %q", got, want)
	}
	if cfg.DeviceID != 0 {
		t.Errorf("DeviceID = %d, want 0", cfg.DeviceID)
	}
	if got, want := cfg.Measurement, "ruuvi_measurement"; got != want {
		t.Errorf("Measurement = %q, want %q", got, want)
	}
	if cfg.Throttle != 0 {
		t.Errorf("Throttle = %v, want 0", cfg.Throttle)
	}
	if cfg.Verbose {
		t.Error("Verbose = true, want false")
	}
	if got, want := cfg.Output, "stdout"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
	if got, want := cfg.MQTTBroker, "localhost"; got != want {
		t.Errorf("MQTTBroker = %q, want %q", got, want)
	}
	if got, want := cfg.MQTTPort, 1883; got != want {
		t.Errorf("MQTTPort = %d, want %d", got, want)
	}
	if got, want := cfg.InfluxURL, "http://localhost:8086"; got != want {
		t.Errorf("InfluxURL = %q, want %q", got, want)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	cfg, err := LoadFromEnv(envFromMap(map[string]string{
		"APP_ENV":           "prod",
		"LOG_LEVEL":         " debug ",
		"RUUVI_BACKEND":     "bluez",
		"RUUVI_DEVICE":      "1",
		"RUUVI_MEASUREMENT": "climate",
		"RUUVI_THROTTLE":    "30s",
		"RUUVI_ALIASES":     "AA:BB:CC:DD:EE:FF=sauna",
		"RUUVI_VERBOSE":     "true",
		"OUTPUT":            "mqtt",
		"MQTT_BROKER":       "broker.local",
		"MQTT_PORT":         "8883",
	}))
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if got, want := cfg.AppEnv, "prod"; got != want {
		t.Errorf("AppEnv = %q, want %q", got, want)
	}
	if got, want := cfg.LogLevel, slog.LevelDebug; got != want {
		t.Errorf("LogLevel = %v, want %v", got, want)
	}
	if got, want := cfg.Backend, "bluez"; got != want {
		t.Errorf("Backend = %q, want %q", got, want)
	}
	if got, want := cfg.DeviceID, uint16(1); got != want {
		t.Errorf("DeviceID = %d, want %d", got, want)
	}
	if got, want := cfg.Throttle, 30*time.Second; got != want {
		t.Errorf("Throttle = %v, want %v", got, want)
	}
	addr, _ := mac.Parse("AA:BB:CC:DD:EE:FF")
	if got, want := cfg.Aliases[addr], "sauna"; got != want {
		t.Errorf("Aliases[%s] = %q, want %q", addr, got, want)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
	if got, want := cfg.Output, "mqtt"; got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
	if got, want := cfg.MQTTBroker, "broker.local"; got != want {
		t.Errorf("MQTTBroker = %q, want %q", got, want)
	}
	if got, want := cfg.MQTTPort, 8883; got != want {
		t.Errorf("MQTTPort = %d, want %d", got, want)
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"app env", map[string]string{"APP_ENV": "staging"}},
		{"log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"device", map[string]string{"RUUVI_DEVICE": "hci0"}},
		{"throttle", map[string]string{"RUUVI_THROTTLE": "fast"}},
		{"negative throttle", map[string]string{"RUUVI_THROTTLE": "-5s"}},
		{"aliases", map[string]string{"RUUVI_ALIASES": "not-a-mac=name"}},
		{"verbose", map[string]string{"RUUVI_VERBOSE": "maybe"}},
		{"output", map[string]string{"OUTPUT": "kafka"}},
		{"mqtt port", map[string]string{"MQTT_PORT": "tcp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromEnv(envFromMap(tt.vars)); err == nil {
				t.Error("LoadFromEnv() error = nil, want error")
			}
		})
	}
}

func TestParseThrottle(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"3s", 3 * time.Second},
		{"1m", time.Minute},
		{"500ms", 500 * time.Millisecond},
		{"2h", 2 * time.Hour},
		{"10", 10 * time.Second},
		{" 5 ", 5 * time.Second},
	}
	for _, tt := range tests {
		got, err := ParseThrottle(tt.in)
		if err != nil {
			t.Errorf("ParseThrottle(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseThrottle(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
