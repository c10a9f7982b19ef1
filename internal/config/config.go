// Package config loads the listener configuration from the environment,
// validating every variable individually.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lautis/ruuvitag-listener/internal/alias"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	// Backend selects the scanner implementation by name ("hci", "bluez").
	Backend string
	// DeviceID is the local Bluetooth controller index (0 for hci0).
	DeviceID uint16
	// Measurement is the line-protocol series name.
	Measurement string
	// Throttle is the minimum time between accepted readings per device;
	// zero disables throttling.
	Throttle time.Duration
	// Aliases maps device addresses to display names.
	Aliases alias.Map
	// Verbose forwards per-packet decode errors to the error stream.
	Verbose bool

	// Output selects the sink: "stdout", "mqtt" or "influx".
	Output string

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string

	InfluxURL      string
	InfluxDatabase string
	InfluxUsername string
	InfluxPassword string
}

// Env abstracts os.Getenv so tests can supply variables without touching
// the process environment.
type Env func(key string) string

func LoadFromEnv(getenv Env) (Config, error) {
	appEnv := strings.TrimSpace(getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	backend := strings.TrimSpace(getenv("RUUVI_BACKEND"))
	if backend == "" {
		backend = "hci"
	}

	deviceStr := strings.TrimSpace(getenv("RUUVI_DEVICE"))
	if deviceStr == "" {
		deviceStr = "0"
	}
	deviceID, err := strconv.ParseUint(deviceStr, 10, 16)
	if err != nil {
		return Config{}, fmt.Errorf("invalid RUUVI_DEVICE %q: %w", deviceStr, err)
	}

	meas := strings.TrimSpace(getenv("RUUVI_MEASUREMENT"))
	if meas == "" {
		meas = "ruuvi_measurement"
	}

	var throttle time.Duration
	if throttleStr := strings.TrimSpace(getenv("RUUVI_THROTTLE")); throttleStr != "" {
		throttle, err = ParseThrottle(throttleStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RUUVI_THROTTLE %q: %w", throttleStr, err)
		}
	}

	aliases, err := alias.ParseList(getenv("RUUVI_ALIASES"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid RUUVI_ALIASES: %w", err)
	}

	verbose := false
	if verboseStr := strings.TrimSpace(getenv("RUUVI_VERBOSE")); verboseStr != "" {
		verbose, err = strconv.ParseBool(verboseStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RUUVI_VERBOSE %q: %w", verboseStr, err)
		}
	}

	output := strings.TrimSpace(getenv("OUTPUT"))
	if output == "" {
		output = "stdout"
	}
	switch output {
	case "stdout", "mqtt", "influx":
	default:
		return Config{}, fmt.Errorf("invalid OUTPUT %q (allowed: stdout, mqtt, influx)", output)
	}

	mqttBroker := strings.TrimSpace(getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}

	mqttPortStr := strings.TrimSpace(getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := strings.TrimSpace(getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "ruuvitag-listener"
	}

	mqttTopic := strings.TrimSpace(getenv("MQTT_TOPIC"))
	if mqttTopic == "" {
		mqttTopic = "ruuvi/measurements"
	}

	influxURL := strings.TrimSpace(getenv("INFLUX_URL"))
	if influxURL == "" {
		influxURL = "http://localhost:8086"
	}

	influxDatabase := strings.TrimSpace(getenv("INFLUX_DATABASE"))
	if influxDatabase == "" {
		influxDatabase = "ruuvi"
	}

	return Config{
		AppEnv:         appEnv,
		LogLevel:       level,
		Backend:        backend,
		DeviceID:       uint16(deviceID),
		Measurement:    meas,
		Throttle:       throttle,
		Aliases:        aliases,
		Verbose:        verbose,
		Output:         output,
		MQTTBroker:     mqttBroker,
		MQTTPort:       mqttPort,
		MQTTClientID:   mqttClientID,
		MQTTTopic:      mqttTopic,
		InfluxURL:      influxURL,
		InfluxDatabase: influxDatabase,
		InfluxUsername: strings.TrimSpace(getenv("INFLUX_USERNAME")),
		InfluxPassword: getenv("INFLUX_PASSWORD"),
	}, nil
}

// ParseThrottle parses a throttle interval. Accepts Go duration strings
// ("3s", "1m", "500ms", "2h"); a bare number is interpreted as seconds.
func ParseThrottle(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if secs, err := strconv.ParseUint(s, 10, 32); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %v", d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
