package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry values like "2s" or "200ms".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the top-level application configuration.
type Config struct {
	Link      LinkConfig      `yaml:"link"`
	Keyboard  KeyboardConfig  `yaml:"keyboard"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Logger    LoggerConfig    `yaml:"logger"`
	Tracer    TracerConfig    `yaml:"tracer"`
}

// LinkConfig selects and parameterizes the device transport.
type LinkConfig struct {
	Transport        string       `yaml:"transport"` // "serial" or "ble"
	ReconnectBackoff Duration     `yaml:"reconnect_backoff"`
	Serial           SerialConfig `yaml:"serial"`
	BLE              BLEConfig    `yaml:"ble"`
}

// SerialConfig holds serial port settings.
type SerialConfig struct {
	Port        string   `yaml:"port"`         // e.g. /dev/ttyUSB0 or COM3
	BaudRate    int      `yaml:"baud_rate"`    // default 115200
	ReadTimeout Duration `yaml:"read_timeout"` // per-poll read timeout
}

// BLEConfig holds BLE central settings. The UUID defaults match the
// deck firmware's GATT service.
type BLEConfig struct {
	DeviceName     string   `yaml:"device_name"`  // advertised name substring
	ServiceUUID    string   `yaml:"service_uuid"`
	RXCharUUID     string   `yaml:"rx_char_uuid"` // host→device writes
	TXCharUUID     string   `yaml:"tx_char_uuid"` // device→host notifies
	ScanTimeout    Duration `yaml:"scan_timeout"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
}

// KeyboardConfig holds command parsing and injection settings.
type KeyboardConfig struct {
	Layout       string   `yaml:"layout"` // "us", "de" or "fr"
	ReadySignals []string `yaml:"ready_signals"`
	SettleDelay  Duration `yaml:"settle_delay"` // pause between chord and typed text
}

// TelemetryConfig holds telemetry sampling and smoothing settings.
type TelemetryConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Interval      Duration `yaml:"interval"`         // minimum gap between sends
	Alpha         float64  `yaml:"alpha"`            // EMA smoothing factor
	MaxRatePerSec float64  `yaml:"max_rate_per_sec"` // clamp, percentage points per second
	DateFormat    string   `yaml:"date_format"`      // "YYYY-MM-DD" or "DD.MM.YYYY"
}

// DateLayout translates the configured date format into a Go time layout.
func (t TelemetryConfig) DateLayout() string {
	if t.DateFormat == "DD.MM.YYYY" {
		return "02.01.2006"
	}
	return "2006-01-02"
}

// GatewayConfig holds WebSocket gateway settings. The auth token may
// be stored encrypted ("enc:" prefix, see DecryptValue).
type GatewayConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"` // empty = unauthenticated
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stdout, stderr or a file path
}

// TracerConfig holds OpenTelemetry tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// DefaultReadySignals are the handshake spellings the deck firmware is
// known to emit. This is configuration, not protocol negotiation.
var DefaultReadySignals = []string{
	"CYD Deck Ready!",
	"cyd deck ready!",
	"CYD DECK READY!",
	"Ready!",
	"ready!",
}

// Defaults returns a config populated with working defaults.
func Defaults() *Config {
	return &Config{
		Link: LinkConfig{
			Transport:        "serial",
			ReconnectBackoff: Duration(2 * time.Second),
			Serial: SerialConfig{
				BaudRate:    115200,
				ReadTimeout: Duration(100 * time.Millisecond),
			},
			BLE: BLEConfig{
				DeviceName:     "CYD_Deck",
				ServiceUUID:    "4fafc201-1fb5-459e-8fcc-c5c9c331914b",
				RXCharUUID:     "beb5483e-36e1-4688-b7f5-ea07361b26a8",
				TXCharUUID:     "6e400003-b5a3-f393-e0a9-e50e24dcca9e",
				ScanTimeout:    Duration(10 * time.Second),
				ConnectTimeout: Duration(15 * time.Second),
			},
		},
		Keyboard: KeyboardConfig{
			Layout:       "us",
			ReadySignals: append([]string(nil), DefaultReadySignals...),
			SettleDelay:  Duration(50 * time.Millisecond),
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			Interval:      Duration(200 * time.Millisecond),
			Alpha:         0.3,
			MaxRatePerSec: 10.0,
			DateFormat:    "YYYY-MM-DD",
		},
		Gateway: GatewayConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8787",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads, merges and validates the configuration at path. A missing
// file yields defaults with env overrides applied.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if passphrase := os.Getenv("DECKBRIDGE_CONFIG_KEY"); passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides lets DECKBRIDGE_* variables override config values.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DECKBRIDGE_LINK_TRANSPORT"); v != "" {
		cfg.Link.Transport = v
	}
	if v := os.Getenv("DECKBRIDGE_SERIAL_PORT"); v != "" {
		cfg.Link.Serial.Port = v
	}
	if v := os.Getenv("DECKBRIDGE_SERIAL_BAUD"); v != "" {
		if baud, err := strconv.Atoi(v); err == nil {
			cfg.Link.Serial.BaudRate = baud
		}
	}
	if v := os.Getenv("DECKBRIDGE_BLE_DEVICE_NAME"); v != "" {
		cfg.Link.BLE.DeviceName = v
	}
	if v := os.Getenv("DECKBRIDGE_KEYBOARD_LAYOUT"); v != "" {
		cfg.Keyboard.Layout = v
	}
	if v := os.Getenv("DECKBRIDGE_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("DECKBRIDGE_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
		if cfg.Tracer.Exporter == "" || cfg.Tracer.Exporter == "noop" {
			cfg.Tracer.Exporter = "stdout"
		}
	}
	if v := os.Getenv("DECKBRIDGE_GATEWAY_ADDR"); v != "" {
		cfg.Gateway.Enabled = true
		cfg.Gateway.Addr = v
	}
	if v := os.Getenv("DECKBRIDGE_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.AuthToken = v
	}
}

// Validate checks the configuration for consistency.
func Validate(cfg *Config) error {
	switch cfg.Link.Transport {
	case "serial":
		if cfg.Link.Serial.BaudRate <= 0 {
			return fmt.Errorf("link.serial.baud_rate must be positive")
		}
	case "ble":
		if cfg.Link.BLE.DeviceName == "" {
			return fmt.Errorf("link.ble.device_name is required")
		}
		if cfg.Link.BLE.ServiceUUID == "" || cfg.Link.BLE.RXCharUUID == "" || cfg.Link.BLE.TXCharUUID == "" {
			return fmt.Errorf("link.ble service and characteristic UUIDs are required")
		}
	default:
		return fmt.Errorf("link.transport must be \"serial\" or \"ble\", got %q", cfg.Link.Transport)
	}

	if cfg.Link.ReconnectBackoff.Std() <= 0 {
		return fmt.Errorf("link.reconnect_backoff must be positive")
	}

	switch strings.ToLower(cfg.Keyboard.Layout) {
	case "us", "de", "fr":
	default:
		return fmt.Errorf("keyboard.layout must be one of us, de, fr; got %q", cfg.Keyboard.Layout)
	}
	if len(cfg.Keyboard.ReadySignals) == 0 {
		return fmt.Errorf("keyboard.ready_signals must not be empty")
	}

	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Alpha <= 0 || cfg.Telemetry.Alpha > 1 {
			return fmt.Errorf("telemetry.alpha must be in (0, 1], got %v", cfg.Telemetry.Alpha)
		}
		if cfg.Telemetry.MaxRatePerSec <= 0 {
			return fmt.Errorf("telemetry.max_rate_per_sec must be positive")
		}
		if cfg.Telemetry.Interval.Std() <= 0 {
			return fmt.Errorf("telemetry.interval must be positive")
		}
		switch cfg.Telemetry.DateFormat {
		case "YYYY-MM-DD", "DD.MM.YYYY":
		default:
			return fmt.Errorf("telemetry.date_format must be YYYY-MM-DD or DD.MM.YYYY, got %q", cfg.Telemetry.DateFormat)
		}
	}

	if cfg.Gateway.Enabled && cfg.Gateway.Addr == "" {
		return fmt.Errorf("gateway.addr is required when gateway is enabled")
	}
	return nil
}

// decryptSecrets replaces "enc:" values with their plaintext.
func decryptSecrets(cfg *Config, passphrase string) error {
	if strings.HasPrefix(cfg.Gateway.AuthToken, "enc:") {
		decrypted, err := DecryptValue(strings.TrimPrefix(cfg.Gateway.AuthToken, "enc:"), passphrase)
		if err != nil {
			return fmt.Errorf("gateway auth_token: %w", err)
		}
		cfg.Gateway.AuthToken = decrypted
	}
	return nil
}
