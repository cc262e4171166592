package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "serial", cfg.Link.Transport)
	assert.Equal(t, 115200, cfg.Link.Serial.BaudRate)
	assert.Equal(t, 2*time.Second, cfg.Link.ReconnectBackoff.Std())
	assert.Equal(t, "CYD_Deck", cfg.Link.BLE.DeviceName)
	assert.Contains(t, cfg.Keyboard.ReadySignals, "Ready!")
	assert.Equal(t, "2006-01-02", cfg.Telemetry.DateLayout())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Link.Serial.BaudRate, cfg.Link.Serial.BaudRate)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
link:
  transport: ble
  reconnect_backoff: 5s
  ble:
    device_name: MyDeck
keyboard:
  layout: de
telemetry:
  enabled: true
  interval: 1s
  alpha: 0.1
  max_rate_per_sec: 5
  date_format: DD.MM.YYYY
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ble", cfg.Link.Transport)
	assert.Equal(t, "MyDeck", cfg.Link.BLE.DeviceName)
	assert.Equal(t, 5*time.Second, cfg.Link.ReconnectBackoff.Std())
	assert.Equal(t, "de", cfg.Keyboard.Layout)
	assert.Equal(t, time.Second, cfg.Telemetry.Interval.Std())
	assert.Equal(t, "02.01.2006", cfg.Telemetry.DateLayout())
	// Ready signals keep their defaults when not set.
	assert.Equal(t, DefaultReadySignals, cfg.Keyboard.ReadySignals)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad transport", func(c *Config) { c.Link.Transport = "carrier-pigeon" }},
		{"zero baud", func(c *Config) { c.Link.Serial.BaudRate = 0 }},
		{"bad layout", func(c *Config) { c.Keyboard.Layout = "qq" }},
		{"no ready signals", func(c *Config) { c.Keyboard.ReadySignals = nil }},
		{"alpha out of range", func(c *Config) { c.Telemetry.Alpha = 1.5 }},
		{"bad date format", func(c *Config) { c.Telemetry.DateFormat = "MM/DD/YYYY" }},
		{"zero backoff", func(c *Config) { c.Link.ReconnectBackoff = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DECKBRIDGE_SERIAL_PORT", "/dev/ttyACM7")
	t.Setenv("DECKBRIDGE_KEYBOARD_LAYOUT", "fr")
	t.Setenv("DECKBRIDGE_LOGGER_LEVEL", "debug")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "/dev/ttyACM7", cfg.Link.Serial.Port)
	assert.Equal(t, "fr", cfg.Keyboard.Layout)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := EncryptValue("hunter2", "passphrase")
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", enc)

	dec, err := DecryptValue(enc, "passphrase")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", dec)

	_, err = DecryptValue(enc, "wrong")
	assert.Error(t, err)
}

func TestLoadDecryptsGatewayToken(t *testing.T) {
	enc, err := EncryptValue("s3cret", "key123")
	require.NoError(t, err)

	path := writeConfig(t, `
gateway:
  enabled: true
  addr: 127.0.0.1:0
  auth_token: "enc:`+enc+`"
`)
	t.Setenv("DECKBRIDGE_CONFIG_KEY", "key123")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Gateway.AuthToken)
}

func TestDurationUnmarshalRejectsGarbage(t *testing.T) {
	path := writeConfig(t, "link:\n  reconnect_backoff: soon\n")
	_, err := Load(path)
	assert.Error(t, err)
}
