package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nghiaquy1991/PAN/pkg/join"
	"github.com/nghiaquy1991/PAN/pkg/mac"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultMatchesJoinDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	jc, err := cfg.Join.ToJoin()
	require.NoError(t, err)
	assert.Equal(t, join.DefaultConfig(), jc)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
node:
  name: meter-7
  extAddr: "00:12:4b:00:00:00:00:07"
join:
  panId: 0x2222
  channels: "0-3,11"
  rxOnWhenIdle: true
  pollInterval: 2s
  fh:
    enabled: true
    channels: "0-31"
    asyncChannels: "0-7"
    netName: Field
    pasInterval: 30s
  security:
    enabled: false
storage:
  statePath: /var/lib/pan/state.json
  blacklistPath: /var/lib/pan/blacklist
trace:
  file: /var/log/pan/trace.cbor
logging:
  level: debug
notify:
  mqtt:
    broker: tcp://broker:1883
    qos: 1
  nats:
    url: nats://nats:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "meter-7", cfg.Node.Name)
	assert.Equal(t, mac.ExtAddr{0x00, 0x12, 0x4b, 0, 0, 0, 0, 0x07}, cfg.Node.ExtAddr)
	assert.Equal(t, "/var/lib/pan/blacklist", cfg.Storage.BlacklistPath)
	assert.Equal(t, uint32(25), cfg.Storage.FrameCounterWindow)
	assert.Equal(t, "/var/log/pan/trace.cbor", cfg.Trace.File)
	assert.Equal(t, "tcp://broker:1883", cfg.Notify.MQTT.Broker)
	assert.Equal(t, byte(1), cfg.Notify.MQTT.QoS)
	assert.Equal(t, "nats://nats:4222", cfg.Notify.NATS.URL)

	jc, err := cfg.Join.ToJoin()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x2222), jc.PANID)
	assert.Equal(t, mac.MaskOf(0, 1, 2, 3, 11), jc.ChannelMask)
	assert.True(t, jc.RxOnWhenIdle)
	assert.Equal(t, 2*time.Second, jc.PollInterval)
	assert.True(t, jc.FH.Enabled)
	assert.Equal(t, 32, jc.FH.ChannelMask.Count())
	assert.Equal(t, mac.MaskOf(0, 1, 2, 3, 4, 5, 6, 7), jc.FH.AsyncChannelMask)
	assert.Equal(t, "Field", jc.FH.NetName)
	assert.Equal(t, 30*time.Second, jc.FH.PANAdvertSolicitInterval)
	assert.Equal(t, join.DefaultTrickleInterval, jc.FH.PANConfigSolicitInterval)
	assert.False(t, jc.Security.Enabled)

	level, err := ParseLevel(cfg.Logging.Level)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PAN_NODE_EXT_ADDR", "00:12:4b:00:00:00:00:99")
	t.Setenv("PAN_PAN_ID", "0x4321")
	t.Setenv("PAN_CHANNELS", "5")
	t.Setenv("PAN_STATE_PATH", "/tmp/s.json")
	t.Setenv("PAN_LOG_LEVEL", "warn")
	t.Setenv("PAN_MQTT_BROKER", "tcp://env:1883")
	t.Setenv("PAN_NATS_URL", "nats://env:4222")
	t.Setenv("PAN_NETWORK_KEY", "000102030405060708090a0b0c0d0e0f")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4321), cfg.Join.PANID)
	assert.Equal(t, mac.MaskOf(5), cfg.Join.Channels)
	assert.Equal(t, "/tmp/s.json", cfg.Storage.StatePath)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "tcp://env:1883", cfg.Notify.MQTT.Broker)
	assert.Equal(t, "nats://env:4222", cfg.Notify.NATS.URL)

	jc, err := cfg.Join.ToJoin()
	require.NoError(t, err)
	assert.Equal(t, byte(0x0f), jc.Security.Key[15])
}

func TestEnvOverrideErrors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad pan id", "PAN_PAN_ID", "pan"},
		{"bad channels", "PAN_CHANNELS", "3-1"},
		{"bad ext addr", "PAN_NODE_EXT_ADDR", "zz"},
		{"bad fh flag", "PAN_FH_ENABLED", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero ext addr", func(c *Config) { c.Node.ExtAddr = mac.ExtAddr{} }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero fc window", func(c *Config) { c.Storage.FrameCounterWindow = 0 }},
		{"bad qos", func(c *Config) { c.Notify.MQTT.QoS = 3 }},
		{"short key", func(c *Config) { c.Join.Security.Key = "0102" }},
		{"bad hex", func(c *Config) { c.Join.Security.KeySource = "xyz" }},
		{"empty mask", func(c *Config) { c.Join.Channels = mac.ChannelMask{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	err := func() error {
		cfg := Default()
		cfg.Join.Security.Key = "01"
		return cfg.Validate()
	}()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.NoError(t, Default().Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "join: [unclosed"))
	assert.Error(t, err)
}
