// Package config loads the node configuration file.
//
// Configuration is read from YAML, then selected values are overridden
// from PAN_* environment variables, then the result is validated.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nghiaquy1991/PAN/pkg/join"
	"github.com/nghiaquy1991/PAN/pkg/mac"
	"github.com/nghiaquy1991/PAN/pkg/notify"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root of the node configuration file.
type Config struct {
	Node    NodeConfig    `yaml:"node"`
	Join    JoinConfig    `yaml:"join"`
	Storage StorageConfig `yaml:"storage"`
	Trace   TraceConfig   `yaml:"trace"`
	Logging LoggingConfig `yaml:"logging"`
	Notify  NotifyConfig  `yaml:"notify"`
	Sim     SimConfig     `yaml:"sim"`
}

// NodeConfig identifies the node.
type NodeConfig struct {
	Name    string      `yaml:"name"`
	ExtAddr mac.ExtAddr `yaml:"extAddr"`
}

// JoinConfig mirrors join.Config in file form.
type JoinConfig struct {
	PANID           uint16          `yaml:"panId"`
	BeaconOrder     uint8           `yaml:"beaconOrder"`
	SuperframeOrder uint8           `yaml:"superframeOrder"`
	Channels        mac.ChannelMask `yaml:"channels"`
	ChannelPage     uint8           `yaml:"channelPage"`
	PhyID           uint8           `yaml:"phyId"`
	ScanDuration    uint8           `yaml:"scanDuration"`
	LinkQuality     uint8           `yaml:"linkQuality"`
	PercentFilter   uint8           `yaml:"percentFilter"`
	RxOnWhenIdle    bool            `yaml:"rxOnWhenIdle"`

	PollInterval        time.Duration `yaml:"pollInterval"`
	ScanBackoffInterval time.Duration `yaml:"scanBackoffInterval"`
	MaxDataFailures     uint8         `yaml:"maxDataFailures"`

	FH       FHConfig       `yaml:"fh"`
	Security SecurityConfig `yaml:"security"`
}

// FHConfig mirrors join.FHConfig.
type FHConfig struct {
	Enabled                bool            `yaml:"enabled"`
	Channels               mac.ChannelMask `yaml:"channels"`
	AsyncChannels          mac.ChannelMask `yaml:"asyncChannels"`
	NetName                string          `yaml:"netName"`
	DwellTime              uint8           `yaml:"dwellTime"`
	MaxAssociationAttempts uint8           `yaml:"maxAssociationAttempts"`
	PASInterval            time.Duration   `yaml:"pasInterval"`
	PCSInterval            time.Duration   `yaml:"pcsInterval"`
	AssocDelay             time.Duration   `yaml:"assocDelay"`
	AssocRandomWindow      time.Duration   `yaml:"assocRandomWindow"`
	StartPollWindow        time.Duration   `yaml:"startPollWindow"`
}

// SecurityConfig mirrors join.SecurityConfig. Key material is hex.
type SecurityConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Level      uint8  `yaml:"level"`
	KeyIDMode  uint8  `yaml:"keyIdMode"`
	KeyIndex   uint8  `yaml:"keyIndex"`
	Key        string `yaml:"key"`
	KeySource  string `yaml:"keySource"`
	LookupData string `yaml:"lookupData"`
}

// StorageConfig locates persistent state.
type StorageConfig struct {
	// StatePath is the JSON network-information file.
	StatePath string `yaml:"statePath"`

	// BlacklistPath is the LevelDB directory. Empty keeps the blacklist in
	// memory.
	BlacklistPath string `yaml:"blacklistPath"`

	// FrameCounterWindow is how far the frame counter advances between
	// saves.
	FrameCounterWindow uint32 `yaml:"frameCounterWindow"`
}

// TraceConfig configures the protocol trace.
type TraceConfig struct {
	// File is the CBOR trace output. Empty disables file tracing.
	File string `yaml:"file"`

	// Slog mirrors trace events to the operational log at debug level.
	Slog bool `yaml:"slog"`
}

// LoggingConfig configures operational logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NotifyConfig configures notification publishers. A publisher is
// enabled when its address is set.
type NotifyConfig struct {
	MQTT notify.MQTTConfig `yaml:"mqtt"`
	NATS notify.NATSConfig `yaml:"nats"`
}

// SimConfig describes the simulated coordinator.
type SimConfig struct {
	PANID       uint16      `yaml:"panId"`
	ShortAddr   uint16      `yaml:"shortAddr"`
	ExtAddr     mac.ExtAddr `yaml:"extAddr"`
	Channel     uint8       `yaml:"channel"`
	PermitJoin  bool        `yaml:"permitJoin"`
	LinkQuality uint8       `yaml:"linkQuality"`

	// ResponseDelay is how long the simulated MAC takes to answer a
	// request.
	ResponseDelay time.Duration `yaml:"responseDelay"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	jc := join.DefaultConfig()
	sec := jc.Security
	return &Config{
		Node: NodeConfig{
			Name:    "pan-sensor",
			ExtAddr: mac.ExtAddr{0x00, 0x12, 0x4b, 0x00, 0x00, 0x00, 0x00, 0x01},
		},
		Join: JoinConfig{
			PANID:               jc.PANID,
			BeaconOrder:         jc.BeaconOrder,
			SuperframeOrder:     jc.SuperframeOrder,
			Channels:            jc.ChannelMask,
			ChannelPage:         jc.ChannelPage,
			PhyID:               jc.PhyID,
			ScanDuration:        jc.ScanDuration,
			LinkQuality:         jc.LinkQuality,
			PercentFilter:       jc.PercentFilter,
			RxOnWhenIdle:        jc.RxOnWhenIdle,
			PollInterval:        jc.PollInterval,
			ScanBackoffInterval: jc.ScanBackoffInterval,
			MaxDataFailures:     jc.MaxDataFailures,
			FH: FHConfig{
				Enabled:                jc.FH.Enabled,
				Channels:               jc.FH.ChannelMask,
				AsyncChannels:          jc.FH.AsyncChannelMask,
				NetName:                jc.FH.NetName,
				DwellTime:              jc.FH.DwellTime,
				MaxAssociationAttempts: jc.FH.MaxAssociationAttempts,
				PASInterval:            jc.FH.PANAdvertSolicitInterval,
				PCSInterval:            jc.FH.PANConfigSolicitInterval,
				AssocDelay:             jc.FH.AssocDelay,
				AssocRandomWindow:      jc.FH.AssocRandomWindow,
				StartPollWindow:        jc.FH.StartPollWindow,
			},
			Security: SecurityConfig{
				Enabled:    sec.Enabled,
				Level:      uint8(sec.Level),
				KeyIDMode:  uint8(sec.KeyIDMode),
				KeyIndex:   sec.KeyIndex,
				Key:        hex.EncodeToString(sec.Key[:]),
				KeySource:  hex.EncodeToString(sec.KeySource[:]),
				LookupData: hex.EncodeToString(sec.LookupData[:]),
			},
		},
		Storage: StorageConfig{
			StatePath:          "./data/state.json",
			FrameCounterWindow: 25,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Sim: SimConfig{
			PANID:         0x1234,
			ShortAddr:     0x0000,
			ExtAddr:       mac.ExtAddr{0x00, 0x12, 0x4b, 0x00, 0x00, 0x00, 0x00, 0xc0},
			Channel:       0,
			PermitJoin:    true,
			LinkQuality:   200,
			ResponseDelay: 20 * time.Millisecond,
		},
	}
}

// Load reads path, applies environment overrides and validates. An empty
// path uses the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PAN_NODE_NAME"); v != "" {
		cfg.Node.Name = v
	}
	if v := os.Getenv("PAN_NODE_EXT_ADDR"); v != "" {
		a, err := mac.ParseExtAddr(v)
		if err != nil {
			return fmt.Errorf("PAN_NODE_EXT_ADDR: %w", err)
		}
		cfg.Node.ExtAddr = a
	}
	if v := os.Getenv("PAN_PAN_ID"); v != "" {
		id, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			return fmt.Errorf("PAN_PAN_ID: %w", err)
		}
		cfg.Join.PANID = uint16(id)
	}
	if v := os.Getenv("PAN_CHANNELS"); v != "" {
		m, err := mac.ParseChannelMask(v)
		if err != nil {
			return fmt.Errorf("PAN_CHANNELS: %w", err)
		}
		cfg.Join.Channels = m
	}
	if v := os.Getenv("PAN_FH_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PAN_FH_ENABLED: %w", err)
		}
		cfg.Join.FH.Enabled = b
	}
	if v := os.Getenv("PAN_NETWORK_KEY"); v != "" {
		cfg.Join.Security.Key = v
	}
	if v := os.Getenv("PAN_STATE_PATH"); v != "" {
		cfg.Storage.StatePath = v
	}
	if v := os.Getenv("PAN_BLACKLIST_PATH"); v != "" {
		cfg.Storage.BlacklistPath = v
	}
	if v := os.Getenv("PAN_TRACE_FILE"); v != "" {
		cfg.Trace.File = v
	}
	if v := os.Getenv("PAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PAN_MQTT_BROKER"); v != "" {
		cfg.Notify.MQTT.Broker = v
	}
	if v := os.Getenv("PAN_MQTT_USERNAME"); v != "" {
		cfg.Notify.MQTT.Username = v
	}
	if v := os.Getenv("PAN_MQTT_PASSWORD"); v != "" {
		cfg.Notify.MQTT.Password = v
	}
	if v := os.Getenv("PAN_NATS_URL"); v != "" {
		cfg.Notify.NATS.URL = v
	}
	return nil
}

// Validate checks values that the join layer does not.
func (c *Config) Validate() error {
	if c.Node.ExtAddr.IsZero() {
		return fmt.Errorf("%w: node.extAddr is required", ErrInvalid)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json", ErrInvalid)
	}
	if c.Storage.FrameCounterWindow == 0 {
		return fmt.Errorf("%w: storage.frameCounterWindow must be positive", ErrInvalid)
	}
	if c.Notify.MQTT.QoS > 2 {
		return fmt.Errorf("%w: notify.mqtt.qos must be 0, 1, or 2", ErrInvalid)
	}
	jc, err := c.Join.ToJoin()
	if err != nil {
		return err
	}
	return jc.Validate()
}

// ToJoin converts the file form to join.Config. Logger is left nil.
func (j JoinConfig) ToJoin() (join.Config, error) {
	cfg := join.Config{
		PANID:               j.PANID,
		BeaconOrder:         j.BeaconOrder,
		SuperframeOrder:     j.SuperframeOrder,
		ChannelMask:         j.Channels,
		ChannelPage:         j.ChannelPage,
		PhyID:               j.PhyID,
		ScanDuration:        j.ScanDuration,
		LinkQuality:         j.LinkQuality,
		PercentFilter:       j.PercentFilter,
		RxOnWhenIdle:        j.RxOnWhenIdle,
		PollInterval:        j.PollInterval,
		ScanBackoffInterval: j.ScanBackoffInterval,
		MaxDataFailures:     j.MaxDataFailures,
		FH: join.FHConfig{
			Enabled:                  j.FH.Enabled,
			ChannelMask:              j.FH.Channels,
			AsyncChannelMask:         j.FH.AsyncChannels,
			NetName:                  j.FH.NetName,
			DwellTime:                j.FH.DwellTime,
			MaxAssociationAttempts:   j.FH.MaxAssociationAttempts,
			PANAdvertSolicitInterval: j.FH.PASInterval,
			PANConfigSolicitInterval: j.FH.PCSInterval,
			AssocDelay:               j.FH.AssocDelay,
			AssocRandomWindow:        j.FH.AssocRandomWindow,
			StartPollWindow:          j.FH.StartPollWindow,
		},
		Security: join.SecurityConfig{
			Enabled:        j.Security.Enabled,
			Level:          mac.SecurityLevel(j.Security.Level),
			KeyIDMode:      mac.KeyIDMode(j.Security.KeyIDMode),
			KeyIndex:       j.Security.KeyIndex,
			LookupDataSize: join.DefaultSecurityConfig().LookupDataSize,
		},
	}
	if err := decodeHex("join.security.key", j.Security.Key, cfg.Security.Key[:]); err != nil {
		return join.Config{}, err
	}
	if err := decodeHex("join.security.keySource", j.Security.KeySource, cfg.Security.KeySource[:]); err != nil {
		return join.Config{}, err
	}
	if err := decodeHex("join.security.lookupData", j.Security.LookupData, cfg.Security.LookupData[:]); err != nil {
		return join.Config{}, err
	}
	return cfg, nil
}

func decodeHex(field, s string, dst []byte) error {
	s = strings.NewReplacer(":", "", " ", "").Replace(s)
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, field, err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("%w: %s must be %d bytes, got %d", ErrInvalid, field, len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalid, s)
}
