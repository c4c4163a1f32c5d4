package join

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// Controller errors.
var (
	ErrInvalidConfig = errors.New("invalid join configuration")
	ErrNoMAC         = errors.New("mac service is required")
	ErrNoTimers      = errors.New("timer service is required")
)

// Defaults.
const (
	DefaultPANID               uint16 = mac.BroadcastPANID
	DefaultChannelPage         uint8  = 9
	DefaultPhyID               uint8  = 1
	DefaultScanDuration        uint8  = 5
	DefaultLinkQuality         uint8  = 1
	DefaultPercentFilter       uint8  = 0xFF
	DefaultMaxDataFailures     uint8  = 3
	DefaultPollInterval               = 6 * time.Second
	DefaultScanBackoffInterval        = 300 * time.Second

	DefaultNetName                   = "FHTest"
	DefaultDwellTime           uint8 = 250
	DefaultMaxAssocAttempts    uint8 = 3
	DefaultTrickleInterval           = 60 * time.Second
	DefaultFHAssocDelay              = 2 * time.Second
	DefaultFHAssocRandomWindow       = 10 * time.Second
	DefaultFHStartPollWindow         = 10 * time.Second

	// PollRetryInterval is the delay before re-polling after a poll was not
	// acknowledged or could not access the channel.
	PollRetryInterval = 500 * time.Millisecond
)

// Config holds the join controller configuration.
type Config struct {
	// PANID to join. 0xFFFF accepts the first suitable PAN.
	PANID uint16

	// BeaconOrder of the network; 15 means non-beacon.
	BeaconOrder     uint8
	SuperframeOrder uint8

	// ChannelMask lists the channels scanned in classic mode.
	ChannelMask mac.ChannelMask

	ChannelPage   uint8
	PhyID         uint8
	ScanDuration  uint8
	LinkQuality   uint8
	PercentFilter uint8

	// RxOnWhenIdle keeps the receiver on. When false the node is sleepy
	// and polls its parent.
	RxOnWhenIdle bool

	PollInterval        time.Duration
	ScanBackoffInterval time.Duration

	// MaxDataFailures is the number of consecutive unacknowledged polls or
	// data frames that orphan the node.
	MaxDataFailures uint8

	FH       FHConfig
	Security SecurityConfig

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// FHConfig configures frequency-hopping operation.
type FHConfig struct {
	Enabled bool

	// ChannelMask lists the hopping channels.
	ChannelMask mac.ChannelMask

	// AsyncChannelMask lists the channels PAS and PCS frames are sent on.
	AsyncChannelMask mac.ChannelMask

	// NetName is the network name PAS, PCS and PA frames must carry.
	NetName string

	// DwellTime is the unicast and broadcast dwell interval in ms.
	DwellTime uint8

	// MaxAssociationAttempts before the candidate parent is abandoned.
	MaxAssociationAttempts uint8

	// PANAdvertSolicitInterval is the trickle window for PAS.
	PANAdvertSolicitInterval time.Duration

	// PANConfigSolicitInterval is the trickle window for PCS.
	PANConfigSolicitInterval time.Duration

	// AssocDelay is the base delay before an association retry. The first
	// attempt after a PAN configuration waits twice as long.
	AssocDelay time.Duration

	// AssocRandomWindow bounds the random delay added to AssocDelay.
	AssocRandomWindow time.Duration

	// StartPollWindow bounds the random delay of a sleepy node's first poll.
	StartPollWindow time.Duration
}

// SecurityConfig configures MAC frame security.
type SecurityConfig struct {
	Enabled   bool
	Level     mac.SecurityLevel
	KeyIDMode mac.KeyIDMode
	KeyIndex  uint8

	// Key is the default network key.
	Key [mac.KeyLen]byte

	// KeySource is written to the default key source PIB attribute.
	KeySource [mac.KeySourceLen]byte

	// LookupData identifies the default key. Its first eight octets are
	// the key source carried in outgoing frames.
	LookupData [mac.KeyLookupLen]byte

	// LookupDataSize is the lookup size code stored with security devices.
	// 0x01 selects the nine-octet lookup.
	LookupDataSize uint8
}

// DefaultConfig returns the configuration of a sleepy node on a non-beacon
// classic network using channels 0-3.
func DefaultConfig() Config {
	return Config{
		PANID:               DefaultPANID,
		BeaconOrder:         mac.NonBeaconOrder,
		SuperframeOrder:     mac.NonBeaconOrder,
		ChannelMask:         mac.MaskOf(0, 1, 2, 3),
		ChannelPage:         DefaultChannelPage,
		PhyID:               DefaultPhyID,
		ScanDuration:        DefaultScanDuration,
		LinkQuality:         DefaultLinkQuality,
		PercentFilter:       DefaultPercentFilter,
		RxOnWhenIdle:        false,
		PollInterval:        DefaultPollInterval,
		ScanBackoffInterval: DefaultScanBackoffInterval,
		MaxDataFailures:     DefaultMaxDataFailures,
		FH:                  DefaultFHConfig(),
		Security:            DefaultSecurityConfig(),
	}
}

// DefaultFHConfig returns the hopping defaults with hopping disabled.
func DefaultFHConfig() FHConfig {
	return FHConfig{
		Enabled:                  false,
		ChannelMask:              mac.AllChannels(mac.MaxChannels),
		AsyncChannelMask:         mac.AllChannels(mac.MaxChannels),
		NetName:                  DefaultNetName,
		DwellTime:                DefaultDwellTime,
		MaxAssociationAttempts:   DefaultMaxAssocAttempts,
		PANAdvertSolicitInterval: DefaultTrickleInterval,
		PANConfigSolicitInterval: DefaultTrickleInterval,
		AssocDelay:               DefaultFHAssocDelay,
		AssocRandomWindow:        DefaultFHAssocRandomWindow,
		StartPollWindow:          DefaultFHStartPollWindow,
	}
}

// DefaultSecurityConfig returns the default key material with security
// enabled at ENC-MIC-32.
func DefaultSecurityConfig() SecurityConfig {
	s := SecurityConfig{
		Enabled:        true,
		Level:          mac.SecLevelEncMIC32,
		KeyIDMode:      mac.KeyIDMode8,
		KeyIndex:       3,
		Key:            [mac.KeyLen]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0},
		LookupDataSize: 0x01,
	}
	for i := range s.KeySource {
		s.KeySource[i] = 0x33
		s.LookupData[i] = 0x33
	}
	s.LookupData[mac.KeyLookupLen-1] = 0x03
	return s
}

// BeaconEnabled reports whether the network sends periodic beacons.
func (c *Config) BeaconEnabled() bool {
	return c.BeaconOrder > 0 && c.BeaconOrder < mac.NonBeaconOrder
}

// Sleepy reports whether the node turns its receiver off when idle.
func (c *Config) Sleepy() bool {
	return !c.RxOnWhenIdle
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BeaconOrder == 0 || c.BeaconOrder > mac.NonBeaconOrder {
		return fmt.Errorf("%w: beacon order %d out of range 1-15", ErrInvalidConfig, c.BeaconOrder)
	}
	if c.SuperframeOrder > c.BeaconOrder {
		return fmt.Errorf("%w: superframe order %d above beacon order %d", ErrInvalidConfig, c.SuperframeOrder, c.BeaconOrder)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	if c.MaxDataFailures == 0 {
		return fmt.Errorf("%w: max data failures must be positive", ErrInvalidConfig)
	}

	if c.FH.Enabled {
		if err := c.FH.validate(c.BeaconOrder); err != nil {
			return err
		}
	} else {
		if c.ChannelMask.IsZero() {
			return fmt.Errorf("%w: empty scan channel mask", ErrInvalidConfig)
		}
		if c.Sleepy() && c.ScanBackoffInterval <= 0 {
			return fmt.Errorf("%w: scan backoff interval must be positive", ErrInvalidConfig)
		}
	}

	if c.Security.Enabled {
		if c.Security.Level == mac.SecLevelNone {
			return fmt.Errorf("%w: security enabled with level none", ErrInvalidConfig)
		}
		if c.Security.KeyIDMode != mac.KeyIDModeImplicit && c.Security.KeyIndex == 0 {
			return fmt.Errorf("%w: key index 0 is reserved", ErrInvalidConfig)
		}
	}
	return nil
}

func (f *FHConfig) validate(beaconOrder uint8) error {
	switch {
	case beaconOrder != mac.NonBeaconOrder:
		return fmt.Errorf("%w: frequency hopping requires beacon order 15", ErrInvalidConfig)
	case f.NetName == "" || len(f.NetName) > mac.NetNameMaxLen:
		return fmt.Errorf("%w: network name length must be 1-%d", ErrInvalidConfig, mac.NetNameMaxLen)
	case f.ChannelMask.IsZero():
		return fmt.Errorf("%w: empty hopping channel mask", ErrInvalidConfig)
	case f.AsyncChannelMask.IsZero():
		return fmt.Errorf("%w: empty async channel mask", ErrInvalidConfig)
	case f.MaxAssociationAttempts == 0:
		return fmt.Errorf("%w: max association attempts must be positive", ErrInvalidConfig)
	case f.PANAdvertSolicitInterval <= 0 || f.PANConfigSolicitInterval <= 0:
		return fmt.Errorf("%w: trickle intervals must be positive", ErrInvalidConfig)
	case f.AssocDelay <= 0:
		return fmt.Errorf("%w: association delay must be positive", ErrInvalidConfig)
	}
	return nil
}
