package mac

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ExtAddrLen is the length of an IEEE extended (EUI-64) address.
const ExtAddrLen = 8

// BroadcastShortAddr is the 16-bit broadcast address.
const BroadcastShortAddr uint16 = 0xFFFF

// BroadcastPANID is the PAN identifier that matches any PAN.
const BroadcastPANID uint16 = 0xFFFF

// ErrInvalidAddress is returned when an address string cannot be parsed.
var ErrInvalidAddress = errors.New("invalid address")

// ExtAddr is an IEEE 802.15.4 extended address.
type ExtAddr [ExtAddrLen]byte

// IsZero reports whether the address is all zeros.
func (a ExtAddr) IsZero() bool {
	return a == ExtAddr{}
}

// String returns the address as colon separated hex octets.
func (a ExtAddr) String() string {
	var b strings.Builder
	for i, o := range a {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%02x", o)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (a ExtAddr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ExtAddr) UnmarshalText(text []byte) error {
	parsed, err := ParseExtAddr(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseExtAddr parses an extended address written as 16 hex digits,
// optionally separated by colons or dashes.
func ParseExtAddr(s string) (ExtAddr, error) {
	clean := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	raw, err := hex.DecodeString(clean)
	if err != nil || len(raw) != ExtAddrLen {
		return ExtAddr{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	var a ExtAddr
	copy(a[:], raw)
	return a, nil
}

// AddrMode selects which member of Addr is meaningful.
type AddrMode uint8

const (
	// AddrModeNone indicates no address.
	AddrModeNone AddrMode = 0
	// AddrModeShort indicates a 16-bit short address.
	AddrModeShort AddrMode = 2
	// AddrModeExtended indicates a 64-bit extended address.
	AddrModeExtended AddrMode = 3
)

// String returns the address mode name.
func (m AddrMode) String() string {
	switch m {
	case AddrModeNone:
		return "NONE"
	case AddrModeShort:
		return "SHORT"
	case AddrModeExtended:
		return "EXTENDED"
	default:
		return "UNKNOWN"
	}
}

// Addr is a MAC address in either short or extended form.
type Addr struct {
	Mode  AddrMode
	Short uint16
	Ext   ExtAddr
}

// ShortAddr returns a short-mode address.
func ShortAddr(short uint16) Addr {
	return Addr{Mode: AddrModeShort, Short: short}
}

// ExtendedAddr returns an extended-mode address.
func ExtendedAddr(ext ExtAddr) Addr {
	return Addr{Mode: AddrModeExtended, Ext: ext}
}

// Equal reports whether both addresses use the same mode and value.
// Members not selected by the mode are ignored.
func (a Addr) Equal(o Addr) bool {
	if a.Mode != o.Mode {
		return false
	}
	switch a.Mode {
	case AddrModeShort:
		return a.Short == o.Short
	case AddrModeExtended:
		return a.Ext == o.Ext
	default:
		return true
	}
}

// String returns a printable form of the address.
func (a Addr) String() string {
	switch a.Mode {
	case AddrModeShort:
		return fmt.Sprintf("0x%04x", a.Short)
	case AddrModeExtended:
		return a.Ext.String()
	default:
		return "none"
	}
}
