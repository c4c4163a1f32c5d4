package mac

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ChannelMaskLen is the size in bytes of a channel bitmap. It covers the
// 129 channels of the sub-GHz 802.15.4g PHYs.
const ChannelMaskLen = 17

// MaxChannels is the number of channels representable in a ChannelMask.
const MaxChannels = ChannelMaskLen * 8

// MaxPHYChannels is the highest channel count of any supported PHY.
const MaxPHYChannels = 129

// ChannelMask is a fixed-size channel bitset. Bit 0 of byte 0 is channel 0,
// bit 7 of byte 0 is channel 7, bit 0 of byte 1 is channel 8 and so on.
type ChannelMask [ChannelMaskLen]byte

// MaskOf returns a mask with the given channels set. Out-of-range
// channels are ignored.
func MaskOf(channels ...int) ChannelMask {
	var m ChannelMask
	for _, ch := range channels {
		m.Set(ch)
	}
	return m
}

// AllChannels returns a mask with the first n channels set.
func AllChannels(n int) ChannelMask {
	var m ChannelMask
	for ch := 0; ch < n && ch < MaxChannels; ch++ {
		m.Set(ch)
	}
	return m
}

// Set marks a channel as enabled.
func (m *ChannelMask) Set(ch int) {
	if ch < 0 || ch >= MaxChannels {
		return
	}
	m[ch>>3] |= 1 << (ch & 7)
}

// Clear marks a channel as disabled.
func (m *ChannelMask) Clear(ch int) {
	if ch < 0 || ch >= MaxChannels {
		return
	}
	m[ch>>3] &^= 1 << (ch & 7)
}

// Test reports whether a channel is enabled.
func (m ChannelMask) Test(ch int) bool {
	if ch < 0 || ch >= MaxChannels {
		return false
	}
	return m[ch>>3]&(1<<(ch&7)) != 0
}

// Count returns the number of enabled channels.
func (m ChannelMask) Count() int {
	n := 0
	for _, b := range m {
		n += bits.OnesCount8(b)
	}
	return n
}

// IsZero reports whether no channel is enabled.
func (m ChannelMask) IsZero() bool {
	return m == ChannelMask{}
}

// Channels returns the enabled channels in ascending order.
func (m ChannelMask) Channels() []int {
	out := make([]int, 0, m.Count())
	m.Each(func(ch int) bool {
		out = append(out, ch)
		return true
	})
	return out
}

// Each calls fn for every enabled channel in ascending order until fn
// returns false.
func (m ChannelMask) Each(fn func(ch int) bool) {
	for i, b := range m {
		for b != 0 {
			bit := bits.TrailingZeros8(b)
			if !fn(i*8 + bit) {
				return
			}
			b &^= 1 << bit
		}
	}
}

// Next returns the first enabled channel at or after from, wrapping
// around to channel 0. ok is false when the mask is empty.
func (m ChannelMask) Next(from int) (ch int, ok bool) {
	if from < 0 || from >= MaxChannels {
		from = 0
	}
	for i := 0; i < MaxChannels; i++ {
		c := (from + i) % MaxChannels
		if m.Test(c) {
			return c, true
		}
	}
	return 0, false
}

// Complement returns the mask with every bit inverted.
func (m ChannelMask) Complement() ChannelMask {
	var out ChannelMask
	for i, b := range m {
		out[i] = ^b
	}
	return out
}

// Truncate clears every channel at or above n.
func (m *ChannelMask) Truncate(n int) {
	for ch := n; ch < MaxChannels; ch++ {
		m.Clear(ch)
	}
}

// Bytes returns a copy of the raw bitmap.
func (m ChannelMask) Bytes() []byte {
	out := make([]byte, ChannelMaskLen)
	copy(out, m[:])
	return out
}

// String renders the mask as a compact range list, e.g. "0-3,11,20-25".
func (m ChannelMask) String() string {
	var parts []string
	start, prev := -1, -1
	flush := func() {
		if start < 0 {
			return
		}
		if start == prev {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	m.Each(func(ch int) bool {
		if ch != prev+1 || start < 0 {
			flush()
			start = ch
		}
		prev = ch
		return true
	})
	flush()
	return strings.Join(parts, ",")
}

// ParseChannelMask parses the range list format produced by String.
func ParseChannelMask(s string) (ChannelMask, error) {
	var m ChannelMask
	s = strings.TrimSpace(s)
	if s == "" {
		return m, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return ChannelMask{}, fmt.Errorf("channel mask %q: %w", s, err)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return ChannelMask{}, fmt.Errorf("channel mask %q: %w", s, err)
			}
		}
		if first < 0 || last >= MaxChannels || first > last {
			return ChannelMask{}, fmt.Errorf("channel mask %q: range %d-%d out of bounds", s, first, last)
		}
		for ch := first; ch <= last; ch++ {
			m.Set(ch)
		}
	}
	return m, nil
}

// MarshalText implements encoding.TextMarshaler.
func (m ChannelMask) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ChannelMask) UnmarshalText(text []byte) error {
	parsed, err := ParseChannelMask(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
