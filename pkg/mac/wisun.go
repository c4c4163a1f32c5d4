package mac

import (
	"bytes"
	"encoding/binary"
)

// Wi-SUN sub-IE identifiers. Schedules are long sub-IEs, the rest short.
const (
	SubIEUnicastSchedule   uint8 = 0x01
	SubIEBroadcastSchedule uint8 = 0x02
	SubIEPAN               uint8 = 0x04
	SubIENetName           uint8 = 0x05
	SubIEPANVersion        uint8 = 0x06
	SubIEGTKHash           uint8 = 0x07
)

// Capacities of the fixed IE buffers used while decoding one frame.
const (
	MaxPayloadIEs = 8
	MaxSubIEs     = 16
)

const (
	// NetNameMaxLen is the longest accepted network name.
	NetNameMaxLen = 32
	// GTKHashLen is the length of one GTK hash.
	GTKHashLen = 8
	// GTKCount is the number of GTK slots.
	GTKCount = 4

	panIELen        = 5
	panVersionIELen = 2
	usIEMinLen      = 4
)

// Unicast channel functions.
const (
	ChannelFunctionFixed  uint8 = 0
	ChannelFunctionTR51CF uint8 = 1
	ChannelFunctionDH1CF  uint8 = 2
	ChannelFunctionVendor uint8 = 3
)

// PANInfo is the content of a PAN sub-IE.
//
//	0-1  PAN size (little endian)
//	2-3  routing cost (little endian)
//	4    bit 0 use parent BS-IE, bit 1 routing method, bit 2 EAPOL ready,
//	     bits 5-7 FAN TPS version
type PANInfo struct {
	Size          uint16
	RoutingCost   uint16
	UseParentBSIE bool
	RoutingMethod uint8
	EAPOLReady    bool
	FANTPSVersion uint8
}

// UnicastSchedule is the leading part of a US sub-IE.
type UnicastSchedule struct {
	DwellInterval   uint8
	ClockDrift      uint8
	TimingAccuracy  uint8
	ChannelPlan     uint8
	ChannelFunction uint8
}

// WisunIEs holds the Wi-SUN sub-IEs of interest found in one frame.
type WisunIEs struct {
	NetName    []byte
	HasNetName bool

	PAN    PANInfo
	HasPAN bool

	PANVersion    uint16
	HasPANVersion bool

	GTKHashes    [GTKCount][GTKHashLen]byte
	HasGTKHashes bool

	Schedule    UnicastSchedule
	HasSchedule bool
}

// NetNameEquals reports whether the frame carried a network name equal to
// name. Trailing zero padding is ignored.
func (w *WisunIEs) NetNameEquals(name string) bool {
	if !w.HasNetName {
		return false
	}
	return bytes.Equal(bytes.TrimRight(w.NetName, "\x00"), []byte(name))
}

// ParseWisun decodes the Wi-SUN group of a frame's payload IEs. Unknown
// groups and sub-IEs are skipped; malformed known sub-IEs are ignored.
func ParseWisun(payload []byte) (WisunIEs, error) {
	var w WisunIEs
	var groupBuf [MaxPayloadIEs]IE
	var subBuf [MaxSubIEs]IE

	groups, err := ParseGroupIEs(payload, groupBuf[:])
	if err != nil {
		return w, err
	}
	for _, g := range groups {
		if g.ID != IEGroupWiSUN {
			continue
		}
		subs, err := ParseSubIEs(g.Content, subBuf[:])
		if err != nil {
			return w, err
		}
		for _, s := range subs {
			w.apply(s)
		}
	}
	return w, nil
}

func (w *WisunIEs) apply(s IE) {
	c := s.Content
	if s.Long {
		if s.ID == SubIEUnicastSchedule && len(c) >= usIEMinLen {
			w.Schedule = UnicastSchedule{
				DwellInterval:   c[0],
				ClockDrift:      c[1],
				TimingAccuracy:  c[2],
				ChannelPlan:     c[3] & 0x07,
				ChannelFunction: (c[3] >> 3) & 0x07,
			}
			w.HasSchedule = true
		}
		return
	}

	switch s.ID {
	case SubIENetName:
		if len(c) <= NetNameMaxLen {
			w.NetName = c
			w.HasNetName = true
		}
	case SubIEPAN:
		if len(c) >= panIELen {
			flags := c[4]
			w.PAN = PANInfo{
				Size:          binary.LittleEndian.Uint16(c[0:2]),
				RoutingCost:   binary.LittleEndian.Uint16(c[2:4]),
				UseParentBSIE: flags&0x01 != 0,
				RoutingMethod: (flags >> 1) & 0x01,
				EAPOLReady:    flags&0x04 != 0,
				FANTPSVersion: (flags >> 5) & 0x07,
			}
			w.HasPAN = true
		}
	case SubIEPANVersion:
		if len(c) >= panVersionIELen {
			w.PANVersion = binary.LittleEndian.Uint16(c)
			w.HasPANVersion = true
		}
	case SubIEGTKHash:
		if len(c) >= GTKCount*GTKHashLen {
			for i := range w.GTKHashes {
				copy(w.GTKHashes[i][:], c[i*GTKHashLen:])
			}
			w.HasGTKHashes = true
		}
	}
}

// AppendWisun appends a Wi-SUN group IE carrying every present sub-IE.
func AppendWisun(dst []byte, w WisunIEs) ([]byte, error) {
	var content []byte
	var err error

	if w.HasSchedule {
		s := w.Schedule
		content, err = AppendSubIE(content, SubIEUnicastSchedule, true, []byte{
			s.DwellInterval, s.ClockDrift, s.TimingAccuracy,
			s.ChannelPlan&0x07 | (s.ChannelFunction&0x07)<<3,
		})
		if err != nil {
			return dst, err
		}
	}
	if w.HasNetName {
		content, err = AppendSubIE(content, SubIENetName, false, w.NetName)
		if err != nil {
			return dst, err
		}
	}
	if w.HasPAN {
		p := w.PAN
		var flags byte
		if p.UseParentBSIE {
			flags |= 0x01
		}
		flags |= (p.RoutingMethod & 0x01) << 1
		if p.EAPOLReady {
			flags |= 0x04
		}
		flags |= (p.FANTPSVersion & 0x07) << 5
		buf := binary.LittleEndian.AppendUint16(nil, p.Size)
		buf = binary.LittleEndian.AppendUint16(buf, p.RoutingCost)
		content, err = AppendSubIE(content, SubIEPAN, false, append(buf, flags))
		if err != nil {
			return dst, err
		}
	}
	if w.HasPANVersion {
		content, err = AppendSubIE(content, SubIEPANVersion, false,
			binary.LittleEndian.AppendUint16(nil, w.PANVersion))
		if err != nil {
			return dst, err
		}
	}
	if w.HasGTKHashes {
		buf := make([]byte, 0, GTKCount*GTKHashLen)
		for _, h := range w.GTKHashes {
			buf = append(buf, h[:]...)
		}
		content, err = AppendSubIE(content, SubIEGTKHash, false, buf)
		if err != nil {
			return dst, err
		}
	}
	return AppendGroupIE(dst, IEGroupWiSUN, content)
}
