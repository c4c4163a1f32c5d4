package macsim

import (
	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// Coordinator is a simulated parent.
type Coordinator struct {
	PANID     uint16
	ShortAddr uint16
	ExtAddr   mac.ExtAddr

	// Channel is the logical channel for classic operation.
	Channel uint8

	BeaconOrder     uint8
	SuperframeOrder uint8
	PermitJoin      bool
	LinkQuality     uint8

	// FH makes the coordinator answer PAS and PCS instead of scans.
	FH      bool
	NetName string

	// RoutingCost is advertised in the PAN IE. Zero marks a border router.
	RoutingCost uint16
	PANVersion  uint16

	// FirstShortAddr is the first address handed to a joining node.
	FirstShortAddr uint16

	next    uint16
	members map[mac.ExtAddr]uint16
}

func (c *Coordinator) beacon() mac.BeaconNotifyIndication {
	return mac.BeaconNotifyIndication{
		Type: mac.BeaconTypeNormal,
		PANDesc: mac.PANDescriptor{
			CoordAddr:      mac.ShortAddr(c.ShortAddr),
			CoordPANID:     c.PANID,
			Superframe:     mac.NewSuperframeSpec(c.BeaconOrder, c.SuperframeOrder, true, c.PermitJoin),
			LogicalChannel: c.Channel,
			LinkQuality:    c.LinkQuality,
		},
	}
}

func (c *Coordinator) matches(addr mac.Addr, pan uint16) bool {
	if pan != c.PANID {
		return false
	}
	switch addr.Mode {
	case mac.AddrModeShort:
		return addr.Short == c.ShortAddr
	case mac.AddrModeExtended:
		return addr.Ext == c.ExtAddr
	}
	return false
}

// admit returns the short address for dev, allocating one on first use.
func (c *Coordinator) admit(dev mac.ExtAddr) uint16 {
	if c.members == nil {
		c.members = make(map[mac.ExtAddr]uint16)
		c.next = c.FirstShortAddr
		if c.next == 0 {
			c.next = 1
		}
	}
	if short, ok := c.members[dev]; ok {
		return short
	}
	short := c.next
	c.next++
	c.members[dev] = short
	return short
}

func (c *Coordinator) member(dev mac.ExtAddr) (uint16, bool) {
	short, ok := c.members[dev]
	return short, ok
}

func (c *Coordinator) evict(dev mac.ExtAddr) bool {
	if _, ok := c.members[dev]; !ok {
		return false
	}
	delete(c.members, dev)
	return true
}

func (c *Coordinator) panAdvert() mac.WisunIEs {
	return mac.WisunIEs{
		NetName:    []byte(c.NetName),
		HasNetName: true,
		PAN: mac.PANInfo{
			Size:          uint16(len(c.members)),
			RoutingCost:   c.RoutingCost,
			UseParentBSIE: true,
			EAPOLReady:    true,
		},
		HasPAN: true,
	}
}

func (c *Coordinator) panConfig() mac.WisunIEs {
	return mac.WisunIEs{
		PANVersion:    c.PANVersion,
		HasPANVersion: true,
	}
}
