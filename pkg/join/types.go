package join

import (
	"time"

	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// DeviceDescriptor identifies a node on a PAN.
type DeviceDescriptor struct {
	PANID     uint16      `json:"panId"`
	ShortAddr uint16      `json:"shortAddr"`
	ExtAddr   mac.ExtAddr `json:"extAddr"`
}

// ParentInfo describes the coordinator the node is attached to.
type ParentInfo struct {
	Device DeviceDescriptor `json:"device"`

	// Channel is the logical channel in classic mode. Unused when FH is set.
	Channel uint8 `json:"channel"`

	// FH is set when the parent was found in frequency-hopping mode.
	FH bool `json:"fh"`
}

// DeviceInfo is a snapshot of the controller's view of the node.
type DeviceInfo struct {
	PANID           uint16
	Channel         uint8
	CoordShortAddr  uint16
	CoordExtAddr    mac.ExtAddr
	DevShortAddr    uint16
	DevExtAddr      mac.ExtAddr
	BeaconOrder     uint8
	SuperframeOrder uint8

	State         JoinState
	PrevState     JoinState
	ScanState     ScanState
	PrevScanState ScanState

	// DataFailures counts consecutive unacknowledged polls and data frames.
	DataFailures uint8
	PollInterval time.Duration

	// ParentFound is set once a candidate parent has been selected.
	ParentFound bool
}

// Device returns the node's own descriptor.
func (d DeviceInfo) Device() DeviceDescriptor {
	return DeviceDescriptor{PANID: d.PANID, ShortAddr: d.DevShortAddr, ExtAddr: d.DevExtAddr}
}

// Disassociation describes the node leaving the network.
type Disassociation struct {
	// Addr is the extended address carried by the MAC primitive.
	Addr mac.ExtAddr `json:"addr"`

	// Requested is set when this node asked to leave (confirm), clear when
	// the parent removed it (indication).
	Requested bool `json:"requested"`

	// Status is the confirm status. Only meaningful when Requested.
	Status mac.Status `json:"status"`

	// Reason is the indication reason. Only meaningful when not Requested.
	Reason mac.DisassociateReason `json:"reason"`
}
