package mac

// NonBeaconOrder is the beacon order value that denotes a non-beacon
// (continuously scanned or frequency-hopping) network.
const NonBeaconOrder uint8 = 15

// SuperframeSpec is the 16-bit superframe specification field carried in
// beacons.
//
//	bits 0-3   beacon order
//	bits 4-7   superframe order
//	bits 8-11  final CAP slot
//	bit  12    battery life extension
//	bit  14    PAN coordinator
//	bit  15    association permit
type SuperframeSpec uint16

// NewSuperframeSpec builds a superframe specification.
func NewSuperframeSpec(beaconOrder, superframeOrder uint8, panCoord, permit bool) SuperframeSpec {
	s := SuperframeSpec(beaconOrder&0x0F) | SuperframeSpec(superframeOrder&0x0F)<<4 | 0x0F<<8
	if panCoord {
		s |= 1 << 14
	}
	if permit {
		s |= 1 << 15
	}
	return s
}

// BeaconOrder returns the announced beacon order.
func (s SuperframeSpec) BeaconOrder() uint8 { return uint8(s & 0x0F) }

// SuperframeOrder returns the announced superframe order.
func (s SuperframeSpec) SuperframeOrder() uint8 { return uint8(s>>4) & 0x0F }

// FinalCAPSlot returns the final contention access period slot.
func (s SuperframeSpec) FinalCAPSlot() uint8 { return uint8(s>>8) & 0x0F }

// BatteryLifeExtension reports the BLE bit.
func (s SuperframeSpec) BatteryLifeExtension() bool { return s&(1<<12) != 0 }

// PANCoordinator reports whether the beacon was sent by the PAN coordinator.
func (s SuperframeSpec) PANCoordinator() bool { return s&(1<<14) != 0 }

// AssociationPermit reports whether the coordinator accepts association.
func (s SuperframeSpec) AssociationPermit() bool { return s&(1<<15) != 0 }
