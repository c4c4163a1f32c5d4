package mac

import "fmt"

// Attribute identifies a PIB attribute. MAC, frequency-hopping and security
// attributes share one numbering space split by range.
type Attribute uint16

// Attribute namespaces.
const (
	fhAttributeBase       Attribute = 0x2000
	securityAttributeBase Attribute = 0x3000
)

// MAC PIB attributes.
const (
	AttrBeaconOrder            Attribute = 0x47
	AttrCoordExtendedAddress   Attribute = 0x4A
	AttrCoordShortAddress      Attribute = 0x4B
	AttrPANID                  Attribute = 0x50
	AttrRxOnWhenIdle           Attribute = 0x52
	AttrShortAddress           Attribute = 0x53
	AttrSuperframeOrder        Attribute = 0x54
	AttrSecurityEnabled        Attribute = 0x5D
	AttrLogicalChannel         Attribute = 0xE1
	AttrExtendedAddress        Attribute = 0xE2
	AttrPhyCurrentDescriptorID Attribute = 0xEE
	AttrChannelPage            Attribute = 0xEF
)

// Frequency-hopping PIB attributes.
const (
	AttrFHTrackParentEUI Attribute = fhAttributeBase + iota
	AttrFHBroadcastInterval
	AttrFHUnicastExcludedChannels
	AttrFHBroadcastExcludedChannels
	AttrFHUnicastDwellInterval
	AttrFHBroadcastDwellInterval
	AttrFHClockDrift
	AttrFHTimingAccuracy
	AttrFHUnicastChannelFunction
	AttrFHBroadcastChannelFunction
	AttrFHUseParentBSIE
	AttrFHBroadcastSchedID
	AttrFHUnicastFixedChannel
	AttrFHBroadcastFixedChannel
	AttrFHPANSize
	AttrFHRoutingCost
	AttrFHRoutingMethod
	AttrFHEAPOLReady
	AttrFHFANTPSVersion
	AttrFHNetName
	AttrFHPANVersion
	AttrFHGTK0Hash
	AttrFHGTK1Hash
	AttrFHGTK2Hash
	AttrFHGTK3Hash
	AttrFHNeighborValidTime
)

// Security PIB attributes.
const (
	AttrSecKeyTable Attribute = securityAttributeBase + iota
	AttrSecDefaultKeySource
	AttrSecSecurityLevelEntry
	AttrSecAutoRequestSecurityLevel
	AttrSecAutoRequestKeyIDMode
	AttrSecAutoRequestKeyIndex
)

var attributeNames = map[Attribute]string{
	AttrBeaconOrder:                 "BEACON_ORDER",
	AttrCoordExtendedAddress:        "COORD_EXTENDED_ADDRESS",
	AttrCoordShortAddress:           "COORD_SHORT_ADDRESS",
	AttrPANID:                       "PAN_ID",
	AttrRxOnWhenIdle:                "RX_ON_WHEN_IDLE",
	AttrShortAddress:                "SHORT_ADDRESS",
	AttrSuperframeOrder:             "SUPERFRAME_ORDER",
	AttrSecurityEnabled:             "SECURITY_ENABLED",
	AttrLogicalChannel:              "LOGICAL_CHANNEL",
	AttrExtendedAddress:             "EXTENDED_ADDRESS",
	AttrPhyCurrentDescriptorID:      "PHY_CURRENT_DESCRIPTOR_ID",
	AttrChannelPage:                 "CHANNEL_PAGE",
	AttrFHTrackParentEUI:            "FH_TRACK_PARENT_EUI",
	AttrFHBroadcastInterval:         "FH_BROADCAST_INTERVAL",
	AttrFHUnicastExcludedChannels:   "FH_UNICAST_EXCLUDED_CHANNELS",
	AttrFHBroadcastExcludedChannels: "FH_BROADCAST_EXCLUDED_CHANNELS",
	AttrFHUnicastDwellInterval:      "FH_UNICAST_DWELL_INTERVAL",
	AttrFHBroadcastDwellInterval:    "FH_BROADCAST_DWELL_INTERVAL",
	AttrFHClockDrift:                "FH_CLOCK_DRIFT",
	AttrFHTimingAccuracy:            "FH_TIMING_ACCURACY",
	AttrFHUnicastChannelFunction:    "FH_UNICAST_CHANNEL_FUNCTION",
	AttrFHBroadcastChannelFunction:  "FH_BROADCAST_CHANNEL_FUNCTION",
	AttrFHUseParentBSIE:             "FH_USE_PARENT_BS_IE",
	AttrFHBroadcastSchedID:          "FH_BROADCAST_SCHED_ID",
	AttrFHUnicastFixedChannel:       "FH_UNICAST_FIXED_CHANNEL",
	AttrFHBroadcastFixedChannel:     "FH_BROADCAST_FIXED_CHANNEL",
	AttrFHPANSize:                   "FH_PAN_SIZE",
	AttrFHRoutingCost:               "FH_ROUTING_COST",
	AttrFHRoutingMethod:             "FH_ROUTING_METHOD",
	AttrFHEAPOLReady:                "FH_EAPOL_READY",
	AttrFHFANTPSVersion:             "FH_FAN_TPS_VERSION",
	AttrFHNetName:                   "FH_NET_NAME",
	AttrFHPANVersion:                "FH_PAN_VERSION",
	AttrFHGTK0Hash:                  "FH_GTK0_HASH",
	AttrFHGTK1Hash:                  "FH_GTK1_HASH",
	AttrFHGTK2Hash:                  "FH_GTK2_HASH",
	AttrFHGTK3Hash:                  "FH_GTK3_HASH",
	AttrFHNeighborValidTime:         "FH_NEIGHBOR_VALID_TIME",
	AttrSecKeyTable:                 "SEC_KEY_TABLE",
	AttrSecDefaultKeySource:         "SEC_DEFAULT_KEY_SOURCE",
	AttrSecSecurityLevelEntry:       "SEC_SECURITY_LEVEL_ENTRY",
	AttrSecAutoRequestSecurityLevel: "SEC_AUTO_REQUEST_SECURITY_LEVEL",
	AttrSecAutoRequestKeyIDMode:     "SEC_AUTO_REQUEST_KEY_ID_MODE",
	AttrSecAutoRequestKeyIndex:      "SEC_AUTO_REQUEST_KEY_INDEX",
}

// String returns the attribute name.
func (a Attribute) String() string {
	if name, ok := attributeNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ATTR_0x%04X", uint16(a))
}

// IsFH reports whether the attribute belongs to the frequency-hopping PIB.
func (a Attribute) IsFH() bool {
	return a >= fhAttributeBase && a < securityAttributeBase
}

// IsSecurity reports whether the attribute belongs to the security PIB.
func (a Attribute) IsSecurity() bool {
	return a >= securityAttributeBase
}

// GTKHashAttribute returns the PIB attribute holding GTK hash i (0..3).
func GTKHashAttribute(i int) Attribute {
	return AttrFHGTK0Hash + Attribute(i)
}
