package mac

// ScanType selects the kind of MLME scan.
type ScanType uint8

const (
	ScanTypeED             ScanType = 0
	ScanTypeActive         ScanType = 1
	ScanTypePassive        ScanType = 2
	ScanTypeOrphan         ScanType = 3
	ScanTypeEnhancedActive ScanType = 7
)

// String returns the scan type name.
func (t ScanType) String() string {
	switch t {
	case ScanTypeED:
		return "ED"
	case ScanTypeActive:
		return "ACTIVE"
	case ScanTypePassive:
		return "PASSIVE"
	case ScanTypeOrphan:
		return "ORPHAN"
	case ScanTypeEnhancedActive:
		return "ENHANCED_ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// BeaconType distinguishes standard and enhanced beacons.
type BeaconType uint8

const (
	BeaconTypeNormal   BeaconType = 0
	BeaconTypeEnhanced BeaconType = 1
)

// Capability is the association capability information.
type Capability struct {
	PANCoord     bool
	FFD          bool
	MainsPower   bool
	RxOnWhenIdle bool
	Security     bool
	AllocAddr    bool
}

// DisassociateReason is the reason code of a disassociation.
type DisassociateReason uint8

const (
	DisassociateReasonCoord  DisassociateReason = 1
	DisassociateReasonDevice DisassociateReason = 2
)

// String returns the reason name.
func (r DisassociateReason) String() string {
	switch r {
	case DisassociateReasonCoord:
		return "COORDINATOR"
	case DisassociateReasonDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// AsyncOperation starts or stops an async frame transmission.
type AsyncOperation uint8

const (
	AsyncStart AsyncOperation = 0
	AsyncStop  AsyncOperation = 1
)

// AsyncFrame is the Wi-SUN async frame type requested from the MAC.
type AsyncFrame uint8

const (
	AsyncFramePANAdvert        AsyncFrame = 0
	AsyncFramePANAdvertSolicit AsyncFrame = 1
	AsyncFrameConfig           AsyncFrame = 2
	AsyncFrameConfigSolicit    AsyncFrame = 3
)

// String returns the async frame name.
func (f AsyncFrame) String() string {
	switch f {
	case AsyncFramePANAdvert:
		return "PA"
	case AsyncFramePANAdvertSolicit:
		return "PAS"
	case AsyncFrameConfig:
		return "PC"
	case AsyncFrameConfigSolicit:
		return "PCS"
	default:
		return "UNKNOWN"
	}
}

// FHFrameType is the frame type reported on an async indication.
type FHFrameType uint8

const (
	FHFramePANAdvert        FHFrameType = 0
	FHFramePANAdvertSolicit FHFrameType = 1
	FHFrameConfig           FHFrameType = 2
	FHFrameConfigSolicit    FHFrameType = 3
	FHFrameData             FHFrameType = 4
	FHFrameAck              FHFrameType = 5
)

// String returns the frame type name.
func (f FHFrameType) String() string {
	switch f {
	case FHFramePANAdvert:
		return "PA"
	case FHFramePANAdvertSolicit:
		return "PAS"
	case FHFrameConfig:
		return "PC"
	case FHFrameConfigSolicit:
		return "PCS"
	case FHFrameData:
		return "DATA"
	case FHFrameAck:
		return "ACK"
	default:
		return "UNKNOWN"
	}
}

// PANDescriptor describes a coordinator heard during a scan.
type PANDescriptor struct {
	CoordAddr      Addr
	CoordPANID     uint16
	Superframe     SuperframeSpec
	LogicalChannel uint8
	ChannelPage    uint8
	LinkQuality    uint8
	Security       Security
}

// ScanRequest is an MLME-SCAN.request.
type ScanRequest struct {
	Type          ScanType
	Channels      ChannelMask
	Duration      uint8
	ChannelPage   uint8
	PhyID         uint8
	MaxResults    uint8
	PermitJoin    bool
	LinkQuality   uint8
	PercentFilter uint8
	Security      Security
}

// AssociateRequest is an MLME-ASSOCIATE.request.
type AssociateRequest struct {
	CoordAddr      Addr
	CoordPANID     uint16
	LogicalChannel uint8
	ChannelPage    uint8
	PhyID          uint8
	Capability     Capability
	Security       Security
}

// DisassociateRequest is an MLME-DISASSOCIATE.request.
type DisassociateRequest struct {
	DeviceAddr  Addr
	DevicePANID uint16
	Reason      DisassociateReason
	TxIndirect  bool
	Security    Security
}

// PollRequest is an MLME-POLL.request.
type PollRequest struct {
	CoordAddr  Addr
	CoordPANID uint16
	Security   Security
}

// SyncRequest is an MLME-SYNC.request.
type SyncRequest struct {
	LogicalChannel uint8
	ChannelPage    uint8
	PhyID          uint8
	TrackBeacon    bool
}

// AsyncRequest is an MLME-WS-ASYNC.request.
type AsyncRequest struct {
	Operation AsyncOperation
	Frame     AsyncFrame
	Channels  ChannelMask
	Security  Security
}

// DataRequest is an MCPS-DATA.request.
type DataRequest struct {
	DstAddr     Addr
	DstPANID    uint16
	Handle      uint8
	AckRequired bool
	Indirect    bool
	Payload     []byte
	Security    Security
}

// BeaconNotifyIndication is an MLME-BEACON-NOTIFY.indication.
type BeaconNotifyIndication struct {
	Type    BeaconType
	PANDesc PANDescriptor
	BSN     uint8
}

// ScanConfirm is an MLME-SCAN.confirm.
type ScanConfirm struct {
	Status      Status
	Type        ScanType
	ChannelPage uint8
	PhyID       uint8
	ResultCount uint8
}

// AssociateConfirm is an MLME-ASSOCIATE.confirm.
type AssociateConfirm struct {
	Status    Status
	ShortAddr uint16
	Security  Security
}

// DisassociateConfirm is an MLME-DISASSOCIATE.confirm.
type DisassociateConfirm struct {
	Status      Status
	DeviceAddr  Addr
	DevicePANID uint16
}

// DisassociateIndication is an MLME-DISASSOCIATE.indication.
type DisassociateIndication struct {
	DeviceAddr ExtAddr
	Reason     DisassociateReason
	Security   Security
}

// SyncLossIndication is an MLME-SYNC-LOSS.indication.
type SyncLossIndication struct {
	Reason         Status
	PANID          uint16
	LogicalChannel uint8
	ChannelPage    uint8
	PhyID          uint8
	Security       Security
}

// PollConfirm is an MLME-POLL.confirm.
type PollConfirm struct {
	Status       Status
	FramePending bool
}

// DataConfirm is an MCPS-DATA.confirm.
type DataConfirm struct {
	Status    Status
	Handle    uint8
	Timestamp uint32
	Retries   uint8
}

// AsyncIndication is an MLME-WS-ASYNC.indication carrying a PA, PAS, PC
// or PCS frame from a neighbor.
type AsyncIndication struct {
	SrcAddr      Addr
	SrcShortAddr uint16
	SrcPANID     uint16
	Frame        FHFrameType
	FrameCounter uint32
	LinkQuality  uint8
	PayloadIE    []byte
	Security     Security
}

// AsyncConfirm is an MLME-WS-ASYNC.confirm.
type AsyncConfirm struct {
	Status Status
}
