package mac

// KeySourceLen is the length of a key source.
const KeySourceLen = 8

// KeyLen is the length of a MAC security key.
const KeyLen = 16

// KeyLookupLen is the length of long-form key lookup data.
const KeyLookupLen = 9

// SecurityLevel is the auxiliary security header level.
type SecurityLevel uint8

const (
	SecLevelNone      SecurityLevel = 0
	SecLevelMIC32     SecurityLevel = 1
	SecLevelMIC64     SecurityLevel = 2
	SecLevelMIC128    SecurityLevel = 3
	SecLevelEnc       SecurityLevel = 4
	SecLevelEncMIC32  SecurityLevel = 5
	SecLevelEncMIC64  SecurityLevel = 6
	SecLevelEncMIC128 SecurityLevel = 7
)

// String returns the security level name.
func (l SecurityLevel) String() string {
	switch l {
	case SecLevelNone:
		return "NONE"
	case SecLevelMIC32:
		return "MIC_32"
	case SecLevelMIC64:
		return "MIC_64"
	case SecLevelMIC128:
		return "MIC_128"
	case SecLevelEnc:
		return "ENC"
	case SecLevelEncMIC32:
		return "ENC_MIC_32"
	case SecLevelEncMIC64:
		return "ENC_MIC_64"
	case SecLevelEncMIC128:
		return "ENC_MIC_128"
	default:
		return "UNKNOWN"
	}
}

// KeyIDMode selects how the key is identified in the auxiliary header.
type KeyIDMode uint8

const (
	KeyIDModeImplicit KeyIDMode = 0
	KeyIDMode1        KeyIDMode = 1
	KeyIDMode4        KeyIDMode = 2
	KeyIDMode8        KeyIDMode = 3
)

// String returns the key identifier mode name.
func (m KeyIDMode) String() string {
	switch m {
	case KeyIDModeImplicit:
		return "IMPLICIT"
	case KeyIDMode1:
		return "MODE_1"
	case KeyIDMode4:
		return "MODE_4"
	case KeyIDMode8:
		return "MODE_8"
	default:
		return "UNKNOWN"
	}
}

// Security is the per-frame security parameter block attached to requests
// and reported on indications.
type Security struct {
	KeySource [KeySourceLen]byte
	Level     SecurityLevel
	KeyIDMode KeyIDMode
	KeyIndex  uint8
}

// KeyInit adds a key to the MAC key table together with its outgoing
// frame counter.
type KeyInit struct {
	Key             [KeyLen]byte
	LookupData      [KeyLookupLen]byte
	LookupDataSize  uint8
	FrameCounter    uint32
	ReplaceKeyIndex uint8
	NewKey          bool
}

// SecurityDevice is an entry for the MAC device table.
type SecurityDevice struct {
	PANID          uint16
	ShortAddr      uint16
	ExtAddr        ExtAddr
	FrameCounter   uint32
	Exempt         bool
	LookupData     [KeyLookupLen]byte
	LookupDataSize uint8
	Unique         bool
	Duplicate      bool
}

// FrameType identifies a MAC frame type in security tables.
type FrameType uint8

const (
	FrameTypeBeacon  FrameType = 0
	FrameTypeData    FrameType = 1
	FrameTypeAck     FrameType = 2
	FrameTypeCommand FrameType = 3
)

// CommandDataRequest is the data request command identifier.
const CommandDataRequest uint8 = 0x04

// SecurityLevelEntry is one row of the security level table.
type SecurityLevelEntry struct {
	Index           uint8
	FrameType       FrameType
	CommandFrameID  uint8
	SecurityMinimum SecurityLevel
	OverrideMinimum bool
}
