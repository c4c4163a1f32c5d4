package mac

import "fmt"

// Status is a MAC confirm or indication status code.
type Status uint8

// Status codes. Numeric values follow IEEE 802.15.4 where one is defined.
const (
	StatusSuccess              Status = 0x00
	StatusPANAtCapacity        Status = 0x01
	StatusPANAccessDenied      Status = 0x02
	StatusCounterError         Status = 0xDB
	StatusImproperKeyType      Status = 0xDC
	StatusImproperSecLevel     Status = 0xDD
	StatusUnsupportedLegacy    Status = 0xDE
	StatusUnsupportedSecurity  Status = 0xDF
	StatusBeaconLoss           Status = 0xE0
	StatusChannelAccessFailure Status = 0xE1
	StatusDenied               Status = 0xE2
	StatusSecurityError        Status = 0xE4
	StatusFrameTooLong         Status = 0xE5
	StatusInvalidParameter     Status = 0xE8
	StatusNoAck                Status = 0xE9
	StatusNoBeacon             Status = 0xEA
	StatusNoData               Status = 0xEB
	StatusNoShortAddress       Status = 0xEC
	StatusPANIDConflict        Status = 0xEE
	StatusRealignment          Status = 0xEF
	StatusTransactionExpired   Status = 0xF0
	StatusTransactionOverflow  Status = 0xF1
	StatusUnavailableKey       Status = 0xF3
	StatusUnsupportedAttribute Status = 0xF4
	StatusInvalidAddress       Status = 0xF5
	StatusScanInProgress       Status = 0xFC
	StatusNoResources          Status = 0x1A
	StatusUnsupported          Status = 0x18
)

var statusNames = map[Status]string{
	StatusSuccess:              "SUCCESS",
	StatusPANAtCapacity:        "PAN_AT_CAPACITY",
	StatusPANAccessDenied:      "PAN_ACCESS_DENIED",
	StatusCounterError:         "COUNTER_ERROR",
	StatusImproperKeyType:      "IMPROPER_KEY_TYPE",
	StatusImproperSecLevel:     "IMPROPER_SECURITY_LEVEL",
	StatusUnsupportedLegacy:    "UNSUPPORTED_LEGACY",
	StatusUnsupportedSecurity:  "UNSUPPORTED_SECURITY",
	StatusBeaconLoss:           "BEACON_LOSS",
	StatusChannelAccessFailure: "CHANNEL_ACCESS_FAILURE",
	StatusDenied:               "DENIED",
	StatusSecurityError:        "SECURITY_ERROR",
	StatusFrameTooLong:         "FRAME_TOO_LONG",
	StatusInvalidParameter:     "INVALID_PARAMETER",
	StatusNoAck:                "NO_ACK",
	StatusNoBeacon:             "NO_BEACON",
	StatusNoData:               "NO_DATA",
	StatusNoShortAddress:       "NO_SHORT_ADDRESS",
	StatusPANIDConflict:        "PAN_ID_CONFLICT",
	StatusRealignment:          "REALIGNMENT",
	StatusTransactionExpired:   "TRANSACTION_EXPIRED",
	StatusTransactionOverflow:  "TRANSACTION_OVERFLOW",
	StatusUnavailableKey:       "UNAVAILABLE_KEY",
	StatusUnsupportedAttribute: "UNSUPPORTED_ATTRIBUTE",
	StatusInvalidAddress:       "INVALID_ADDRESS",
	StatusScanInProgress:       "SCAN_IN_PROGRESS",
	StatusNoResources:          "NO_RESOURCES",
	StatusUnsupported:          "UNSUPPORTED",
}

// String returns the status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_0x%02X", uint8(s))
}

// Error wraps a non-success Status so it can travel as a Go error.
type Error struct {
	Op     string
	Status Status
}

func (e *Error) Error() string {
	return fmt.Sprintf("mac %s: %s", e.Op, e.Status)
}

// StatusError returns nil for StatusSuccess and an *Error otherwise.
func StatusError(op string, s Status) error {
	if s == StatusSuccess {
		return nil
	}
	return &Error{Op: op, Status: s}
}
