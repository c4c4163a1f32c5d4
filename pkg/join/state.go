package join

// JoinState is the top-level state of the joining device.
type JoinState uint8

const (
	// StateInitWaiting - initialized, not yet asked to join.
	StateInitWaiting JoinState = iota

	// StateInitRestoring - restoring a previous network membership.
	StateInitRestoring

	// StateJoining - searching for a parent and associating.
	StateJoining

	// StateJoined - associated with a parent.
	StateJoined

	// StateRejoined - membership restored after a restart or orphaning.
	StateRejoined

	// StateOrphan - contact with the parent lost, recovering.
	StateOrphan
)

// String returns the state name.
func (s JoinState) String() string {
	switch s {
	case StateInitWaiting:
		return "INIT_WAITING"
	case StateInitRestoring:
		return "INIT_RESTORING"
	case StateJoining:
		return "JOINING"
	case StateJoined:
		return "JOINED"
	case StateRejoined:
		return "REJOINED"
	case StateOrphan:
		return "ORPHAN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name.
func (s JoinState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Connected reports whether s is one of the normal operating states.
func (s JoinState) Connected() bool {
	return s == StateJoined || s == StateRejoined
}

// ScanState is the scan sub-state used while joining or orphaned.
type ScanState uint8

const (
	// ScanActive - active scan (non-beacon networks).
	ScanActive ScanState = iota

	// ScanPassive - passive scan (beacon networks).
	ScanPassive

	// ScanOrphan - orphan scan looking for the lost coordinator.
	ScanOrphan

	// ScanBackoff - silent period between scans of a sleepy node.
	ScanBackoff

	// ScanSyncReq - synchronizing to the coordinator's beacons.
	ScanSyncReq
)

// String returns the scan state name.
func (s ScanState) String() string {
	switch s {
	case ScanActive:
		return "SCAN_ACTIVE"
	case ScanPassive:
		return "SCAN_PASSIVE"
	case ScanOrphan:
		return "SCAN_ORPHAN"
	case ScanBackoff:
		return "SCAN_BACKOFF"
	case ScanSyncReq:
		return "SYNC_REQ"
	default:
		return "UNKNOWN"
	}
}
