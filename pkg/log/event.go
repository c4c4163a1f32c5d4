package log

import "time"

// Event is one protocol trace record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one controller lifetime (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates flow relative to the join core.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Mode is the operating mode of the node (classic or hopping).
	Mode Mode `cbor:"6,keyasint,omitempty"`

	// DeviceAddr is the node's extended address, when known.
	DeviceAddr string `cbor:"7,keyasint,omitempty"`

	// PANID is the PAN the node is joining or has joined.
	PANID uint16 `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Primitive    *PrimitiveEvent    `cbor:"10,keyasint,omitempty"`
	Timer        *TimerEvent        `cbor:"11,keyasint,omitempty"`
	StateChange  *StateChangeEvent  `cbor:"12,keyasint,omitempty"`
	Notification *NotificationEvent `cbor:"13,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of a primitive.
type Direction uint8

const (
	// DirectionIn is a confirm or indication delivered by the MAC.
	DirectionIn Direction = 0
	// DirectionOut is a request issued to the MAC.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where the event was captured.
type Layer uint8

const (
	// LayerMAC is the MAC service boundary.
	LayerMAC Layer = 0
	// LayerJoin is the join controller itself.
	LayerJoin Layer = 1
	// LayerApplication is the application callback boundary.
	LayerApplication Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerMAC:
		return "MAC"
	case LayerJoin:
		return "JOIN"
	case LayerApplication:
		return "APPLICATION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryPrimitive is a MAC request, confirm or indication.
	CategoryPrimitive Category = 0
	// CategoryTimer is a timer arm, stop or expiry.
	CategoryTimer Category = 1
	// CategoryState is a state change.
	CategoryState Category = 2
	// CategoryError is an error event.
	CategoryError Category = 3
	// CategoryNotification is an application callback.
	CategoryNotification Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPrimitive:
		return "PRIMITIVE"
	case CategoryTimer:
		return "TIMER"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryNotification:
		return "NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// Mode is the network operating mode.
type Mode uint8

const (
	// ModeClassic is beacon or non-beacon scanning.
	ModeClassic Mode = 1
	// ModeHopping is frequency hopping with PAS/PCS exchange.
	ModeHopping Mode = 2
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeClassic:
		return "CLASSIC"
	case ModeHopping:
		return "FH"
	default:
		return "UNKNOWN"
	}
}

// PrimitiveEvent captures one MAC primitive.
type PrimitiveEvent struct {
	// Kind distinguishes request, confirm and indication.
	Kind PrimitiveKind `cbor:"1,keyasint"`

	// Name is the primitive name, e.g. "SCAN" or "WS_ASYNC".
	Name string `cbor:"2,keyasint"`

	// Status is the MAC status for confirms and some indications.
	Status *uint8 `cbor:"3,keyasint,omitempty"`

	// Addr is the peer address (coordinator or frame source).
	Addr string `cbor:"4,keyasint,omitempty"`

	// Channel is the logical channel involved, if any.
	Channel *uint8 `cbor:"5,keyasint,omitempty"`

	// Detail is a short primitive-specific summary, e.g. the scan type.
	Detail string `cbor:"6,keyasint,omitempty"`

	// Filtered is set on indications the controller dropped without
	// forwarding.
	Filtered bool `cbor:"7,keyasint,omitempty"`
}

// PrimitiveKind distinguishes the MAC primitive classes.
type PrimitiveKind uint8

const (
	// PrimitiveRequest is a request issued to the MAC.
	PrimitiveRequest PrimitiveKind = 0
	// PrimitiveConfirm is the MAC's answer to a request.
	PrimitiveConfirm PrimitiveKind = 1
	// PrimitiveIndication is an unsolicited MAC event.
	PrimitiveIndication PrimitiveKind = 2
)

// String returns the primitive kind name.
func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveRequest:
		return "REQUEST"
	case PrimitiveConfirm:
		return "CONFIRM"
	case PrimitiveIndication:
		return "INDICATION"
	default:
		return "UNKNOWN"
	}
}

// TimerEvent captures timer activity.
type TimerEvent struct {
	// ID is the timer identifier.
	ID uint8 `cbor:"1,keyasint"`

	// Name is the timer name, e.g. "PAS" or "POLL".
	Name string `cbor:"2,keyasint"`

	// Action is what happened to the timer.
	Action TimerAction `cbor:"3,keyasint"`

	// Duration is the armed delay (arm only). Stored as nanoseconds.
	Duration time.Duration `cbor:"4,keyasint,omitempty"`
}

// TimerAction indicates what happened to a timer.
type TimerAction uint8

const (
	// TimerArmed indicates the timer was started or restarted.
	TimerArmed TimerAction = 0
	// TimerStopped indicates the timer was cancelled.
	TimerStopped TimerAction = 1
	// TimerFired indicates the timer expired.
	TimerFired TimerAction = 2
)

// String returns the timer action name.
func (a TimerAction) String() string {
	switch a {
	case TimerArmed:
		return "ARMED"
	case TimerStopped:
		return "STOPPED"
	case TimerFired:
		return "FIRED"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a join or scan state transition.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityJoin is the top-level join state.
	StateEntityJoin StateEntity = 0
	// StateEntityScan is the scan sub-state.
	StateEntityScan StateEntity = 1
	// StateEntityParent is the provisional parent selection.
	StateEntityParent StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityJoin:
		return "JOIN"
	case StateEntityScan:
		return "SCAN"
	case StateEntityParent:
		return "PARENT"
	default:
		return "UNKNOWN"
	}
}

// NotificationEvent captures a callback delivered to the application.
type NotificationEvent struct {
	// Type of notification.
	Type NotificationType `cbor:"1,keyasint"`

	// ShortAddr is the node's short address (joined only).
	ShortAddr *uint16 `cbor:"2,keyasint,omitempty"`

	// ParentAddr is the parent's extended address.
	ParentAddr string `cbor:"3,keyasint,omitempty"`

	// Detail carries the new state, reason or status as text.
	Detail string `cbor:"4,keyasint,omitempty"`
}

// NotificationType indicates the kind of application callback.
type NotificationType uint8

const (
	// NotificationJoined indicates the node joined or rejoined.
	NotificationJoined NotificationType = 0
	// NotificationDisassociated indicates the node left the network.
	NotificationDisassociated NotificationType = 1
	// NotificationStateChanged indicates a join state change.
	NotificationStateChanged NotificationType = 2
)

// String returns the notification type name.
func (n NotificationType) String() string {
	switch n {
	case NotificationJoined:
		return "JOINED"
	case NotificationDisassociated:
		return "DISASSOCIATED"
	case NotificationStateChanged:
		return "STATE_CHANGED"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the MAC status code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
