package notify

import (
	"errors"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/join"
)

// Sentinel errors.
var (
	ErrNotConnected = errors.New("notify: publisher not connected")
	ErrInvalidQoS   = errors.New("notify: invalid QoS level (must be 0, 1, or 2)")
	ErrQueueFull    = errors.New("notify: event queue full")
)

// EventType names a notification.
type EventType string

const (
	EventJoined        EventType = "joined"
	EventDisassociated EventType = "disassociated"
	EventState         EventType = "state"
)

// Event is the JSON body published for each notification.
type Event struct {
	Type      EventType `json:"type"`
	Node      string    `json:"node"`
	Timestamp time.Time `json:"timestamp"`

	State          string                 `json:"state,omitempty"`
	Device         *join.DeviceDescriptor `json:"device,omitempty"`
	Parent         *join.ParentInfo       `json:"parent,omitempty"`
	Disassociation *join.Disassociation   `json:"disassociation,omitempty"`
}

// Topic identifies where an event is published.
type Topic struct {
	Node  string
	Event EventType
}

// Publisher delivers encoded events.
type Publisher interface {
	Publish(topic Topic, payload []byte) error
	Close() error
}
