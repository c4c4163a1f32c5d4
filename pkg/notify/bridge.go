package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/join"
)

// DefaultQueueSize is the number of events buffered before new ones are
// dropped.
const DefaultQueueSize = 64

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	// Node names this node in topics. Typically its extended address.
	Node string

	QueueSize int
	Logger    *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

type queued struct {
	topic   Topic
	payload []byte
}

// Bridge publishes join notifications.
type Bridge struct {
	cfg    BridgeConfig
	pubs   []Publisher
	queue  chan queued
	logger *slog.Logger

	mu      sync.Mutex
	dropped uint64
}

// NewBridge creates a bridge that fans out to pubs.
func NewBridge(cfg BridgeConfig, pubs ...Publisher) *Bridge {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bridge{
		cfg:    cfg,
		pubs:   pubs,
		queue:  make(chan queued, cfg.QueueSize),
		logger: logger.With("component", "notify", "node", cfg.Node),
	}
}

// Joined implements join.Application.
func (b *Bridge) Joined(dev join.DeviceDescriptor, parent join.ParentInfo) {
	b.enqueue(Event{Type: EventJoined, Device: &dev, Parent: &parent})
}

// Disassociated implements join.Application.
func (b *Bridge) Disassociated(d join.Disassociation) {
	b.enqueue(Event{Type: EventDisassociated, Disassociation: &d})
}

// StateChanged implements join.Application.
func (b *Bridge) StateChanged(state join.JoinState) {
	b.enqueue(Event{Type: EventState, State: state.String()})
}

// Dropped returns how many events were discarded because the queue was
// full.
func (b *Bridge) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Bridge) enqueue(ev Event) {
	ev.Node = b.cfg.Node
	ev.Timestamp = b.cfg.Now().UTC()
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("encode event", "type", ev.Type, "error", err)
		return
	}
	select {
	case b.queue <- queued{topic: Topic{Node: b.cfg.Node, Event: ev.Type}, payload: payload}:
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.logger.Warn("event dropped", "type", ev.Type, "error", ErrQueueFull)
	}
}

// Run publishes queued events until ctx is cancelled, then drains what is
// left and closes the publishers.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.closePublishers()
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case q := <-b.queue:
					b.publish(q)
				default:
					return ctx.Err()
				}
			}
		case q := <-b.queue:
			b.publish(q)
		}
	}
}

func (b *Bridge) publish(q queued) {
	for _, p := range b.pubs {
		if err := p.Publish(q.topic, q.payload); err != nil {
			b.logger.Warn("publish failed", "event", q.topic.Event, "error", err)
		}
	}
}

func (b *Bridge) closePublishers() {
	for _, p := range b.pubs {
		if err := p.Close(); err != nil {
			b.logger.Warn("close publisher", "error", err)
		}
	}
}

var _ join.Application = (*Bridge)(nil)
