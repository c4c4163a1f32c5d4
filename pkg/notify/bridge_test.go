package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nghiaquy1991/PAN/pkg/join"
	"github.com/nghiaquy1991/PAN/pkg/mac"
)

type message struct {
	topic   Topic
	payload []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	msgs   []message
	err    error
	closed bool
}

func (f *fakePublisher) Publish(t Topic, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, message{topic: t, payload: payload})
	return f.err
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePublisher) messages() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.msgs...)
}

var (
	nodeExt   = mac.ExtAddr{0x00, 0x12, 0x4b, 0x00, 0x00, 0x00, 0x00, 0x01}
	parentExt = mac.ExtAddr{0x00, 0x12, 0x4b, 0x00, 0x00, 0x00, 0x00, 0xc0}
	fixedNow  = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
)

func newTestBridge(pubs ...Publisher) *Bridge {
	return NewBridge(BridgeConfig{Node: "node-1", Now: func() time.Time { return fixedNow }}, pubs...)
}

func runBridge(t *testing.T, b *Bridge) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = b.Run(ctx)
		close(done)
	}()
	return func() {
		stop()
		<-done
	}
}

func TestBridgePublishesEvents(t *testing.T) {
	a, b := &fakePublisher{}, &fakePublisher{}
	bridge := newTestBridge(a, b)
	stop := runBridge(t, bridge)

	dev := join.DeviceDescriptor{PANID: 0x1234, ShortAddr: 0x0042, ExtAddr: nodeExt}
	parent := join.ParentInfo{Device: join.DeviceDescriptor{PANID: 0x1234, ExtAddr: parentExt}, Channel: 11}
	bridge.StateChanged(join.StateJoining)
	bridge.Joined(dev, parent)
	bridge.Disassociated(join.Disassociation{Addr: parentExt, Reason: mac.DisassociateReasonCoord})

	require.Eventually(t, func() bool { return len(b.messages()) == 3 }, time.Second, 5*time.Millisecond)
	stop()

	msgs := a.messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, Topic{Node: "node-1", Event: EventState}, msgs[0].topic)
	assert.Equal(t, Topic{Node: "node-1", Event: EventJoined}, msgs[1].topic)
	assert.Equal(t, Topic{Node: "node-1", Event: EventDisassociated}, msgs[2].topic)

	var ev Event
	require.NoError(t, json.Unmarshal(msgs[1].payload, &ev))
	assert.Equal(t, EventJoined, ev.Type)
	assert.Equal(t, "node-1", ev.Node)
	assert.True(t, ev.Timestamp.Equal(fixedNow))
	require.NotNil(t, ev.Device)
	require.NotNil(t, ev.Parent)
	assert.Equal(t, dev, *ev.Device)
	assert.Equal(t, parent, *ev.Parent)

	require.NoError(t, json.Unmarshal(msgs[0].payload, &ev))
	assert.Equal(t, join.StateJoining.String(), ev.State)

	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestBridgeDropsWhenFull(t *testing.T) {
	pub := &fakePublisher{}
	bridge := NewBridge(BridgeConfig{Node: "n", QueueSize: 2}, pub)

	for i := 0; i < 5; i++ {
		bridge.StateChanged(join.StateJoining)
	}
	assert.Equal(t, uint64(3), bridge.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bridge.Run(ctx), context.Canceled)
	assert.Len(t, pub.messages(), 2)
}

func TestBridgeKeepsGoingOnPublishError(t *testing.T) {
	failing := &fakePublisher{err: errors.New("broker down")}
	ok := &fakePublisher{}
	bridge := newTestBridge(failing, ok)
	stop := runBridge(t, bridge)

	bridge.StateChanged(join.StateJoined)
	bridge.StateChanged(join.StateInitWaiting)

	require.Eventually(t, func() bool { return len(ok.messages()) == 2 }, time.Second, 5*time.Millisecond)
	stop()
	assert.Len(t, failing.messages(), 2)
}

func TestTopicNames(t *testing.T) {
	m := &MQTTPublisher{cfg: MQTTConfig{TopicPrefix: "site"}}
	assert.Equal(t, "site/node-1/joined", m.TopicName(Topic{Node: "node-1", Event: EventJoined}))

	n := &NATSPublisher{prefix: "pan"}
	assert.Equal(t, "pan.node-1.state", n.Subject(Topic{Node: "node-1", Event: EventState}))
}

func TestBuildClientOptions(t *testing.T) {
	opts := buildClientOptions(MQTTConfig{
		Broker:      "tcp://localhost:1883",
		ClientID:    "sensor-7",
		Username:    "user",
		Password:    "secret",
		TopicPrefix: "pan",
	})

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "localhost:1883", opts.Servers[0].Host)
	assert.Equal(t, "sensor-7", opts.ClientID)
	assert.Equal(t, "user", opts.Username)
	assert.True(t, opts.AutoReconnect)
	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "pan/sensor-7/status", opts.WillTopic)
	assert.True(t, opts.WillRetained)
}

func TestDialErrors(t *testing.T) {
	_, err := DialMQTT(MQTTConfig{Broker: "tcp://localhost:1883", QoS: 3})
	assert.ErrorIs(t, err, ErrInvalidQoS)

	_, err = DialNATS(NATSConfig{URL: "nats://127.0.0.1:1"})
	assert.Error(t, err)
}
