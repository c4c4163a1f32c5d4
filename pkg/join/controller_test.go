package join

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nghiaquy1991/PAN/pkg/log"
	"github.com/nghiaquy1991/PAN/pkg/mac"
	"github.com/nghiaquy1991/PAN/pkg/neighbor"
	"github.com/nghiaquy1991/PAN/pkg/timer"
)

func TestNewRequiresServices(t *testing.T) {
	_, err := New(classicConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrNoMAC)

	_, err = New(classicConfig(), newFakeMAC(devExt), nil)
	assert.ErrorIs(t, err, ErrNoTimers)

	cfg := classicConfig()
	cfg.PollInterval = 0
	_, err = New(cfg, newFakeMAC(devExt), &noTimers{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

type noTimers struct{}

func (noTimers) Arm(timer.ID, time.Duration) {}

func TestInitDefaults(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.ctrl.Init()

	info := h.ctrl.DeviceInfo()
	assert.Equal(t, StateInitWaiting, info.State)
	assert.Equal(t, ScanActive, info.ScanState)
	assert.Equal(t, DefaultPANID, info.PANID)
	assert.Equal(t, devExt, info.DevExtAddr)
	assert.False(t, info.ParentFound)

	assert.Equal(t, DefaultPhyID, h.mac.uint8s[mac.AttrPhyCurrentDescriptorID])
	assert.True(t, h.mac.bools[mac.AttrRxOnWhenIdle])
	assert.Zero(t, h.mac.fhStarts)
}

func TestInitBeaconModeScansPassive(t *testing.T) {
	cfg := classicConfig()
	cfg.BeaconOrder = 8
	cfg.SuperframeOrder = 8
	h := newHarness(t, cfg)
	h.ctrl.Init()

	assert.Equal(t, ScanPassive, h.ctrl.ScanState())
}

// Sleepy node on a non-beacon classic network: scan, associate, poll.
func TestClassicJoin(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.ctrl.Init()
	h.ctrl.Join()
	h.ctrl.Process()

	require.Len(t, h.mac.scans, 1)
	assert.Equal(t, mac.ScanTypeActive, h.mac.scans[0].Type)
	assert.Equal(t, StateJoining, h.ctrl.State())
	assert.True(t, h.timers.Active(TimerScanBackoff))

	h.ctrl.BeaconNotify(beacon(0x1234, 0x0000, 2, 15, true))
	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusSuccess, Type: mac.ScanTypeActive})
	h.ctrl.Process()

	require.Len(t, h.mac.assocs, 1)
	req := h.mac.assocs[0]
	assert.Equal(t, mac.ShortAddr(0x0000), req.CoordAddr)
	assert.Equal(t, uint16(0x1234), req.CoordPANID)
	assert.Equal(t, uint8(2), req.LogicalChannel)
	assert.True(t, req.Capability.AllocAddr)
	assert.False(t, req.Capability.RxOnWhenIdle)

	wantDev := DeviceDescriptor{PANID: 0x1234, ShortAddr: 0x0001, ExtAddr: devExt}
	wantParent := ParentInfo{
		Device:  DeviceDescriptor{PANID: 0x1234, ShortAddr: 0x0000, ExtAddr: coordExt},
		Channel: 2,
	}
	h.app.On("Joined", wantDev, wantParent).Once()
	h.mac.arrays[mac.AttrCoordExtendedAddress] = coordExt[:]

	h.ctrl.AssociateConfirm(mac.AssociateConfirm{Status: mac.StatusSuccess, ShortAddr: 0x0001})
	h.ctrl.Process()

	h.app.AssertExpectations(t)
	h.app.AssertCalled(t, "StateChanged", StateJoining)
	h.app.AssertCalled(t, "StateChanged", StateJoined)
	assert.Equal(t, StateJoined, h.ctrl.State())
	assert.Equal(t, uint16(0x0001), h.mac.uint16s[mac.AttrShortAddress])
	assert.False(t, h.mac.bools[mac.AttrRxOnWhenIdle])
	assert.False(t, h.timers.Active(TimerScanBackoff))

	require.Len(t, h.mac.polls, 1)
	assert.Equal(t, mac.ShortAddr(0x0000), h.mac.polls[0].CoordAddr)
	arm, ok := h.timers.LastArm(TimerPoll)
	require.True(t, ok)
	assert.Equal(t, DefaultPollInterval, arm.Duration)

	stats := h.ctrl.Stats()
	assert.Equal(t, uint32(1), stats.JoinAttempts)
	assert.Equal(t, uint32(1), stats.PollRequests)
}

func TestBeaconFiltering(t *testing.T) {
	tests := []struct {
		name   string
		ind    mac.BeaconNotifyIndication
		accept bool
	}{
		{"permit and non-beacon", beacon(0x1234, 1, 3, 15, true), true},
		{"no association permit", beacon(0x1234, 1, 3, 15, false), false},
		{"beacon-enabled network", beacon(0x1234, 1, 3, 6, true), false},
		{"enhanced beacon", mac.BeaconNotifyIndication{Type: mac.BeaconTypeEnhanced, PANDesc: beacon(0x1234, 1, 3, 15, true).PANDesc}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, classicConfig())
			h.ctrl.Init()
			h.ctrl.BeaconNotify(tt.ind)
			h.ctrl.Process()
			assert.Equal(t, tt.accept, h.ctrl.DeviceInfo().ParentFound)
		})
	}
}

func TestBeaconBlacklisted(t *testing.T) {
	bl := blacklistFunc(func(a mac.Addr) bool { return a.Equal(mac.ShortAddr(0x0007)) })
	h := newHarness(t, classicConfig(), WithBlacklist(bl))
	h.ctrl.Init()

	h.ctrl.BeaconNotify(beacon(0x1234, 0x0007, 3, 15, true))
	h.ctrl.Process()
	assert.False(t, h.ctrl.DeviceInfo().ParentFound)
	assert.Equal(t, uint32(1), h.ctrl.Stats().BlacklistedBeacons)

	h.ctrl.BeaconNotify(beacon(0x1234, 0x0008, 4, 15, true))
	h.ctrl.Process()
	info := h.ctrl.DeviceInfo()
	assert.True(t, info.ParentFound)
	assert.Equal(t, uint16(0x0008), info.CoordShortAddr)
}

func TestBeaconRefinementKeepsParent(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.ctrl.Init()

	h.ctrl.BeaconNotify(beacon(0x1234, 0x0001, 3, 15, true))
	h.ctrl.BeaconNotify(beacon(0x1234, 0x0002, 5, 15, true))
	h.ctrl.BeaconNotify(beacon(0x4321, 0x0003, 6, 15, true))
	h.ctrl.Process()

	info := h.ctrl.DeviceInfo()
	assert.Equal(t, uint16(0x1234), info.PANID)
	assert.Equal(t, uint16(0x0001), info.CoordShortAddr)
	assert.Equal(t, uint8(3), info.Channel)

	h.ctrl.BeaconNotify(beacon(0x1234, 0x0001, 9, 15, true))
	h.ctrl.Process()
	assert.Equal(t, uint8(9), h.ctrl.DeviceInfo().Channel)
}

func TestBeaconRefinementExtendedAddress(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.ctrl.Init()

	first := beacon(0x1234, 0, 2, 15, true)
	first.PANDesc.CoordAddr = mac.ExtendedAddr(coordExt)
	second := beacon(0x1234, 0, 7, 15, true)
	second.PANDesc.CoordAddr = mac.ExtendedAddr(otherExt)

	h.ctrl.BeaconNotify(first)
	h.ctrl.BeaconNotify(second)
	h.ctrl.Process()

	info := h.ctrl.DeviceInfo()
	assert.Equal(t, coordExt, info.CoordExtAddr)
	assert.Equal(t, uint8(2), info.Channel)

	// A short-address beacon cannot match an extended-address parent.
	h.ctrl.BeaconNotify(beacon(0x1234, 0x0000, 9, 15, true))
	h.ctrl.Process()
	assert.Equal(t, uint8(2), h.ctrl.DeviceInfo().Channel)

	first.PANDesc.LogicalChannel = 4
	h.ctrl.BeaconNotify(first)
	h.ctrl.Process()
	info = h.ctrl.DeviceInfo()
	assert.Equal(t, coordExt, info.CoordExtAddr)
	assert.Equal(t, uint8(4), info.Channel)
}

func TestBeaconModeAdoptsOrders(t *testing.T) {
	cfg := classicConfig()
	cfg.BeaconOrder = 8
	cfg.SuperframeOrder = 8
	h := newHarness(t, cfg)
	h.ctrl.Init()
	h.ctrl.Join()
	h.ctrl.Process()
	require.Len(t, h.mac.scans, 1)
	assert.Equal(t, mac.ScanTypePassive, h.mac.scans[0].Type)

	h.ctrl.BeaconNotify(beacon(0x1234, 0x0000, 4, 6, true))
	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusSuccess, Type: mac.ScanTypePassive})
	h.ctrl.Process()

	assert.Equal(t, uint8(6), h.mac.uint8s[mac.AttrBeaconOrder])
	assert.Equal(t, uint8(6), h.mac.uint8s[mac.AttrSuperframeOrder])
	assert.Equal(t, uint16(0x1234), h.mac.uint16s[mac.AttrPANID])
	require.Len(t, h.mac.syncs, 1)
	assert.Equal(t, uint8(4), h.mac.syncs[0].LogicalChannel)
	assert.True(t, h.mac.syncs[0].TrackBeacon)
	require.Len(t, h.mac.assocs, 1)
	assert.Equal(t, uint8(4), h.mac.assocs[0].LogicalChannel)
}

func TestScanFailureRescans(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.ctrl.Init()
	h.ctrl.Join()
	h.ctrl.Process()

	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusNoBeacon, Type: mac.ScanTypeActive})
	h.ctrl.Process()
	require.Len(t, h.mac.scans, 2)
	assert.Equal(t, mac.ScanTypeActive, h.mac.scans[1].Type)
}

func TestScanBackoffToggles(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.ctrl.Init()
	h.ctrl.Join()
	h.ctrl.Process()

	h.advance(DefaultScanBackoffInterval)
	assert.Equal(t, ScanBackoff, h.ctrl.ScanState())

	// A scan ending during backoff does not start another one.
	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusNoBeacon, Type: mac.ScanTypeActive})
	h.ctrl.Process()
	assert.Len(t, h.mac.scans, 1)

	h.advance(DefaultScanBackoffInterval)
	assert.Equal(t, ScanActive, h.ctrl.ScanState())
	assert.Len(t, h.mac.scans, 2)
	assert.True(t, h.timers.Active(TimerScanBackoff))
}

func TestRejectedRequestKeepsState(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.mac.scanErr = mac.StatusError("scan", mac.StatusNoResources)
	h.ctrl.Init()
	h.ctrl.Join()
	h.ctrl.Process()

	assert.Equal(t, StateJoining, h.ctrl.State())
	assert.Equal(t, uint32(1), h.ctrl.Stats().RejectedRequests)
}

// joinedClassic drives a sleepy classic node to JOINED.
func joinedClassic(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := newHarness(t, classicConfig(), opts...)
	h.app.On("Joined", mock.Anything, mock.Anything).Maybe()
	h.app.On("Disassociated", mock.Anything).Maybe()
	h.mac.arrays[mac.AttrCoordExtendedAddress] = coordExt[:]
	h.mac.uint16s[mac.AttrPANID] = 0x1234

	h.ctrl.Init()
	h.ctrl.Join()
	h.ctrl.BeaconNotify(beacon(0x1234, 0x0000, 2, 15, true))
	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusSuccess, Type: mac.ScanTypeActive})
	h.ctrl.Process()
	h.ctrl.AssociateConfirm(mac.AssociateConfirm{Status: mac.StatusSuccess, ShortAddr: 0x0001})
	h.ctrl.Process()
	require.Equal(t, StateJoined, h.ctrl.State())
	return h
}

func TestDataFailuresOrphanNode(t *testing.T) {
	h := joinedClassic(t)
	scans := len(h.mac.scans)

	h.ctrl.PollConfirm(mac.PollConfirm{Status: mac.StatusNoAck})
	h.ctrl.Process()
	arm, _ := h.timers.LastArm(TimerPoll)
	assert.Equal(t, PollRetryInterval, arm.Duration)
	assert.Equal(t, uint8(1), h.ctrl.DeviceInfo().DataFailures)

	h.ctrl.PollConfirm(mac.PollConfirm{Status: mac.StatusNoAck})
	h.ctrl.PollConfirm(mac.PollConfirm{Status: mac.StatusNoAck})
	h.ctrl.Process()

	info := h.ctrl.DeviceInfo()
	assert.Equal(t, StateOrphan, info.State)
	assert.Equal(t, ScanOrphan, info.ScanState)
	assert.Zero(t, info.DataFailures)
	assert.False(t, h.timers.Active(TimerPoll))
	assert.True(t, h.mac.bools[mac.AttrRxOnWhenIdle])
	require.Len(t, h.mac.scans, scans+1)
	assert.Equal(t, mac.ScanTypeOrphan, h.mac.scans[scans].Type)
	assert.Equal(t, uint32(3), h.ctrl.Stats().DataFailures)
	h.app.AssertCalled(t, "StateChanged", StateOrphan)

	// Coordinator realignment on the same PAN restores the previous state.
	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusSuccess, Type: mac.ScanTypeOrphan})
	h.ctrl.Process()
	assert.Equal(t, StateJoined, h.ctrl.State())
	arm, _ = h.timers.LastArm(TimerPoll)
	assert.Equal(t, DefaultPollInterval, arm.Duration)
	assert.False(t, h.mac.bools[mac.AttrRxOnWhenIdle])
}

func TestDataFailureCountResetsOnSuccess(t *testing.T) {
	h := joinedClassic(t)

	h.ctrl.PollConfirm(mac.PollConfirm{Status: mac.StatusNoAck})
	h.ctrl.DataConfirm(mac.DataConfirm{Status: mac.StatusNoAck})
	h.ctrl.PollConfirm(mac.PollConfirm{Status: mac.StatusNoData})
	h.ctrl.Process()
	assert.Zero(t, h.ctrl.DeviceInfo().DataFailures)

	h.ctrl.DataConfirm(mac.DataConfirm{Status: mac.StatusNoAck})
	h.ctrl.PollConfirm(mac.PollConfirm{Status: mac.StatusNoAck})
	h.ctrl.Process()
	assert.Equal(t, StateJoined, h.ctrl.State())
	assert.Equal(t, uint8(2), h.ctrl.DeviceInfo().DataFailures)

	h.ctrl.DataConfirm(mac.DataConfirm{Status: mac.StatusSuccess})
	h.ctrl.Process()
	assert.Zero(t, h.ctrl.DeviceInfo().DataFailures)
}

func TestDataNoAckCountedBeforeJoin(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.ctrl.Init()
	require.Equal(t, StateInitWaiting, h.ctrl.State())

	h.ctrl.DataConfirm(mac.DataConfirm{Status: mac.StatusNoAck})
	h.ctrl.Process()
	assert.Equal(t, uint8(1), h.ctrl.DeviceInfo().DataFailures)
	assert.Equal(t, uint32(1), h.ctrl.Stats().DataFailures)

	h.ctrl.DataConfirm(mac.DataConfirm{Status: mac.StatusSuccess})
	h.ctrl.Process()
	assert.Zero(t, h.ctrl.DeviceInfo().DataFailures)
}

func TestChannelAccessFailureNotCounted(t *testing.T) {
	h := joinedClassic(t)

	for i := 0; i < 5; i++ {
		h.ctrl.PollConfirm(mac.PollConfirm{Status: mac.StatusChannelAccessFailure})
	}
	h.ctrl.Process()

	assert.Equal(t, StateJoined, h.ctrl.State())
	assert.Zero(t, h.ctrl.DeviceInfo().DataFailures)
	arm, _ := h.timers.LastArm(TimerPoll)
	assert.Equal(t, PollRetryInterval, arm.Duration)
}

func TestRealignOnOtherPANStaysOrphan(t *testing.T) {
	h := joinedClassic(t)
	h.ctrl.SyncLossIndication(mac.SyncLossIndication{Reason: mac.StatusBeaconLoss})
	h.ctrl.Process()
	require.Equal(t, StateOrphan, h.ctrl.State())
	assert.Equal(t, uint32(1), h.ctrl.Stats().SyncLossIndications)

	h.mac.uint16s[mac.AttrPANID] = 0x9999
	scans := len(h.mac.scans)
	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusSuccess, Type: mac.ScanTypeOrphan})
	h.ctrl.Process()

	assert.Equal(t, StateOrphan, h.ctrl.State())
	require.Len(t, h.mac.scans, scans+1)
	assert.Equal(t, mac.ScanTypeOrphan, h.mac.scans[scans].Type)
}

func TestOrphanScanNoBeaconRetries(t *testing.T) {
	h := joinedClassic(t)
	h.ctrl.SyncLossIndication(mac.SyncLossIndication{Reason: mac.StatusBeaconLoss})
	h.ctrl.Process()
	scans := len(h.mac.scans)

	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusNoBeacon, Type: mac.ScanTypeOrphan})
	h.ctrl.Process()
	assert.Equal(t, StateOrphan, h.ctrl.State())
	assert.Len(t, h.mac.scans, scans+1)
}

func TestPollIntervalChange(t *testing.T) {
	h := joinedClassic(t)
	h.ctrl.SetPollRate(2 * time.Second)

	h.advance(DefaultPollInterval)
	arm, _ := h.timers.LastArm(TimerPoll)
	assert.Equal(t, 2*time.Second, arm.Duration)
	assert.Len(t, h.mac.polls, 2)
}

func TestDisassociationRequest(t *testing.T) {
	h := joinedClassic(t)

	h.ctrl.SendDisassociationRequest()
	require.Len(t, h.mac.disassocs, 1)
	req := h.mac.disassocs[0]
	assert.Equal(t, mac.ShortAddr(0x0000), req.DeviceAddr)
	assert.Equal(t, mac.DisassociateReasonDevice, req.Reason)
	assert.False(t, req.TxIndirect)

	h.ctrl.DisassociateConfirm(mac.DisassociateConfirm{Status: mac.StatusSuccess, DeviceAddr: mac.ShortAddr(0)})
	h.ctrl.Process()

	assert.Equal(t, StateInitWaiting, h.ctrl.State())
	assert.False(t, h.ctrl.DeviceInfo().ParentFound)
	assert.False(t, h.timers.Active(TimerPoll))
	h.app.AssertCalled(t, "Disassociated", Disassociation{Addr: coordExt, Requested: true, Status: mac.StatusSuccess})
}

func TestDisassociateIndication(t *testing.T) {
	h := joinedClassic(t)

	h.ctrl.DisassociateIndication(mac.DisassociateIndication{DeviceAddr: coordExt, Reason: mac.DisassociateReasonCoord})
	h.ctrl.Process()

	assert.Equal(t, StateInitWaiting, h.ctrl.State())
	h.app.AssertCalled(t, "Disassociated", Disassociation{Addr: coordExt, Reason: mac.DisassociateReasonCoord})
}

func TestRejoinSleepyClassic(t *testing.T) {
	h := newHarness(t, classicConfig())
	dev := DeviceDescriptor{PANID: 0x1234, ShortAddr: 0x0005, ExtAddr: devExt}
	parent := ParentInfo{Device: DeviceDescriptor{PANID: 0x1234, ShortAddr: 0x0000, ExtAddr: coordExt}, Channel: 7}
	h.app.On("Joined", dev, parent).Once()

	h.ctrl.Init()
	h.ctrl.Rejoin(dev, parent)
	h.ctrl.Process()

	assert.Equal(t, StateInitRestoring, h.ctrl.State())
	assert.Equal(t, uint16(0x1234), h.mac.uint16s[mac.AttrPANID])
	assert.Equal(t, uint16(0x0005), h.mac.uint16s[mac.AttrShortAddress])
	assert.Equal(t, uint8(7), h.mac.uint8s[mac.AttrLogicalChannel])
	require.Len(t, h.mac.polls, 1)
	assert.False(t, h.timers.Active(TimerPoll))

	h.ctrl.PollConfirm(mac.PollConfirm{Status: mac.StatusNoData})
	h.ctrl.Process()

	h.app.AssertExpectations(t)
	assert.Equal(t, StateRejoined, h.ctrl.State())
	assert.Len(t, h.mac.polls, 2)
	assert.True(t, h.timers.Active(TimerPoll))
}

func TestRejoinBeaconMode(t *testing.T) {
	cfg := classicConfig()
	cfg.BeaconOrder = 8
	cfg.SuperframeOrder = 8
	cfg.RxOnWhenIdle = true
	h := newHarness(t, cfg)
	h.app.On("Joined", mock.Anything, mock.Anything).Once()

	h.ctrl.Init()
	h.ctrl.Rejoin(DeviceDescriptor{PANID: 0x1234, ShortAddr: 5, ExtAddr: devExt},
		ParentInfo{Device: DeviceDescriptor{PANID: 0x1234, ExtAddr: coordExt}, Channel: 3})
	h.ctrl.Process()

	h.app.AssertExpectations(t)
	assert.Equal(t, StateRejoined, h.ctrl.State())
	require.Len(t, h.mac.syncs, 1)
	assert.Equal(t, uint8(3), h.mac.syncs[0].LogicalChannel)
	assert.Empty(t, h.mac.assocs)
}

func TestAssociationAfterOrphanFromRejoinedKeepsRejoined(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.app.On("Joined", mock.Anything, mock.Anything)
	h.ctrl.Init()
	h.ctrl.Rejoin(DeviceDescriptor{PANID: 0x1234, ShortAddr: 5, ExtAddr: devExt},
		ParentInfo{Device: DeviceDescriptor{PANID: 0x1234, ExtAddr: coordExt}, Channel: 3})
	h.ctrl.PollConfirm(mac.PollConfirm{Status: mac.StatusSuccess})
	h.ctrl.Process()
	require.Equal(t, StateRejoined, h.ctrl.State())

	h.ctrl.SyncLossIndication(mac.SyncLossIndication{Reason: mac.StatusBeaconLoss})
	h.ctrl.Process()
	require.Equal(t, StateOrphan, h.ctrl.State())

	h.ctrl.AssociateConfirm(mac.AssociateConfirm{Status: mac.StatusSuccess, ShortAddr: 5})
	h.ctrl.Process()
	assert.Equal(t, StateRejoined, h.ctrl.State())
}

func TestForwardsToNextSink(t *testing.T) {
	next := &recordingSink{}
	h := newHarness(t, classicConfig(), WithNext(next))
	h.ctrl.Init()

	h.ctrl.BeaconNotify(beacon(0x1234, 1, 3, 15, true))
	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusNoBeacon, Type: mac.ScanTypeActive})
	h.ctrl.Process()

	assert.Equal(t, 1, next.beacon)
	assert.Equal(t, 1, next.scans)
}

func TestTraceRecordsActivity(t *testing.T) {
	var mu sync.Mutex
	var events []log.Event
	rec := log.LoggerFunc(func(e log.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	h := newHarness(t, classicConfig(), WithTrace(rec, "session-1"))
	h.ctrl.Init()
	h.ctrl.Join()
	h.ctrl.Process()
	h.advance(DefaultScanBackoffInterval)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)

	var sawScan, sawFired, sawState bool
	for _, e := range events {
		assert.Equal(t, "session-1", e.SessionID)
		assert.Equal(t, log.ModeClassic, e.Mode)
		assert.False(t, e.Timestamp.After(epoch.Add(DefaultScanBackoffInterval)))
		switch {
		case e.Primitive != nil && e.Primitive.Name == "SCAN" && e.Primitive.Kind == log.PrimitiveRequest:
			sawScan = true
		case e.Timer != nil && e.Timer.Action == log.TimerFired && e.Timer.Name == "SCAN_BACKOFF":
			sawFired = true
		case e.StateChange != nil && e.StateChange.NewState == "JOINING":
			sawState = true
		}
	}
	assert.True(t, sawScan)
	assert.True(t, sawFired)
	assert.True(t, sawState)
}

func TestRunProcessesPostedWork(t *testing.T) {
	h := newHarness(t, classicConfig())
	h.ctrl.Init()
	h.ctrl.Join()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()

	require.Eventually(t, func() bool {
		h.mac.mu.Lock()
		defer h.mac.mu.Unlock()
		return len(h.mac.scans) == 1
	}, time.Second, 5*time.Millisecond)

	h.ctrl.ScanConfirm(mac.ScanConfirm{Status: mac.StatusNoBeacon, Type: mac.ScanTypeActive})
	require.Eventually(t, func() bool {
		h.mac.mu.Lock()
		defer h.mac.mu.Unlock()
		return len(h.mac.scans) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestDefaultNeighborTable(t *testing.T) {
	h := newHarness(t, classicConfig())
	assert.Equal(t, neighbor.DefaultCapacity, h.ctrl.NeighborTable().Capacity())
	assert.NotEmpty(t, h.ctrl.SessionID())
}
