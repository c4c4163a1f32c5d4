package join

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nghiaquy1991/PAN/pkg/mac"
	"github.com/nghiaquy1991/PAN/pkg/timer"
)

var errNoAttr = errors.New("attribute not set")

// fakeMAC records every request and PIB write.
type fakeMAC struct {
	mu sync.Mutex

	bools   map[mac.Attribute]bool
	uint8s  map[mac.Attribute]uint8
	uint16s map[mac.Attribute]uint16
	uint32s map[mac.Attribute]uint32
	arrays  map[mac.Attribute][]byte

	scans     []mac.ScanRequest
	assocs    []mac.AssociateRequest
	disassocs []mac.DisassociateRequest
	polls     []mac.PollRequest
	syncs     []mac.SyncRequest
	asyncs    []mac.AsyncRequest
	data      []mac.DataRequest
	fhStarts  int
	keys      []mac.KeyInit
	devices   []mac.SecurityDevice
	levels    []mac.SecurityLevelEntry

	random []uint8

	scanErr  error
	assocErr error
}

func newFakeMAC(ext mac.ExtAddr) *fakeMAC {
	f := &fakeMAC{
		bools:   make(map[mac.Attribute]bool),
		uint8s:  make(map[mac.Attribute]uint8),
		uint16s: make(map[mac.Attribute]uint16),
		uint32s: make(map[mac.Attribute]uint32),
		arrays:  make(map[mac.Attribute][]byte),
	}
	f.arrays[mac.AttrExtendedAddress] = append([]byte(nil), ext[:]...)
	return f
}

func (f *fakeMAC) SetBool(a mac.Attribute, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bools[a] = v
	return nil
}

func (f *fakeMAC) SetUint8(a mac.Attribute, v uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uint8s[a] = v
	return nil
}

func (f *fakeMAC) SetUint16(a mac.Attribute, v uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uint16s[a] = v
	return nil
}

func (f *fakeMAC) SetUint32(a mac.Attribute, v uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uint32s[a] = v
	return nil
}

func (f *fakeMAC) SetArray(a mac.Attribute, v []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.arrays[a] = append([]byte(nil), v...)
	return nil
}

func (f *fakeMAC) GetBool(a mac.Attribute) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.bools[a]
	if !ok {
		return false, errNoAttr
	}
	return v, nil
}

func (f *fakeMAC) GetUint8(a mac.Attribute) (uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.uint8s[a]
	if !ok {
		return 0, errNoAttr
	}
	return v, nil
}

func (f *fakeMAC) GetUint16(a mac.Attribute) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.uint16s[a]
	if !ok {
		return 0, errNoAttr
	}
	return v, nil
}

func (f *fakeMAC) GetUint32(a mac.Attribute) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.uint32s[a]
	if !ok {
		return 0, errNoAttr
	}
	return v, nil
}

func (f *fakeMAC) GetArray(a mac.Attribute) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.arrays[a]
	if !ok {
		return nil, errNoAttr
	}
	return append([]byte(nil), v...), nil
}

func (f *fakeMAC) Scan(req mac.ScanRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return f.scanErr
	}
	f.scans = append(f.scans, req)
	return nil
}

func (f *fakeMAC) Associate(req mac.AssociateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assocErr != nil {
		return f.assocErr
	}
	f.assocs = append(f.assocs, req)
	return nil
}

func (f *fakeMAC) Disassociate(req mac.DisassociateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disassocs = append(f.disassocs, req)
	return nil
}

func (f *fakeMAC) Poll(req mac.PollRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls = append(f.polls, req)
	return nil
}

func (f *fakeMAC) Sync(req mac.SyncRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs = append(f.syncs, req)
	return nil
}

func (f *fakeMAC) WSAsync(req mac.AsyncRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asyncs = append(f.asyncs, req)
	return nil
}

func (f *fakeMAC) Data(req mac.DataRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = append(f.data, req)
	return nil
}

func (f *fakeMAC) StartFH() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fhStarts++
	return nil
}

func (f *fakeMAC) AddKeyInitFrameCounter(k mac.KeyInit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, k)
	return nil
}

func (f *fakeMAC) AddDevice(d mac.SecurityDevice) mac.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = append(f.devices, d)
	return mac.StatusSuccess
}

func (f *fakeMAC) SetSecurityLevelEntry(e mac.SecurityLevelEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels = append(f.levels, e)
	return nil
}

// RandomByte returns the scripted bytes in order, then zeros.
func (f *fakeMAC) RandomByte() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.random) == 0 {
		return 0
	}
	b := f.random[0]
	f.random = f.random[1:]
	return b
}

var _ mac.Service = (*fakeMAC)(nil)

// mockApp is a testify mock of Application.
type mockApp struct {
	mock.Mock
}

func (m *mockApp) Joined(dev DeviceDescriptor, parent ParentInfo) {
	m.Called(dev, parent)
}

func (m *mockApp) Disassociated(d Disassociation) {
	m.Called(d)
}

func (m *mockApp) StateChanged(s JoinState) {
	m.Called(s)
}

// recordingSink counts forwarded callbacks.
type recordingSink struct {
	mac.NopSink
	mu     sync.Mutex
	async  []mac.AsyncIndication
	scans  int
	beacon int
}

func (r *recordingSink) WSAsyncIndication(ind mac.AsyncIndication) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.async = append(r.async, ind)
}

func (r *recordingSink) ScanConfirm(mac.ScanConfirm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans++
}

func (r *recordingSink) BeaconNotify(mac.BeaconNotifyIndication) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beacon++
}

type blacklistFunc func(mac.Addr) bool

func (f blacklistFunc) Contains(a mac.Addr) bool { return f(a) }

var (
	devExt   = mac.ExtAddr{0x00, 0x12, 0x4b, 0x00, 0x00, 0x00, 0x00, 0x01}
	coordExt = mac.ExtAddr{0x00, 0x12, 0x4b, 0x00, 0x00, 0x00, 0x00, 0xc0}
	otherExt = mac.ExtAddr{0x00, 0x12, 0x4b, 0x00, 0x00, 0x00, 0x00, 0xc1}
	epoch    = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

// harness wires a controller to a fake MAC and a manual clock.
type harness struct {
	ctrl   *Controller
	mac    *fakeMAC
	timers *timer.Manual
	app    *mockApp
}

func newHarness(t *testing.T, cfg Config, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		mac:    newFakeMAC(devExt),
		timers: timer.NewManual(epoch),
		app:    &mockApp{},
	}
	h.app.On("StateChanged", mock.Anything).Maybe()

	opts = append([]Option{WithApplication(h.app), WithClock(h.timers.Now)}, opts...)
	ctrl, err := New(cfg, h.mac, h.timers, opts...)
	require.NoError(t, err)
	h.timers.OnFire(ctrl.TimerFired)
	h.ctrl = ctrl
	return h
}

// advance moves virtual time and handles whatever fired.
func (h *harness) advance(d time.Duration) {
	h.timers.Advance(d)
	h.ctrl.Process()
}

func classicConfig() Config {
	cfg := DefaultConfig()
	cfg.Security.Enabled = false
	return cfg
}

func fhConfig() Config {
	cfg := DefaultConfig()
	cfg.RxOnWhenIdle = true
	cfg.Security.Enabled = false
	cfg.FH.Enabled = true
	cfg.FH.ChannelMask = mac.MaskOf(0, 1, 2, 3, 4, 5, 6, 7)
	return cfg
}

func beacon(pan uint16, short uint16, ch uint8, bo uint8, permit bool) mac.BeaconNotifyIndication {
	return mac.BeaconNotifyIndication{
		Type: mac.BeaconTypeNormal,
		PANDesc: mac.PANDescriptor{
			CoordAddr:      mac.ShortAddr(short),
			CoordPANID:     pan,
			Superframe:     mac.NewSuperframeSpec(bo, bo, true, permit),
			LogicalChannel: ch,
		},
	}
}

func asyncFrame(t *testing.T, frame mac.FHFrameType, src mac.ExtAddr, pan uint16, ies mac.WisunIEs) mac.AsyncIndication {
	t.Helper()
	payload, err := mac.AppendWisun(nil, ies)
	require.NoError(t, err)
	return mac.AsyncIndication{
		SrcAddr:   mac.ExtendedAddr(src),
		SrcPANID:  pan,
		Frame:     frame,
		PayloadIE: payload,
	}
}

func netName(name string) mac.WisunIEs {
	return mac.WisunIEs{NetName: []byte(name), HasNetName: true}
}
