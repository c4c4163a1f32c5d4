package macsim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// ErrUnknownCoordinator is returned by control methods given an address
// no coordinator has.
var ErrUnknownCoordinator = errors.New("macsim: unknown coordinator")

// Config configures a Sim.
type Config struct {
	// ExtAddr is the simulated node's extended address.
	ExtAddr mac.ExtAddr

	Coordinators []Coordinator

	// ResponseDelay is how long Run waits before delivering each answer.
	ResponseDelay time.Duration

	// Seed seeds RandomByte.
	Seed uint64

	Logger *slog.Logger
}

type delivery struct {
	name string
	fn   func(mac.EventSink)
}

// Sim is a simulated MAC.
type Sim struct {
	mu     sync.Mutex
	cfg    Config
	coords []*Coordinator
	sink   mac.EventSink
	pib    map[mac.Attribute]any
	rng    *rand.Rand

	queue []delivery
	wake  chan struct{}

	fhStarted    bool
	frameCounter uint32
	keys         []mac.KeyInit
	devices      []mac.SecurityDevice
	levels       []mac.SecurityLevelEntry
	requests     map[string]int

	logger *slog.Logger
}

// New creates a simulated MAC.
func New(cfg Config) *Sim {
	s := &Sim{
		cfg:      cfg,
		pib:      make(map[mac.Attribute]any),
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		wake:     make(chan struct{}, 1),
		requests: make(map[string]int),
		sink:     mac.NopSink{},
	}
	for i := range cfg.Coordinators {
		c := cfg.Coordinators[i]
		s.coords = append(s.coords, &c)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s.logger = logger.With("component", "macsim")
	s.pib[mac.AttrExtendedAddress] = append([]byte(nil), cfg.ExtAddr[:]...)
	return s
}

// SetSink registers the receiver of confirms and indications.
func (s *Sim) SetSink(sink mac.EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sink == nil {
		sink = mac.NopSink{}
	}
	s.sink = sink
}

// Requests returns how many requests of the given primitive name were
// accepted, e.g. "SCAN" or "POLL".
func (s *Sim) Requests(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[name]
}

// Pending returns the number of undelivered answers.
func (s *Sim) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Flush delivers every queued answer, including answers queued by the
// sink while flushing, and returns how many were delivered.
func (s *Sim) Flush() int {
	n := 0
	for {
		d, sink, ok := s.pop()
		if !ok {
			return n
		}
		d.fn(sink)
		n++
	}
}

// Run delivers queued answers after the response delay until ctx is done.
func (s *Sim) Run(ctx context.Context) error {
	for {
		d, sink, ok := s.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
			}
			continue
		}
		if s.cfg.ResponseDelay > 0 {
			t := time.NewTimer(s.cfg.ResponseDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		s.logger.Debug("deliver", "primitive", d.name)
		d.fn(sink)
	}
}

func (s *Sim) pop() (delivery, mac.EventSink, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return delivery{}, nil, false
	}
	d := s.queue[0]
	s.queue = s.queue[1:]
	return d, s.sink, true
}

// deliver must be called with mu held.
func (s *Sim) deliver(name string, fn func(mac.EventSink)) {
	s.queue = append(s.queue, delivery{name: name, fn: fn})
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Sim) count(name string) {
	s.requests[name]++
}

// secured advances the outgoing frame counter for a secured frame.
func (s *Sim) secured(sec mac.Security) {
	if sec.Level != mac.SecLevelNone {
		s.frameCounter++
	}
}

// FrameCounter returns the outgoing frame counter. It starts at the value
// given with the last key and advances for every secured request.
func (s *Sim) FrameCounter() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameCounter
}

func (s *Sim) findCoord(addr mac.Addr, pan uint16) *Coordinator {
	for _, c := range s.coords {
		if c.matches(addr, pan) {
			return c
		}
	}
	return nil
}

func (s *Sim) coordByExt(ext mac.ExtAddr) *Coordinator {
	for _, c := range s.coords {
		if c.ExtAddr == ext {
			return c
		}
	}
	return nil
}

// parent returns the coordinator the node is currently a member of.
func (s *Sim) parent() (*Coordinator, uint16) {
	for _, c := range s.coords {
		if short, ok := c.member(s.cfg.ExtAddr); ok {
			return c, short
		}
	}
	return nil, 0
}

func (s *Sim) netName() string {
	v, _ := s.pib[mac.AttrFHNetName].([]byte)
	return string(bytes.TrimRight(v, "\x00"))
}

// Scan answers active, passive and enhanced scans with one beacon per
// classic coordinator on a scanned channel. An orphan scan realigns the
// node to the coordinator it is still a member of.
func (s *Sim) Scan(req mac.ScanRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("SCAN")

	if req.Type == mac.ScanTypeOrphan {
		s.orphanScan(req)
		return nil
	}

	var found uint8
	for _, c := range s.coords {
		if c.FH || !req.Channels.Test(int(c.Channel)) {
			continue
		}
		ind := c.beacon()
		ind.PANDesc.ChannelPage = req.ChannelPage
		found++
		s.deliver("BEACON_NOTIFY", func(sink mac.EventSink) { sink.BeaconNotify(ind) })
	}
	cnf := mac.ScanConfirm{Status: mac.StatusSuccess, Type: req.Type, ChannelPage: req.ChannelPage, PhyID: req.PhyID, ResultCount: found}
	if found == 0 {
		cnf.Status = mac.StatusNoBeacon
	}
	s.deliver("SCAN", func(sink mac.EventSink) { sink.ScanConfirm(cnf) })
	return nil
}

func (s *Sim) orphanScan(req mac.ScanRequest) {
	cnf := mac.ScanConfirm{Status: mac.StatusNoBeacon, Type: mac.ScanTypeOrphan, ChannelPage: req.ChannelPage, PhyID: req.PhyID}
	if c, short := s.parent(); c != nil && !c.FH && req.Channels.Test(int(c.Channel)) {
		s.pib[mac.AttrPANID] = c.PANID
		s.pib[mac.AttrShortAddress] = short
		s.pib[mac.AttrCoordShortAddress] = c.ShortAddr
		s.pib[mac.AttrLogicalChannel] = c.Channel
		cnf.Status = mac.StatusSuccess
		cnf.ResultCount = 1
	}
	s.deliver("SCAN", func(sink mac.EventSink) { sink.ScanConfirm(cnf) })
}

// Associate admits the node when the addressed coordinator permits
// joining.
func (s *Sim) Associate(req mac.AssociateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("ASSOCIATE")
	s.secured(req.Security)

	cnf := mac.AssociateConfirm{Status: mac.StatusNoAck, ShortAddr: mac.BroadcastShortAddr}
	c := s.findCoord(req.CoordAddr, req.CoordPANID)
	switch {
	case c == nil:
	case !c.FH && c.Channel != req.LogicalChannel:
	case !c.PermitJoin:
		cnf.Status = mac.StatusPANAccessDenied
	default:
		short := c.admit(s.cfg.ExtAddr)
		s.pib[mac.AttrCoordExtendedAddress] = append([]byte(nil), c.ExtAddr[:]...)
		s.pib[mac.AttrCoordShortAddress] = c.ShortAddr
		cnf.Status = mac.StatusSuccess
		cnf.ShortAddr = short
	}
	s.deliver("ASSOCIATE", func(sink mac.EventSink) { sink.AssociateConfirm(cnf) })
	return nil
}

// Disassociate removes the node from its parent.
func (s *Sim) Disassociate(req mac.DisassociateRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DISASSOCIATE")

	cnf := mac.DisassociateConfirm{Status: mac.StatusNoAck, DeviceAddr: req.DeviceAddr, DevicePANID: req.DevicePANID}
	if c := s.findCoord(req.DeviceAddr, req.DevicePANID); c != nil {
		c.evict(s.cfg.ExtAddr)
		cnf.Status = mac.StatusSuccess
	}
	s.deliver("DISASSOCIATE", func(sink mac.EventSink) { sink.DisassociateConfirm(cnf) })
	return nil
}

// Poll is acknowledged with no data by the parent, and not acknowledged
// when the node is no longer a member.
func (s *Sim) Poll(req mac.PollRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("POLL")
	s.secured(req.Security)

	cnf := mac.PollConfirm{Status: mac.StatusNoAck}
	if c := s.findCoord(req.CoordAddr, req.CoordPANID); c != nil {
		if _, ok := c.member(s.cfg.ExtAddr); ok {
			cnf.Status = mac.StatusNoData
		}
	}
	s.deliver("POLL", func(sink mac.EventSink) { sink.PollConfirm(cnf) })
	return nil
}

// Sync starts beacon tracking. Loss of sync is injected with LoseSync.
func (s *Sim) Sync(req mac.SyncRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("SYNC")
	s.pib[mac.AttrLogicalChannel] = req.LogicalChannel
	return nil
}

// WSAsync answers PAN advertisement solicits with a PA and PAN
// configuration solicits with a PC from every hopping coordinator on the
// node's network name.
func (s *Sim) WSAsync(req mac.AsyncRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("WS_ASYNC")

	if !s.fhStarted {
		s.deliver("WS_ASYNC", func(sink mac.EventSink) { sink.WSAsyncConfirm(mac.AsyncConfirm{Status: mac.StatusDenied}) })
		return nil
	}
	if req.Operation == mac.AsyncStart {
		name := s.netName()
		for _, c := range s.coords {
			if !c.FH || c.NetName != name {
				continue
			}
			var (
				frame mac.FHFrameType
				ies   mac.WisunIEs
			)
			switch req.Frame {
			case mac.AsyncFramePANAdvertSolicit:
				frame, ies = mac.FHFramePANAdvert, c.panAdvert()
			case mac.AsyncFrameConfigSolicit:
				frame, ies = mac.FHFrameConfig, c.panConfig()
			default:
				continue
			}
			payload, err := mac.AppendWisun(nil, ies)
			if err != nil {
				return fmt.Errorf("macsim: encode %s: %w", frame, err)
			}
			ind := mac.AsyncIndication{
				SrcAddr:      mac.ExtendedAddr(c.ExtAddr),
				SrcShortAddr: c.ShortAddr,
				SrcPANID:     c.PANID,
				Frame:        frame,
				LinkQuality:  c.LinkQuality,
				PayloadIE:    payload,
			}
			s.deliver("WS_ASYNC", func(sink mac.EventSink) { sink.WSAsyncIndication(ind) })
		}
	}
	s.deliver("WS_ASYNC", func(sink mac.EventSink) { sink.WSAsyncConfirm(mac.AsyncConfirm{Status: mac.StatusSuccess}) })
	return nil
}

// Data is acknowledged while the node is a member of the addressed
// coordinator.
func (s *Sim) Data(req mac.DataRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("DATA")
	s.secured(req.Security)

	cnf := mac.DataConfirm{Status: mac.StatusNoAck, Handle: req.Handle}
	if c := s.findCoord(req.DstAddr, req.DstPANID); c != nil {
		if _, ok := c.member(s.cfg.ExtAddr); ok {
			cnf.Status = mac.StatusSuccess
		}
	}
	s.deliver("DATA", func(sink mac.EventSink) { sink.DataConfirm(cnf) })
	return nil
}

// StartFH enables hopping.
func (s *Sim) StartFH() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fhStarted = true
	return nil
}

// AddKeyInitFrameCounter records the key.
func (s *Sim) AddKeyInitFrameCounter(k mac.KeyInit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, k)
	s.frameCounter = k.FrameCounter
	return nil
}

// AddDevice records the security device.
func (s *Sim) AddDevice(d mac.SecurityDevice) mac.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, d)
	return mac.StatusSuccess
}

// SetSecurityLevelEntry records the entry.
func (s *Sim) SetSecurityLevelEntry(e mac.SecurityLevelEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = append(s.levels, e)
	return nil
}

// RandomByte returns a pseudo-random byte from the seeded generator.
func (s *Sim) RandomByte() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint8(s.rng.UintN(256))
}

// Kick makes the coordinator remove the node and send a disassociation
// indication.
func (s *Sim) Kick(coord mac.ExtAddr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coordByExt(coord)
	if c == nil {
		return ErrUnknownCoordinator
	}
	c.evict(s.cfg.ExtAddr)
	ind := mac.DisassociateIndication{DeviceAddr: coord, Reason: mac.DisassociateReasonCoord}
	s.deliver("DISASSOCIATE", func(sink mac.EventSink) { sink.DisassociateIndication(ind) })
	return nil
}

// LoseSync reports beacon loss on the node's current channel.
func (s *Sim) LoseSync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	pan, _ := s.pib[mac.AttrPANID].(uint16)
	ch, _ := s.pib[mac.AttrLogicalChannel].(uint8)
	ind := mac.SyncLossIndication{Reason: mac.StatusBeaconLoss, PANID: pan, LogicalChannel: ch}
	s.deliver("SYNC_LOSS", func(sink mac.EventSink) { sink.SyncLossIndication(ind) })
}

// SetPermitJoin changes whether a coordinator admits new nodes.
func (s *Sim) SetPermitJoin(coord mac.ExtAddr, permit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coordByExt(coord)
	if c == nil {
		return ErrUnknownCoordinator
	}
	c.PermitJoin = permit
	return nil
}

// Member reports the short address the coordinator gave the node.
func (s *Sim) Member(coord mac.ExtAddr) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coordByExt(coord)
	if c == nil {
		return 0, false
	}
	return c.member(s.cfg.ExtAddr)
}

// Restore makes the coordinator remember the node with the given short
// address, as if it had joined before a restart.
func (s *Sim) Restore(coord mac.ExtAddr, short uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coordByExt(coord)
	if c == nil {
		return ErrUnknownCoordinator
	}
	c.admit(s.cfg.ExtAddr)
	c.members[s.cfg.ExtAddr] = short
	return nil
}

var _ mac.Service = (*Sim)(nil)
