package join

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nghiaquy1991/PAN/pkg/log"
	"github.com/nghiaquy1991/PAN/pkg/mac"
	"github.com/nghiaquy1991/PAN/pkg/neighbor"
	"github.com/nghiaquy1991/PAN/pkg/timer"
)

// TimerService arms the controller's one-shot timers. Arming a running
// timer restarts it; a duration <= 0 stops it. Expiry must be reported
// through Controller.TimerFired.
type TimerService interface {
	Arm(id timer.ID, d time.Duration)
}

// Blacklist reports coordinators that must never be chosen as parent.
type Blacklist interface {
	Contains(addr mac.Addr) bool
}

// Option configures optional collaborators of a Controller.
type Option func(*Controller)

// WithApplication sets the receiver of join notifications.
func WithApplication(app Application) Option {
	return func(c *Controller) { c.app = app }
}

// WithNext sets the sink every MAC callback is forwarded to after the
// controller has handled it.
func WithNext(sink mac.EventSink) Option {
	return func(c *Controller) { c.next = sink }
}

// WithBlacklist sets the coordinator blacklist used for beacon filtering.
func WithBlacklist(b Blacklist) Option {
	return func(c *Controller) { c.blacklist = b }
}

// WithTrace sets the protocol trace logger. An empty session ID is replaced
// by a random UUID.
func WithTrace(l log.Logger, sessionID string) Option {
	return func(c *Controller) {
		c.trace = l
		if sessionID != "" {
			c.session = sessionID
		}
	}
}

// WithClock sets the time source used for neighbor ages and trace
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithNeighborTable sets the neighbor hop table. By default a table with
// neighbor.DefaultConfig is created.
func WithNeighborTable(t *neighbor.Table) Option {
	return func(c *Controller) { c.neighbors = t }
}

// trickle is the state of one solicit timer.
type trickle struct {
	id      timer.ID
	frame   mac.AsyncFrame
	window  time.Duration
	heard   uint8
	running bool
}

// Controller is the join state machine of one node.
type Controller struct {
	cfg       Config
	mac       mac.Service
	timers    TimerService
	app       Application
	next      mac.EventSink
	blacklist Blacklist
	neighbors *neighbor.Table
	trace     log.Logger
	session   string
	now       func() time.Time
	logger    *slog.Logger

	queue eventQueue
	wake  chan struct{}

	// mu guards everything below.
	mu           sync.Mutex
	dev          DeviceInfo
	continueScan bool

	// parentMode is the address mode the provisional parent was found with.
	parentMode  mac.AddrMode
	fhMask      mac.ChannelMask
	sleepyChIdx int
	pas         trickle
	pcs         trickle
	fhAttempts  uint8
	stats       Stats
	outbox      []func()
}

// New creates a controller. Init must be called before any other operation.
func New(cfg Config, svc mac.Service, timers TimerService, opts ...Option) (*Controller, error) {
	if svc == nil {
		return nil, ErrNoMAC
	}
	if timers == nil {
		return nil, ErrNoTimers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:     cfg,
		mac:     svc,
		timers:  timers,
		session: uuid.NewString(),
		now:     time.Now,
		wake:    make(chan struct{}, 1),
		pas: trickle{
			id:     TimerPAS,
			frame:  mac.AsyncFramePANAdvertSolicit,
			window: cfg.FH.PANAdvertSolicitInterval,
		},
		pcs: trickle{
			id:     TimerPCS,
			frame:  mac.AsyncFrameConfigSolicit,
			window: cfg.FH.PANConfigSolicitInterval,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c.logger = logger.With("component", "join")

	if c.neighbors == nil {
		ncfg := neighbor.DefaultConfig()
		ncfg.Logger = cfg.Logger
		t, err := neighbor.New(ncfg)
		if err != nil {
			return nil, err
		}
		c.neighbors = t
	}

	c.dev = c.initialDeviceInfo()
	return c, nil
}

func (c *Controller) initialDeviceInfo() DeviceInfo {
	d := DeviceInfo{
		PANID:           c.cfg.PANID,
		BeaconOrder:     c.cfg.BeaconOrder,
		SuperframeOrder: c.cfg.SuperframeOrder,
		State:           StateInitWaiting,
		PrevState:       StateInitWaiting,
		PollInterval:    c.cfg.PollInterval,
		ScanState:       ScanActive,
		PrevScanState:   ScanActive,
	}
	if c.cfg.BeaconEnabled() {
		d.ScanState = ScanPassive
	}
	return d
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// SessionID returns the trace session identifier.
func (c *Controller) SessionID() string {
	return c.session
}

// State returns the current join state.
func (c *Controller) State() JoinState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.State
}

// ScanState returns the current scan sub-state.
func (c *Controller) ScanState() ScanState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.ScanState
}

// DeviceInfo returns a snapshot of the node's network information.
func (c *Controller) DeviceInfo() DeviceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev
}

// Stats returns a copy of the statistics.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Neighbors returns the valid entries of the neighbor hop table.
func (c *Controller) Neighbors() []neighbor.Entry {
	return c.neighbors.Entries()
}

// NeighborTable returns the neighbor hop table.
func (c *Controller) NeighborTable() *neighbor.Table {
	return c.neighbors
}

// Init resets the node to its configured defaults and programs the MAC.
// In hopping mode it also starts the MAC's hopping schedule and the PAN
// advertisement solicit exchange.
func (c *Controller) Init() {
	c.locked(func() {
		c.dev = c.initialDeviceInfo()
		c.continueScan = true
		c.fhAttempts = 0
		c.pas.heard, c.pcs.heard = 0, 0
		c.stats = Stats{}
		if ext, err := c.mac.GetArray(mac.AttrExtendedAddress); err == nil && len(ext) == mac.ExtAddrLen {
			copy(c.dev.DevExtAddr[:], ext)
		}

		c.setUint8(mac.AttrPhyCurrentDescriptorID, c.cfg.PhyID)
		c.setBool(mac.AttrRxOnWhenIdle, true)

		if c.cfg.FH.Enabled {
			c.initFH()
		}
		c.logger.Info("initialized",
			"fh", c.cfg.FH.Enabled,
			"sleepy", c.cfg.Sleepy(),
			"beacon_order", c.cfg.BeaconOrder,
			"scan_state", c.dev.ScanState)
	})
}

// Join starts searching for a parent.
func (c *Controller) Join() {
	c.locked(func() {
		c.updateState(StateJoining)

		if c.cfg.FH.Enabled {
			c.startTrickle(&c.pas)
			return
		}
		if c.cfg.Sleepy() {
			c.arm(TimerScanBackoff, c.cfg.ScanBackoffInterval)
		}
		c.rescan()
	})
}

// Rejoin restores a previous membership. In beacon mode the node
// synchronizes with the stored parent directly; in hopping mode it solicits
// the PAN configuration again; a sleepy classic node polls its parent to
// confirm the membership.
func (c *Controller) Rejoin(dev DeviceDescriptor, parent ParentInfo) {
	c.locked(func() {
		c.updateState(StateInitRestoring)

		c.dev.PANID = dev.PANID
		c.dev.Channel = parent.Channel
		c.dev.DevExtAddr = dev.ExtAddr
		c.dev.DevShortAddr = dev.ShortAddr
		c.dev.CoordExtAddr = parent.Device.ExtAddr
		c.dev.CoordShortAddr = parent.Device.ShortAddr

		c.setUint16(mac.AttrPANID, c.dev.PANID)
		c.setUint16(mac.AttrShortAddress, c.dev.DevShortAddr)
		c.setArray(mac.AttrCoordExtendedAddress, c.dev.CoordExtAddr[:])

		if c.cfg.FH.Enabled {
			c.dev.ParentFound = false
			c.setBool(mac.AttrRxOnWhenIdle, true)
			c.stopTrickle(&c.pas)
			c.startTrickle(&c.pcs)
			return
		}

		c.setUint8(mac.AttrLogicalChannel, c.dev.Channel)
		c.setUint16(mac.AttrCoordShortAddress, c.dev.CoordShortAddr)

		if c.cfg.BeaconEnabled() {
			c.setBool(mac.AttrRxOnWhenIdle, c.cfg.RxOnWhenIdle)
			c.switchScan(ScanSyncReq)
			c.notifyJoined(dev, parent)
			c.updateState(StateRejoined)
		}
		if c.cfg.Sleepy() {
			c.post(evPoll)
		}
	})
}

// SetPollRate changes the poll interval used from the next poll on.
func (c *Controller) SetPollRate(interval time.Duration) {
	c.locked(func() {
		c.dev.PollInterval = interval
	})
}

// SendDisassociationRequest asks the parent to remove this node. The
// outcome is reported through Application.Disassociated.
func (c *Controller) SendDisassociationRequest() {
	c.locked(func() {
		req := mac.DisassociateRequest{
			DeviceAddr:  c.parentAddr(),
			DevicePANID: c.dev.PANID,
			Reason:      mac.DisassociateReasonDevice,
			TxIndirect:  false,
		}
		c.traceRequest("DISASSOCIATE", req.DeviceAddr.String(), nil, req.Reason.String())
		c.request("DISASSOCIATE", c.mac.Disassociate(req))
	})
}

// locked runs fn under the controller lock and then delivers the
// notifications and forwards fn produced.
func (c *Controller) locked(fn func()) {
	c.mu.Lock()
	fn()
	out := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	for _, f := range out {
		f()
	}
}

// parentAddr returns the parent address in the form the mode uses.
func (c *Controller) parentAddr() mac.Addr {
	if c.cfg.FH.Enabled {
		return mac.ExtendedAddr(c.dev.CoordExtAddr)
	}
	return mac.ShortAddr(c.dev.CoordShortAddr)
}

// updateState moves the join state machine. Callers hold mu.
func (c *Controller) updateState(s JoinState) {
	if s == c.dev.State {
		return
	}
	old := c.dev.State
	c.dev.PrevState = old
	c.dev.State = s

	c.logger.Info("join state changed", "from", old, "to", s)
	c.traceState(log.StateEntityJoin, old.String(), s.String(), "")
	c.traceNotification(log.NotificationStateChanged, nil, "", s.String())
	if app := c.app; app != nil {
		c.outbox = append(c.outbox, func() { app.StateChanged(s) })
	}
}

// switchScan moves the scan sub-state and schedules its processing.
func (c *Controller) switchScan(s ScanState) {
	if s != c.dev.ScanState {
		c.traceState(log.StateEntityScan, c.dev.ScanState.String(), s.String(), "")
	}
	c.dev.ScanState = s
	c.post(evStateChange)
}

// rescan restarts classic scanning according to the network type.
func (c *Controller) rescan() {
	if c.cfg.BeaconEnabled() {
		c.switchScan(ScanPassive)
		return
	}
	if c.continueScan {
		c.switchScan(ScanActive)
	}
}

func (c *Controller) notifyJoined(dev DeviceDescriptor, parent ParentInfo) {
	c.logger.Info("joined",
		"pan_id", dev.PANID,
		"short_addr", dev.ShortAddr,
		"parent", parent.Device.ExtAddr,
		"fh", parent.FH)
	short := dev.ShortAddr
	c.traceNotification(log.NotificationJoined, &short, parent.Device.ExtAddr.String(), "")
	if app := c.app; app != nil {
		c.outbox = append(c.outbox, func() { app.Joined(dev, parent) })
	}
}

func (c *Controller) notifyDisassociated(d Disassociation) {
	detail := d.Reason.String()
	if d.Requested {
		detail = d.Status.String()
	}
	c.logger.Info("disassociated", "addr", d.Addr, "requested", d.Requested, "detail", detail)
	c.traceNotification(log.NotificationDisassociated, nil, d.Addr.String(), detail)
	if app := c.app; app != nil {
		c.outbox = append(c.outbox, func() { app.Disassociated(d) })
	}
}

// forward queues delivery of a MAC callback to the next sink.
func (c *Controller) forward(fn func(mac.EventSink)) {
	if next := c.next; next != nil {
		c.outbox = append(c.outbox, func() { fn(next) })
	}
}

// connectedDescriptors builds the Joined payload from the stored network
// information.
func (c *Controller) connectedDescriptors() (DeviceDescriptor, ParentInfo) {
	parent := ParentInfo{
		Device: DeviceDescriptor{
			PANID:     c.dev.PANID,
			ShortAddr: c.dev.CoordShortAddr,
			ExtAddr:   c.dev.CoordExtAddr,
		},
		Channel: c.dev.Channel,
		FH:      c.cfg.FH.Enabled,
	}
	return c.dev.Device(), parent
}
