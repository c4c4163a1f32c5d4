package neighbor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// Default table parameters.
const (
	DefaultCapacity      = 16
	DefaultValidTime     = 120 * time.Minute
	DefaultPurgeInterval = 10 * time.Hour
	DefaultPurgePeriod   = time.Hour

	// Unknown marks clock drift and channel function values that have not
	// been learned from a unicast schedule yet.
	Unknown uint8 = 0xFF
)

// Table errors.
var (
	ErrNotFound      = errors.New("neighbor not found")
	ErrExpired       = errors.New("neighbor schedule expired")
	ErrInvalidConfig = errors.New("invalid neighbor table config")
)

// Flags describes the validity of an entry.
type Flags uint8

// Validity flags.
const (
	FlagCreated  Flags = 0x01 // slot holds a neighbor
	FlagWithUTIE Flags = 0x02 // unicast schedule has been received
	FlagExpired  Flags = 0x04 // hop schedule is stale
)

// Valid reports whether the slot holds a neighbor.
func (f Flags) Valid() bool {
	return f&FlagCreated != 0
}

// String returns a compact flag list.
func (f Flags) String() string {
	if f == 0 {
		return "INVALID"
	}
	s := ""
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if f&FlagCreated != 0 {
		add("CREATED")
	}
	if f&FlagWithUTIE != 0 {
		add("UTIE")
	}
	if f&FlagExpired != 0 {
		add("EXPIRED")
	}
	return s
}

// Entry is the hop state of one neighbor.
type Entry struct {
	ExtAddr         mac.ExtAddr
	ClockDrift      uint8
	TimingAccuracy  uint8
	DwellInterval   uint8
	ChannelPlan     uint8
	ChannelFunction uint8
	Flags           Flags
	LastUpdate      time.Time
}

// Age returns the time since the entry was last updated.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.LastUpdate)
}

// Config holds table parameters.
type Config struct {
	// Capacity is the maximum number of valid entries.
	Capacity int

	// ValidTime bounds how long a DH1CF schedule can be used for lookups.
	ValidTime time.Duration

	// PurgeInterval is the age after which Purge drops an entry.
	PurgeInterval time.Duration

	// PurgePeriod is how often the owner should call Purge.
	PurgePeriod time.Duration

	// Logger receives eviction and purge events. Nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns the default table configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:      DefaultCapacity,
		ValidTime:     DefaultValidTime,
		PurgeInterval: DefaultPurgeInterval,
		PurgePeriod:   DefaultPurgePeriod,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	// One slot is always held back for the parent, so eviction needs a second.
	if c.Capacity < 2 || c.Capacity > 255 {
		return fmt.Errorf("%w: capacity %d out of range 2-255", ErrInvalidConfig, c.Capacity)
	}
	if c.ValidTime <= 0 {
		return fmt.Errorf("%w: valid time must be positive", ErrInvalidConfig)
	}
	if c.PurgeInterval <= 0 || c.PurgePeriod <= 0 {
		return fmt.Errorf("%w: purge interval and period must be positive", ErrInvalidConfig)
	}
	return nil
}

// Table is a fixed-capacity neighbor table.
type Table struct {
	mu        sync.Mutex
	cfg       Config
	entries   []Entry
	count     int
	parent    mac.ExtAddr
	hasParent bool
}

// New creates an empty table.
func New(cfg Config) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Table{
		cfg:     cfg,
		entries: make([]Entry, cfg.Capacity),
	}, nil
}

// Config returns the table configuration.
func (t *Table) Config() Config {
	return t.cfg
}

// SetParent sets the address protected from eviction and purge.
func (t *Table) SetParent(addr mac.ExtAddr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parent = addr
	t.hasParent = true
}

// ClearParent removes parent protection.
func (t *Table) ClearParent() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parent = mac.ExtAddr{}
	t.hasParent = false
}

// Parent returns the protected address, if any.
func (t *Table) Parent() (mac.ExtAddr, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.parent, t.hasParent
}

// Len returns the number of valid entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Capacity returns the maximum number of entries.
func (t *Table) Capacity() int {
	return t.cfg.Capacity
}

// Create adds addr to the table, or reinitializes its entry if it is
// already present. A full table evicts its oldest non-parent entry first.
func (t *Table) Create(addr mac.ExtAddr, now time.Time) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.create(addr, now)
}

// Refresh records a frame heard from addr, creating the entry if needed.
// A non-nil schedule updates the hop fields and marks the entry as having
// a unicast schedule.
func (t *Table) Refresh(addr mac.ExtAddr, sched *mac.UnicastSchedule, now time.Time) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(addr)
	if e == nil {
		e = t.create(addr, now)
	}
	e.LastUpdate = now
	e.Flags &^= FlagExpired
	if sched != nil {
		e.ClockDrift = sched.ClockDrift
		e.TimingAccuracy = sched.TimingAccuracy
		e.DwellInterval = sched.DwellInterval
		e.ChannelPlan = sched.ChannelPlan
		e.ChannelFunction = sched.ChannelFunction
		e.Flags |= FlagWithUTIE
	}
	return *e
}

// Get returns the entry for addr. An entry hopping with DH1CF whose age has
// reached the valid time is marked expired and ErrExpired is returned.
func (t *Table) Get(addr mac.ExtAddr, now time.Time) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(addr)
	if e == nil {
		return Entry{}, ErrNotFound
	}
	if e.ChannelFunction == mac.ChannelFunctionDH1CF && e.Age(now) >= t.cfg.ValidTime {
		e.Flags |= FlagExpired
		return Entry{}, ErrExpired
	}
	return *e, nil
}

// Remove drops the entry for addr. It reports whether an entry was removed.
func (t *Table) Remove(addr mac.ExtAddr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(addr)
	if e == nil {
		return false
	}
	*e = Entry{}
	t.count--
	return true
}

// Purge invalidates every entry older than the purge interval except the
// parent. It returns the number of entries removed.
func (t *Table) Purge(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for i := range t.entries {
		e := &t.entries[i]
		if !e.Flags.Valid() || t.isParent(e.ExtAddr) {
			continue
		}
		if e.Age(now) >= t.cfg.PurgeInterval {
			t.debug("purge neighbor", "addr", e.ExtAddr, "age", e.Age(now))
			*e = Entry{}
			t.count--
			removed++
		}
	}
	return removed
}

// Entries returns a copy of every valid entry in slot order.
func (t *Table) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, 0, t.count)
	for _, e := range t.entries {
		if e.Flags.Valid() {
			out = append(out, e)
		}
	}
	return out
}

// Reset invalidates every entry. Parent protection is kept.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		t.entries[i] = Entry{}
	}
	t.count = 0
}

func (t *Table) create(addr mac.ExtAddr, now time.Time) *Entry {
	e := t.lookup(addr)
	if e == nil {
		if t.count >= len(t.entries) {
			e = t.evict(now)
		} else {
			e = t.freeSlot()
			t.count++
		}
	}
	*e = Entry{
		ExtAddr:         addr,
		ClockDrift:      Unknown,
		ChannelFunction: Unknown,
		Flags:           FlagCreated,
		LastUpdate:      now,
	}
	return e
}

// evict frees the slot of the oldest non-parent entry and returns it. The
// count is unchanged since the slot is reused immediately. Addresses are
// unique and capacity is at least two, so a non-parent victim always exists.
func (t *Table) evict(now time.Time) *Entry {
	victim := -1
	var oldest time.Duration
	for i := range t.entries {
		e := &t.entries[i]
		if t.isParent(e.ExtAddr) {
			continue
		}
		if age := e.Age(now); victim < 0 || age > oldest {
			victim = i
			oldest = age
		}
	}
	t.debug("evict neighbor", "addr", t.entries[victim].ExtAddr, "age", oldest)
	return &t.entries[victim]
}

func (t *Table) freeSlot() *Entry {
	for i := range t.entries {
		if !t.entries[i].Flags.Valid() {
			return &t.entries[i]
		}
	}
	return nil
}

func (t *Table) lookup(addr mac.ExtAddr) *Entry {
	for i := range t.entries {
		if t.entries[i].Flags.Valid() && t.entries[i].ExtAddr == addr {
			return &t.entries[i]
		}
	}
	return nil
}

func (t *Table) isParent(addr mac.ExtAddr) bool {
	return t.hasParent && addr == t.parent
}

func (t *Table) debug(msg string, args ...any) {
	if t.cfg.Logger != nil {
		t.cfg.Logger.Debug(msg, args...)
	}
}
