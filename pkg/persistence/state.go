package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nghiaquy1991/PAN/pkg/join"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// DefaultFrameCounterWindow is how far the frame counter may advance
// before it is written again.
const DefaultFrameCounterWindow uint32 = 25

// NodeState is the persisted state of a node.
type NodeState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Network is the membership to restore. Nil when the node has not
	// joined.
	Network *NetworkInfo `json:"network,omitempty"`

	// FrameCounter is the last saved outgoing frame counter.
	FrameCounter *uint32 `json:"frame_counter,omitempty"`
}

// NetworkInfo is the membership information needed to rejoin.
type NetworkInfo struct {
	Device join.DeviceDescriptor `json:"device"`
	Parent join.ParentInfo       `json:"parent"`

	// JoinedAt is when the membership was first saved.
	JoinedAt time.Time `json:"joined_at"`
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFrameCounterWindow sets the frame counter save window.
func WithFrameCounterWindow(w uint32) StoreOption {
	return func(s *Store) { s.window = w }
}

// WithClock sets the time source used for SavedAt and JoinedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store manages the node state JSON file.
type Store struct {
	mu        sync.Mutex
	path      string
	window    uint32
	lastSaved uint32
	now       func() time.Time
}

// NewStore creates a store backed by the file at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:   path,
		window: DefaultFrameCounterWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state from disk.
// Returns nil, nil if the file doesn't exist.
func (s *Store) Load() (*NodeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// SaveNetwork records the current membership. JoinedAt is kept when the
// same parent is saved again.
func (s *Store) SaveNetwork(dev join.DeviceDescriptor, parent join.ParentInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadOrEmpty()
	if err != nil {
		return err
	}
	joinedAt := s.now()
	if prev := state.Network; prev != nil && prev.Parent.Device.ExtAddr == parent.Device.ExtAddr {
		joinedAt = prev.JoinedAt
	}
	state.Network = &NetworkInfo{Device: dev, Parent: parent, JoinedAt: joinedAt}
	return s.save(state)
}

// LoadNetwork returns the saved membership, or nil when there is none.
func (s *Store) LoadNetwork() (*NetworkInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil || state == nil {
		return nil, err
	}
	return state.Network, nil
}

// ClearNetwork forgets the membership but keeps the frame counter.
func (s *Store) ClearNetwork() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil || state == nil || state.Network == nil {
		return err
	}
	state.Network = nil
	return s.save(state)
}

// UpdateFrameCounter saves fc when it has advanced a full window past the
// last saved value. It reports whether fc was written.
func (s *Store) UpdateFrameCounter(fc uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fc < s.lastSaved+s.window {
		return false, nil
	}
	state, err := s.loadOrEmpty()
	if err != nil {
		return false, err
	}
	state.FrameCounter = &fc
	if err := s.save(state); err != nil {
		return false, err
	}
	s.lastSaved = fc
	return true, nil
}

// FrameCounter returns the counter to resume from: the saved value plus
// one window. When nothing is saved yet it stores 0 and returns false.
func (s *Store) FrameCounter() (uint32, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.loadOrEmpty()
	if err != nil {
		return 0, false, err
	}
	if state.FrameCounter == nil {
		zero := uint32(0)
		state.FrameCounter = &zero
		return 0, false, s.save(state)
	}
	return *state.FrameCounter + s.window, true, nil
}

// Clear removes the state file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSaved = 0
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) load() (*NodeState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &NodeState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) loadOrEmpty() (*NodeState, error) {
	state, err := s.load()
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &NodeState{}
	}
	return state, nil
}

func (s *Store) save(state *NodeState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	state.SavedAt = s.now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
