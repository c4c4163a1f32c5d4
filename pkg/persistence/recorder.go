package persistence

import (
	"log/slog"

	"github.com/nghiaquy1991/PAN/pkg/join"
	"github.com/nghiaquy1991/PAN/pkg/mac"
)

// Recorder keeps the store in step with join notifications: a join saves
// the membership and leaving the network clears it.
type Recorder struct {
	join.NopApplication
	store  *Store
	logger *slog.Logger
}

// NewRecorder creates a Recorder. A nil logger disables logging.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{store: store, logger: logger.With("component", "persistence")}
}

// Joined saves the membership.
func (r *Recorder) Joined(dev join.DeviceDescriptor, parent join.ParentInfo) {
	if err := r.store.SaveNetwork(dev, parent); err != nil {
		r.logger.Error("save network info", "error", err)
		return
	}
	r.logger.Debug("network info saved", "pan_id", dev.PANID, "short_addr", dev.ShortAddr)
}

// Disassociated clears the membership once the node has left.
func (r *Recorder) Disassociated(d join.Disassociation) {
	if d.Requested && d.Status != mac.StatusSuccess {
		return
	}
	if err := r.store.ClearNetwork(); err != nil {
		r.logger.Error("clear network info", "error", err)
	}
}

var _ join.Application = (*Recorder)(nil)
