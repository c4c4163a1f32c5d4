package notify

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Default redial backoff parameters.
const (
	InitialBackoff    = 1 * time.Second
	MaxBackoff        = 60 * time.Second
	BackoffMultiplier = 2.0
	JitterFactor      = 0.25
)

// BackoffConfig customizes a Backoff. Zero fields take the defaults.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64

	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// Backoff calculates exponential redial delays with jitter.
type Backoff struct {
	mu       sync.Mutex
	cfg      BackoffConfig
	current  time.Duration
	attempts int
}

// NewBackoff creates a backoff calculator.
func NewBackoff(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = InitialBackoff
	}
	if cfg.Max <= 0 {
		cfg.Max = MaxBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = BackoffMultiplier
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	return &Backoff{cfg: cfg, current: cfg.Initial}
}

// Next returns the next delay (with jitter) and advances the backoff.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.current + time.Duration(float64(b.current)*b.cfg.Jitter*b.cfg.Rand())

	b.attempts++
	next := time.Duration(float64(b.current) * b.cfg.Multiplier)
	if next > b.cfg.Max {
		next = b.cfg.Max
	}
	b.current = next
	return delay
}

// Reset returns the backoff to its initial delay.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.cfg.Initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// DialFunc connects a publisher.
type DialFunc func() (Publisher, error)

// Redialer is a Publisher that keeps dialling until the broker accepts a
// connection. Publish fails with ErrNotConnected until then.
type Redialer struct {
	name    string
	dial    DialFunc
	backoff *Backoff
	logger  *slog.Logger

	mu     sync.Mutex
	pub    Publisher
	closed bool
}

// NewRedialer creates a Redialer. Call Run to start dialling.
func NewRedialer(name string, dial DialFunc, backoff *Backoff, logger *slog.Logger) *Redialer {
	if backoff == nil {
		backoff = NewBackoff(BackoffConfig{})
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Redialer{
		name:    name,
		dial:    dial,
		backoff: backoff,
		logger:  logger.With("component", "notify", "publisher", name),
	}
}

// Run dials until it succeeds or ctx is cancelled. Once connected, the
// client library's own reconnect logic takes over.
func (r *Redialer) Run(ctx context.Context) error {
	for {
		pub, err := r.dial()
		if err == nil {
			r.mu.Lock()
			if r.closed {
				r.mu.Unlock()
				return pub.Close()
			}
			r.pub = pub
			r.mu.Unlock()
			r.backoff.Reset()
			r.logger.Info("publisher connected")
			return nil
		}

		delay := r.backoff.Next()
		r.logger.Warn("dial failed", "error", err, "attempt", r.backoff.Attempts(), "retry_in", delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Connected reports whether a dial has succeeded.
func (r *Redialer) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pub != nil
}

// Publish implements Publisher.
func (r *Redialer) Publish(t Topic, payload []byte) error {
	r.mu.Lock()
	pub := r.pub
	r.mu.Unlock()
	if pub == nil {
		return ErrNotConnected
	}
	return pub.Publish(t, payload)
}

// Close implements Publisher.
func (r *Redialer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.pub == nil {
		return nil
	}
	err := r.pub.Close()
	r.pub = nil
	return err
}

var _ Publisher = (*Redialer)(nil)
