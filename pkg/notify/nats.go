package notify

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig configures a NATS publisher.
type NATSConfig struct {
	URL string `yaml:"url"`

	// Name identifies the connection on the server.
	Name string `yaml:"name"`

	// SubjectPrefix is prepended to every subject. Defaults to "pan".
	SubjectPrefix     string        `yaml:"subjectPrefix"`
	ReconnectInterval time.Duration `yaml:"reconnectInterval"`
	MaxReconnects     int           `yaml:"maxReconnects"`
}

// NATSPublisher publishes events on a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// DialNATS connects to the NATS server.
func DialNATS(cfg NATSConfig) (*NATSPublisher, error) {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "pan"
	}
	opts := []nats.Option{nats.MaxReconnects(cfg.MaxReconnects)}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.ReconnectInterval > 0 {
		opts = append(opts, nats.ReconnectWait(cfg.ReconnectInterval))
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	return &NATSPublisher{nc: nc, prefix: cfg.SubjectPrefix}, nil
}

// Subject returns the NATS subject for t.
func (p *NATSPublisher) Subject(t Topic) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, t.Node, t.Event)
}

// Publish sends payload. Delivery is at most once.
func (p *NATSPublisher) Publish(t Topic, payload []byte) error {
	if !p.nc.IsConnected() {
		return ErrNotConnected
	}
	if err := p.nc.Publish(p.Subject(t), payload); err != nil {
		return fmt.Errorf("nats publish %s: %w", p.Subject(t), err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
