package notify

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultKeepAlive         = 60 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	maxQoS                   = 2
)

// MQTTConfig configures an MQTT publisher.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883 or ssl://host:8883.
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"clientId"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// TopicPrefix is prepended to every topic. Defaults to "pan".
	TopicPrefix string `yaml:"topicPrefix"`
	QoS         byte   `yaml:"qos"`
	Retain      bool   `yaml:"retain"`

	// MaxReconnectInterval caps the auto-reconnect backoff.
	MaxReconnectInterval time.Duration `yaml:"maxReconnectInterval"`
}

// MQTTPublisher publishes events with paho.
type MQTTPublisher struct {
	client pahomqtt.Client
	cfg    MQTTConfig
}

// DialMQTT connects to the broker. A retained "online" status is
// published on <prefix>/<clientId>/status with an "offline" will.
func DialMQTT(cfg MQTTConfig) (*MQTTPublisher, error) {
	if cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "pan"
	}

	opts := buildClientOptions(cfg)
	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout after %v", cfg.Broker, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}

	p := &MQTTPublisher{client: client, cfg: cfg}
	client.Publish(p.statusTopic(), cfg.QoS, true, `{"status":"online"}`)
	return p, nil
}

func buildClientOptions(cfg MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	if cfg.MaxReconnectInterval > 0 {
		opts.SetMaxReconnectInterval(cfg.MaxReconnectInterval)
	}
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	opts.SetWill(fmt.Sprintf("%s/%s/status", cfg.TopicPrefix, cfg.ClientID), `{"status":"offline"}`, 1, true)
	return opts
}

func (p *MQTTPublisher) statusTopic() string {
	return fmt.Sprintf("%s/%s/status", p.cfg.TopicPrefix, p.cfg.ClientID)
}

// TopicName returns the MQTT topic for t.
func (p *MQTTPublisher) TopicName(t Topic) string {
	return fmt.Sprintf("%s/%s/%s", p.cfg.TopicPrefix, t.Node, t.Event)
}

// Publish sends payload and waits for the broker acknowledgment.
func (p *MQTTPublisher) Publish(t Topic, payload []byte) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	token := p.client.Publish(p.TopicName(t), p.cfg.QoS, p.cfg.Retain, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("mqtt publish %s: timeout after %v", p.TopicName(t), defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", p.TopicName(t), err)
	}
	return nil
}

// Close publishes a graceful offline status and disconnects.
func (p *MQTTPublisher) Close() error {
	if p.client.IsConnected() {
		token := p.client.Publish(p.statusTopic(), p.cfg.QoS, true, `{"status":"offline"}`)
		token.WaitTimeout(defaultPublishTimeout)
	}
	p.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}
