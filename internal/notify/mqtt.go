package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/JPM1118/dearalarm/internal/alarm"
)

// DefaultTopic is the MQTT topic prefix for alarm events.
const DefaultTopic = "dearalarm"

// Publisher sends a raw payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close() error
}

// Payload is the MQTT message body.
type Payload struct {
	Alarm AlarmPayload `json:"alarm"`
}

// AlarmPayload describes one fired or silenced alarm.
type AlarmPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Sound     string `json:"sound,omitempty"`
}

// MQTT announces fired and silenced alarms on a broker.
type MQTT struct {
	pub   Publisher
	topic string
	now   func() time.Time
}

var _ alarm.Sink = (*MQTT)(nil)

// NewMQTT creates a sink publishing to <prefix>/events.
func NewMQTT(pub Publisher, prefix string) *MQTT {
	if prefix == "" {
		prefix = DefaultTopic
	}
	return &MQTT{
		pub:   pub,
		topic: prefix + "/events",
		now:   time.Now,
	}
}

// Topic returns the events topic.
func (m *MQTT) Topic() string {
	return m.topic
}

func (m *MQTT) Start(_ context.Context, soundID string) error {
	return m.publish(string(alarm.EventFired), soundID)
}

func (m *MQTT) StopAll(_ context.Context) error {
	return m.publish(string(alarm.EventSilenced), "")
}

// Close disconnects the underlying publisher.
func (m *MQTT) Close() error {
	return m.pub.Close()
}

func (m *MQTT) publish(event, sound string) error {
	payload, err := FormatPayload(event, sound, m.now())
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	if err := m.pub.Publish(m.topic, payload); err != nil {
		return fmt.Errorf("mqtt %s: %w", event, err)
	}
	return nil
}

// FormatPayload renders the JSON body for an alarm event.
func FormatPayload(event, sound string, at time.Time) ([]byte, error) {
	return json.Marshal(Payload{Alarm: AlarmPayload{
		Timestamp: at.UTC().Format(time.RFC3339),
		Event:     event,
		Sound:     sound,
	}})
}

// PahoPublisher publishes to an actual MQTT broker.
type PahoPublisher struct {
	client paho.Client
}

// NewPahoPublisher connects to broker with a random client id.
func NewPahoPublisher(broker string) (*PahoPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("dearalarm-" + uuid.NewString()).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &PahoPublisher{client: client}, nil
}

// Publish sends payload with QoS 1, not retained.
func (p *PahoPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
