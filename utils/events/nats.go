package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Envelope wraps every published payload
type Envelope struct {
	Event      string      `json:"event"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends domain events to NATS under prefix.<event>
type Publisher struct {
	conn   conn
	nc     *nats.Conn
	prefix string
	now    func() time.Time
}

// Connect dials NATS and returns a Publisher
func Connect(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("marketplace-messaging"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p := newPublisher(nc, prefix)
	p.nc = nc
	return p, nil
}

func newPublisher(c conn, prefix string) *Publisher {
	return &Publisher{
		conn:   c,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Subject returns the subject an event is published on
func (p *Publisher) Subject(event string) string {
	if p.prefix == "" {
		return event
	}
	return p.prefix + "." + event
}

// Publish implements messaging.EventPublisher
func (p *Publisher) Publish(event string, payload interface{}) error {
	data, err := json.Marshal(Envelope{Event: event, OccurredAt: p.now(), Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.Subject(event)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject '%s': %w", subject, err)
	}
	return nil
}

// Close drains pending events and closes the connection
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
