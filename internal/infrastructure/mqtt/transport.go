package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-connector/internal/events"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/config"
)

// Envelope is the JSON wire form of every published event.
type Envelope struct {
	ID         string          `json:"id"`
	Channel    events.Channel  `json:"channel"`
	RoutingKey string          `json:"routing_key"`
	Timestamp  time.Time       `json:"timestamp"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// Expired reports whether the envelope's expiry has passed at now.
func (e Envelope) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// publisher is the subset of *Client the transport needs.
type publisher interface {
	PublishContext(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error
}

// Transport implements events.Transport over an MQTT client.
type Transport struct {
	client publisher
	topics Topics
	qos    byte

	now   func() time.Time
	newID func() string
}

var _ events.Transport = (*Transport)(nil)

// NewTransport creates an events transport publishing through client.
// Durable events use the configured QoS; expiring events use QoS 0.
func NewTransport(client *Client, cfg config.MQTTConfig) *Transport {
	return newTransport(client, cfg)
}

func newTransport(client publisher, cfg config.MQTTConfig) *Transport {
	return &Transport{
		client: client,
		topics: NewTopics(cfg.Topics),
		qos:    byte(cfg.QoS),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Send wraps payload in an Envelope and publishes it on the channel topic.
//
// Topic: {root}/{channel}/{routingKey}. A positive expiry selects QoS 0 and
// sets ExpiresAt; zero expiry uses the configured QoS and omits it.
//
// Returns:
//   - error: wrapped marshal error, or the client's publish error
func (t *Transport) Send(ctx context.Context, channel events.Channel, routingKey string, payload any, expiry time.Duration) error {
	if routingKey == "" {
		return ErrInvalidTopic
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", ErrPublishFailed, err)
	}

	env := Envelope{
		ID:         t.newID(),
		Channel:    channel,
		RoutingKey: routingKey,
		Timestamp:  t.now(),
		Payload:    body,
	}
	qos := t.qos
	if expiry > 0 {
		expiresAt := env.Timestamp.Add(expiry)
		env.ExpiresAt = &expiresAt
		qos = 0
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: encoding envelope: %w", ErrPublishFailed, err)
	}

	return t.client.PublishContext(ctx, t.topics.Channel(channel, routingKey), data, qos, false)
}
