package mqtt

import (
	"strings"

	"github.com/nerrad567/gray-logic-connector/internal/events"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/config"
)

// Topics builds connector topics from the configured layout.
//
//	topics := mqtt.NewTopics(cfg.MQTT.Topics)
//	topics.Channel(events.ChannelDataPlane, "device.registered")
//	// Returns: "connector/connOut/device.registered"
type Topics struct {
	root      string
	dataPlane string
	control   string
	inbound   string
}

// NewTopics creates a topic builder. Empty segments fall back to the
// defaults of the logical channel names.
func NewTopics(cfg config.MQTTTopicsConfig) Topics {
	t := Topics{
		root:      strings.Trim(cfg.Root, "/"),
		dataPlane: cfg.DataPlane,
		control:   cfg.Control,
		inbound:   cfg.Inbound,
	}
	if t.dataPlane == "" {
		t.dataPlane = string(events.ChannelDataPlane)
	}
	if t.control == "" {
		t.control = string(events.ChannelControl)
	}
	if t.inbound == "" {
		t.inbound = "connIn"
	}
	return t
}

// Channel returns the topic for a routing key on a logical channel.
// Channels other than the data plane and control map to their own name.
func (t Topics) Channel(ch events.Channel, routingKey string) string {
	var segment string
	switch ch {
	case events.ChannelDataPlane:
		segment = t.dataPlane
	case events.ChannelControl:
		segment = t.control
	default:
		segment = string(ch)
	}
	return t.join(segment, routingKey)
}

// Inbound returns the topic on which the connector receives routingKey.
//
// Example: connector/connIn/schema.update
func (t Topics) Inbound(routingKey string) string {
	return t.join(t.inbound, routingKey)
}

// AllInbound matches every inbound routing key.
func (t Topics) AllInbound() string {
	return t.join(t.inbound, "#")
}

// Status returns the retained presence topic for a client.
//
// Example: connector/status/connector-001
func (t Topics) Status(clientID string) string {
	return t.join("status", clientID)
}

func (t Topics) join(parts ...string) string {
	if t.root == "" {
		return strings.Join(parts, "/")
	}
	return t.root + "/" + strings.Join(parts, "/")
}
