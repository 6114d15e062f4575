package schemasync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-connector/internal/device"
	"github.com/nerrad567/gray-logic-connector/internal/schema"
)

// defaultHandleTimeout bounds one inbound synchronisation.
const defaultHandleTimeout = 30 * time.Second

// Synchronizer is the orchestrator operation the consumer drives.
type Synchronizer interface {
	Synchronize(ctx context.Context, dev device.Device) error
}

// updateMessage is the inbound schema.update payload.
type updateMessage struct {
	ID     string        `json:"id"`
	Schema schema.Schema `json:"schema"`
}

// Consumer turns inbound schema.update messages into synchronisations.
// Handle matches the MQTT client's message handler signature.
type Consumer struct {
	target  Synchronizer
	timeout time.Duration
	logger  Logger
}

// NewConsumer creates a Consumer. A nil logger discards output.
func NewConsumer(s Synchronizer, logger Logger) *Consumer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Consumer{target: s, timeout: defaultHandleTimeout, logger: logger}
}

// Handle decodes one message and synchronises the device it names.
// Malformed messages return ErrInvalidMessage and are not synchronised.
func (c *Consumer) Handle(topic string, payload []byte) error {
	dev, err := DecodeUpdate(payload)
	if err != nil {
		c.logger.Warn("dropping schema update", "topic", topic, "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return c.target.Synchronize(ctx, dev)
}

// DecodeUpdate parses a {"id": ..., "schema": {...}} message.
func DecodeUpdate(payload []byte) (device.Device, error) {
	var msg updateMessage
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		return device.Device{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := device.ValidateID(msg.ID); err != nil {
		return device.Device{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.Schema == nil {
		return device.Device{}, fmt.Errorf("%w: schema is required", ErrInvalidMessage)
	}
	return device.Device{ID: msg.ID, Schema: msg.Schema}, nil
}
