package mqtt

import (
	"context"
	"fmt"
)

// maxPayloadSize bounds a single message (1MB), in line with common broker limits.
const maxPayloadSize = 1 << 20

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "connector/connOut/device.registered")
//   - payload: The message payload (typically JSON, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// QoS Levels:
//   - 0: At most once (fire and forget); used for expiring events
//   - 1: At least once (guaranteed delivery, may duplicate)
//   - 2: Exactly once (guaranteed, no duplicates, higher overhead)
//
// Returns:
//   - error: nil on success, or wrapped error if publish fails or is not
//     acknowledged within defaultPublishTimeout
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultPublishTimeout)
	defer cancel()
	return c.PublishContext(ctx, topic, payload, qos, retained)
}

// PublishContext is Publish bounded by ctx instead of defaultPublishTimeout.
//
// The call returns once the broker has acknowledged the message (QoS 1/2),
// the message has been written (QoS 0), or ctx is done, whichever comes
// first. A message abandoned by ctx may still reach the broker.
//
// Parameters:
//   - ctx: Bounds the wait for acknowledgment
//   - topic, payload, qos, retained: As for Publish
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrPayloadTooLarge or
//     ErrNotConnected on validation; ErrPublishFailed wrapping the broker
//     or context error otherwise
//
// Example:
//
//	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
//	defer cancel()
//	err := client.PublishContext(ctx, topic, payload, 1, false)
func (c *Client) PublishContext(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrPublishFailed, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
