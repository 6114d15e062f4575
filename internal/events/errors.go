package events

import "errors"

// Domain errors for the events package.
var (
	// ErrUnknownKind is returned when an event kind has no route.
	ErrUnknownKind = errors.New("events: unknown event kind")

	// ErrPublishFailed wraps any error returned by the transport.
	ErrPublishFailed = errors.New("events: publish failed")
)
