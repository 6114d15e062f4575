package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Transport delivers a payload to a channel under a routing key.
// An expiry of zero means the message never expires.
//
// Implementations own serialisation and bus setup. The MQTT adapter in
// internal/infrastructure/mqtt is the production implementation.
type Transport interface {
	Send(ctx context.Context, channel Channel, routingKey string, payload any, expiry time.Duration) error
}

// Observer is notified after every send attempt. err is nil on success.
type Observer func(kind Kind, route Route, err error)

// Observers combines observers into one, skipping nils.
func Observers(obs ...Observer) Observer {
	var active []Observer
	for _, o := range obs {
		if o != nil {
			active = append(active, o)
		}
	}
	return func(kind Kind, route Route, err error) {
		for _, o := range active {
			o(kind, route, err)
		}
	}
}

// Publisher maps event kinds to routes and hands them to a Transport.
type Publisher struct {
	transport Transport

	mu       sync.RWMutex
	observer Observer
}

// NewPublisher creates a Publisher over the given transport.
func NewPublisher(transport Transport) *Publisher {
	return &Publisher{transport: transport}
}

// SetObserver installs a hook called after each send. Pass nil to remove it.
func (p *Publisher) SetObserver(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = o
}

// Publish sends payload under the route of kind.
//
// Exactly one transport send is attempted. There is no retry and no
// buffering; the call returns once the transport has accepted or
// rejected the message. The observer, if set, sees every attempt.
//
// Parameters:
//   - ctx: Passed through to the transport
//   - kind: One of the Kind constants; see Routes for the table
//   - payload: Any JSON-serialisable value
//
// Returns:
//   - error: ErrUnknownKind for a kind outside the table, or the transport
//     error wrapped in ErrPublishFailed
//
// Example:
//
//	if err := pub.Publish(ctx, events.KindDataUpdate, reading); err != nil {
//	    return err // reading is dropped; data updates expire anyway
//	}
func (p *Publisher) Publish(ctx context.Context, kind Kind, payload any) error {
	route, err := RouteFor(kind)
	if err != nil {
		return err
	}

	err = p.transport.Send(ctx, route.Channel, route.RoutingKey, payload, route.Expiry)
	if err != nil && !errors.Is(err, ErrPublishFailed) {
		err = fmt.Errorf("%w: %s: %w", ErrPublishFailed, route.RoutingKey, err)
	}

	p.mu.RLock()
	observe := p.observer
	p.mu.RUnlock()
	if observe != nil {
		observe(kind, route, err)
	}

	return err
}

// SendRegisteredDevice announces a newly registered device.
func (p *Publisher) SendRegisteredDevice(ctx context.Context, device any) error {
	return p.Publish(ctx, KindDeviceRegistered, device)
}

// SendAuthenticatedDevice announces a successful device authentication.
func (p *Publisher) SendAuthenticatedDevice(ctx context.Context, device any) error {
	return p.Publish(ctx, KindDeviceAuthenticated, device)
}

// SendSchemaUpdated reports the outcome of a schema synchronisation.
func (p *Publisher) SendSchemaUpdated(ctx context.Context, result any) error {
	return p.Publish(ctx, KindSchemaUpdated, result)
}

// SendList publishes the current device list.
func (p *Publisher) SendList(ctx context.Context, devices any) error {
	return p.Publish(ctx, KindDeviceList, devices)
}

// SendDataUpdate publishes a telemetry reading. Expires after EphemeralExpiry.
func (p *Publisher) SendDataUpdate(ctx context.Context, data any) error {
	return p.Publish(ctx, KindDataUpdate, data)
}

// SendDataRequest asks a device for fresh data. Expires after EphemeralExpiry.
func (p *Publisher) SendDataRequest(ctx context.Context, request any) error {
	return p.Publish(ctx, KindDataRequest, request)
}

// SendUnregisteredDevice announces a device removal.
func (p *Publisher) SendUnregisteredDevice(ctx context.Context, device any) error {
	return p.Publish(ctx, KindDeviceUnregistered, device)
}

// SendDisconnected signals loss of connectivity on the control channel.
func (p *Publisher) SendDisconnected(ctx context.Context) error {
	return p.Publish(ctx, KindDisconnected, struct{}{})
}

// SendReconnected signals restored connectivity on the control channel.
func (p *Publisher) SendReconnected(ctx context.Context) error {
	return p.Publish(ctx, KindReconnected, struct{}{})
}
