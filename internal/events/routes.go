package events

import (
	"fmt"
	"time"
)

// Channel is a logical message-bus destination.
type Channel string

const (
	// ChannelDataPlane carries device lifecycle and telemetry events.
	ChannelDataPlane Channel = "connOut"

	// ChannelControl carries connector connectivity signals.
	ChannelControl Channel = "control"
)

// EphemeralExpiry is the lifetime of time-sensitive events. Undelivered
// data.update and data.request messages are discarded after it elapses.
const EphemeralExpiry = 10 * time.Second

// Kind identifies an event type.
type Kind string

// Event kinds.
const (
	KindDeviceRegistered    Kind = "device_registered"
	KindDeviceAuthenticated Kind = "device_authenticated"
	KindSchemaUpdated       Kind = "schema_updated"
	KindDeviceList          Kind = "device_list"
	KindDataUpdate          Kind = "data_update"
	KindDataRequest         Kind = "data_request"
	KindDeviceUnregistered  Kind = "device_unregistered"
	KindDisconnected        Kind = "disconnected"
	KindReconnected         Kind = "reconnected"
)

// Route is where and how an event kind is delivered.
type Route struct {
	Channel    Channel
	RoutingKey string

	// Expiry is zero for durable events.
	Expiry time.Duration
}

// Ephemeral reports whether the route carries an expiry.
func (r Route) Ephemeral() bool {
	return r.Expiry > 0
}

var routes = map[Kind]Route{
	KindDeviceRegistered:    {Channel: ChannelDataPlane, RoutingKey: "device.registered"},
	KindDeviceAuthenticated: {Channel: ChannelDataPlane, RoutingKey: "device.auth"},
	KindSchemaUpdated:       {Channel: ChannelDataPlane, RoutingKey: "schema.updated"},
	KindDeviceList:          {Channel: ChannelDataPlane, RoutingKey: "device.list"},
	KindDataUpdate:          {Channel: ChannelDataPlane, RoutingKey: "data.update", Expiry: EphemeralExpiry},
	KindDataRequest:         {Channel: ChannelDataPlane, RoutingKey: "data.request", Expiry: EphemeralExpiry},
	KindDeviceUnregistered:  {Channel: ChannelDataPlane, RoutingKey: "device.unregistered"},
	KindDisconnected:        {Channel: ChannelControl, RoutingKey: "disconnected"},
	KindReconnected:         {Channel: ChannelControl, RoutingKey: "reconnected"},
}

// RouteFor returns the route of an event kind.
func RouteFor(kind Kind) (Route, error) {
	r, ok := routes[kind]
	if !ok {
		return Route{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return r, nil
}

// Routes returns a copy of the full routing table.
func Routes() map[Kind]Route {
	out := make(map[Kind]Route, len(routes))
	for k, r := range routes {
		out[k] = r
	}
	return out
}
