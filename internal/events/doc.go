// Package events publishes device lifecycle and telemetry events onto the
// message bus.
//
// Every event kind has exactly one route: a logical channel, a routing key
// and an expiry policy. The routing table is the contract with downstream
// consumers and is fixed at compile time:
//
//	Kind                    Channel   Routing key           Expiry
//	KindDeviceRegistered    connOut   device.registered     none
//	KindDeviceAuthenticated connOut   device.auth           none
//	KindSchemaUpdated       connOut   schema.updated        none
//	KindDeviceList          connOut   device.list           none
//	KindDataUpdate          connOut   data.update           10s
//	KindDataRequest         connOut   data.request          10s
//	KindDeviceUnregistered  connOut   device.unregistered   none
//	KindDisconnected        control   disconnected          none
//	KindReconnected         control   reconnected           none
//
// Bus setup is the Transport's business. The Publisher performs exactly one
// Transport.Send per call, with no retry and no buffering, and returns the
// transport error to the caller.
//
// Usage:
//
//	pub := events.NewPublisher(transport)
//	err := pub.SendDataUpdate(ctx, reading)
package events
