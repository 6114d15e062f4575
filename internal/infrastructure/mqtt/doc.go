// Package mqtt connects the connector to its MQTT message bus.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and subscription restore
//   - Publishing with QoS and a bounded wait for acknowledgement
//   - Topic subscriptions with panic-safe handlers
//   - Last Will and Testament for connector presence
//   - The events.Transport adapter that turns (channel, routing key, payload,
//     expiry) into a JSON envelope on a topic
//
// # Topic layout
//
//	{root}/{data_plane}/{routing_key}   device events (connOut)
//	{root}/{control}/{routing_key}      connectivity signals
//	{root}/{inbound}/{routing_key}      messages addressed to the connector
//	{root}/status/{client_id}           retained presence
//
// # Expiry
//
// MQTT 3.1.1 has no per-message expiry. Expiring events are published at
// QoS 0 so the broker never queues them for offline sessions, and the
// envelope carries expires_at so late consumers can drop stale messages.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	transport := mqtt.NewTransport(client, cfg.MQTT)
//	publisher := events.NewPublisher(transport)
package mqtt
