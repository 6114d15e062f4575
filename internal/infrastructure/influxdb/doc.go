// Package influxdb records connector telemetry in InfluxDB.
//
// Two measurements are written, both non-blocking and batched by the
// influxdb-client-go write API:
//
//	schema_sync    tags: device_id, step, outcome   fields: duration_ms, error
//	event_publish  tags: routing_key, channel, outcome   fields: count
//
// The client is optional. When disabled in config, Connect returns
// ErrDisabled and the connector runs without telemetry.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err == nil {
//	    defer client.Close()
//	    publisher.SetObserver(client.ObservePublish)
//	}
package influxdb
