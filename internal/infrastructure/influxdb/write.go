package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-connector/internal/events"
	"github.com/nerrad567/gray-logic-connector/internal/schemasync"
)

const (
	measurementSchemaSync   = "schema_sync"
	measurementEventPublish = "event_publish"
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordSync writes one schema_sync point. It satisfies schemasync.Recorder.
func (c *Client) RecordSync(result schemasync.Result, elapsed time.Duration) {
	fields := map[string]any{
		"duration_ms": float64(elapsed.Microseconds()) / 1000,
	}
	if result.Err != nil {
		fields["error"] = result.Err.Error()
	}

	c.writePoint(measurementSchemaSync,
		map[string]string{
			"device_id": result.DeviceID,
			"step":      string(result.Step),
			"outcome":   outcome(result.Err),
		},
		fields,
	)
}

// ObservePublish writes one event_publish point. It satisfies events.Observer.
func (c *Client) ObservePublish(_ events.Kind, route events.Route, err error) {
	c.writePoint(measurementEventPublish,
		map[string]string{
			"routing_key": route.RoutingKey,
			"channel":     string(route.Channel),
			"outcome":     outcome(err),
		},
		map[string]any{"count": 1},
	)
}

func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

var _ schemasync.Recorder = (*Client)(nil)
