// Package api implements the connector's HTTP surface.
//
// Endpoints (all under /api/v1):
//
//	GET  /health               dependency status, 503 when any check fails
//	GET  /metrics              publish and sync counters plus runtime stats
//	GET  /devices              local device records
//	GET  /devices/{id}         one device record
//	POST /devices/{id}/schema  run a schema synchronisation for the device
//
// A schema sync request answers 202 Accepted with the outcome notification
// that was published. The request succeeds even when the sync itself failed,
// because the failure is reported on the bus; only a failure to publish that
// notification turns into a 502.
//
// The server follows the same lifecycle as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
