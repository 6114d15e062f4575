// Package cloud is the HTTP client for the remote schema authority.
//
// The authority is the source of truth for device schemas. The client
// writes normalized schemas with PUT {base}/devices/{id}/schema and probes
// GET {base}/health for the connectivity watchdog.
package cloud
