// Package audit keeps a persistent history of schema synchronisation
// attempts in the local SQLite store.
//
// Every run of the schema sync orchestrator produces one Entry, recording
// the device, the step reached and the failure message if any. The history
// survives restarts and is served by the HTTP API for diagnosing devices
// whose local and remote schemas have drifted apart.
package audit
