// Package schema holds the device schema type and the normalizers that
// rewrite its field names into the canonical naming convention.
//
// Devices describe their data points with snake_case keys; the remote
// authority and the local store both expect camelCase. A Normalizer is a
// pure, deterministic, idempotent function, injected into the schema sync
// orchestrator so another convention can be substituted without touching it.
//
//	normalized, err := schema.CamelCase(schema.Schema{"temp_c": "float"})
//	// normalized == schema.Schema{"tempC": "float"}
package schema
