// Package config handles loading and validating connector configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with CONNECTOR_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The cloud token and MQTT password should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Connector.ID)
package config
