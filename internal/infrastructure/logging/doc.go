// Package logging provides structured logging for the connector.
//
// It wraps log/slog so every component logs the same way: JSON in
// production, text in development, with service and version fields on
// every entry.
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("schema synchronised", "device_id", id)
//
// Never log the cloud token or MQTT credentials.
package logging
