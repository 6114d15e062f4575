package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the connector.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Connector ConnectorConfig `yaml:"connector"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Cloud     CloudConfig     `yaml:"cloud"`
	API       APIConfig       `yaml:"api"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ConnectorConfig identifies this connector instance.
type ConnectorConfig struct {
	ID string `yaml:"id"`
}

// DatabaseConfig contains SQLite database settings for the local device store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
	Topics    MQTTTopicsConfig    `yaml:"topics"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MQTTTopicsConfig controls how logical channels map onto the topic tree.
//
//	{root}/{data_plane}/{routing_key}   e.g. connector/connOut/device.registered
//	{root}/{control}/{routing_key}      e.g. connector/control/disconnected
//	{root}/{inbound}/{routing_key}      e.g. connector/connIn/schema.update
type MQTTTopicsConfig struct {
	Root      string `yaml:"root"`
	DataPlane string `yaml:"data_plane"`
	Control   string `yaml:"control"`
	Inbound   string `yaml:"inbound"`
}

// CloudConfig contains settings for the remote schema authority.
type CloudConfig struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Timeout int    `yaml:"timeout"` // seconds

	// HealthInterval is how often the connectivity watchdog probes the authority (seconds).
	// 0 disables the watchdog.
	HealthInterval int `yaml:"health_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CONNECTOR_SECTION_KEY
// For example: CONNECTOR_DATABASE_PATH, CONNECTOR_CLOUD_TOKEN
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Connector: ConnectorConfig{
			ID: "connector-001",
		},
		Database: DatabaseConfig{
			Path:        "./data/connector.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "connector",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			Topics: MQTTTopicsConfig{
				Root:      "connector",
				DataPlane: "connOut",
				Control:   "control",
				Inbound:   "connIn",
			},
		},
		Cloud: CloudConfig{
			Timeout:        10,
			HealthInterval: 30,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONNECTOR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("CONNECTOR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("CONNECTOR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("CONNECTOR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("CONNECTOR_CLOUD_URL"); v != "" {
		cfg.Cloud.URL = v
	}
	// Token should always come from the environment in production.
	if v := os.Getenv("CONNECTOR_CLOUD_TOKEN"); v != "" {
		cfg.Cloud.Token = v
	}

	if v := os.Getenv("CONNECTOR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
// All problems are reported together rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []string

	if c.Connector.ID == "" {
		errs = append(errs, "connector.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Topics.Root == "" || c.MQTT.Topics.DataPlane == "" || c.MQTT.Topics.Control == "" {
		errs = append(errs, "mqtt.topics.root, data_plane and control are required")
	}
	if c.MQTT.Topics.DataPlane == c.MQTT.Topics.Control {
		errs = append(errs, "mqtt.topics.data_plane and mqtt.topics.control must differ")
	}
	if strings.ContainsAny(c.MQTT.Topics.Root+c.MQTT.Topics.DataPlane+c.MQTT.Topics.Control+c.MQTT.Topics.Inbound, "+#") {
		errs = append(errs, "mqtt.topics must not contain wildcards")
	}

	if c.Cloud.URL == "" {
		errs = append(errs, "cloud.url is required")
	} else if u, err := url.Parse(c.Cloud.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "cloud.url must be an absolute URL")
	}
	if c.Cloud.Timeout <= 0 {
		errs = append(errs, "cloud.timeout must be positive")
	}
	if c.Cloud.HealthInterval < 0 {
		errs = append(errs, "cloud.health_interval must not be negative")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CloudTimeout returns the remote authority request timeout as a Duration.
func (c *Config) CloudTimeout() time.Duration {
	return time.Duration(c.Cloud.Timeout) * time.Second
}

// HealthInterval returns the connectivity watchdog interval as a Duration.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.Cloud.HealthInterval) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
