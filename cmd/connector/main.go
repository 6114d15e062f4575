// Command connector bridges a device-management service to its message bus.
//
// It publishes device lifecycle and telemetry events, synchronises device
// schemas between the remote schema authority and the local device store,
// and announces connectivity changes on the control channel.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-connector/migrations"

	"github.com/nerrad567/gray-logic-connector/internal/api"
	"github.com/nerrad567/gray-logic-connector/internal/audit"
	"github.com/nerrad567/gray-logic-connector/internal/cloud"
	"github.com/nerrad567/gray-logic-connector/internal/connectivity"
	"github.com/nerrad567/gray-logic-connector/internal/device"
	"github.com/nerrad567/gray-logic-connector/internal/events"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-connector/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-connector/internal/schemasync"
)

// Version information, set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"

	// schemaUpdateKey is the inbound routing key carrying schema changes.
	schemaUpdateKey = "schema.update"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the connector and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting connector",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).With("connector_id", cfg.Connector.ID)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	store := device.NewSQLiteRepository(db.DB)
	history := audit.NewSQLiteRepository(db.DB)
	history.SetOnError(func(err error) {
		log.Error("sync history write failed", "error", err)
	})

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT session established")
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	influxClient, err := connectInflux(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	metrics := api.NewMetrics()
	publisher := events.NewPublisher(mqtt.NewTransport(mqttClient, cfg.MQTT))
	recorders := schemasync.Recorders{metrics, history}
	if influxClient != nil {
		publisher.SetObserver(events.Observers(metrics.ObservePublish, influxClient.ObservePublish))
		recorders = append(recorders, influxClient)
	} else {
		publisher.SetObserver(metrics.ObservePublish)
	}

	cloudClient, err := cloud.New(cfg.Cloud)
	if err != nil {
		return fmt.Errorf("creating cloud client: %w", err)
	}

	orchestrator, err := schemasync.New(schemasync.Deps{
		Authority: cloudClient,
		Store:     store,
		Publisher: publisher,
		Logger:    log,
		Recorder:  recorders,
	})
	if err != nil {
		return fmt.Errorf("creating schema sync: %w", err)
	}

	consumer := schemasync.NewConsumer(orchestrator, log)
	inbound := mqttClient.Topics().Inbound(schemaUpdateKey)
	if subErr := mqttClient.Subscribe(inbound, byte(cfg.MQTT.QoS), consumer.Handle); subErr != nil {
		return fmt.Errorf("subscribing to schema updates: %w", subErr)
	}
	log.Info("listening for schema updates", "topic", inbound)

	if interval := cfg.HealthInterval(); interval > 0 {
		monitor := connectivity.New(connectivity.Config{
			Interval:  interval,
			Prober:    cloudClient,
			Announcer: publisher,
		})
		monitor.SetLogger(log)
		monitor.Start(ctx)
		defer monitor.Stop()
		log.Info("connectivity watchdog started", "interval", interval)
	}

	checks := map[string]api.HealthCheckFunc{
		"database": db.HealthCheck,
		"mqtt":     mqttClient.HealthCheck,
		"cloud":    cloudClient.HealthCheck,
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient.HealthCheck
	}

	if cfg.API.Enabled {
		server, srvErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Syncer:  orchestrator,
			Devices: store,
			Metrics: metrics,
			History: history,
			Checks:  checks,
			Version: version,
		})
		if srvErr != nil {
			return fmt.Errorf("creating API server: %w", srvErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(ctx, checks, log); err != nil {
		return fmt.Errorf("initial health check failed: %w", err)
	}

	log.Info("connector started")
	<-ctx.Done()
	log.Info("shutdown signal received")

	return nil
}

// getConfigPath returns the configuration file path.
// CONNECTOR_CONFIG overrides the default.
func getConfigPath() string {
	if path := os.Getenv("CONNECTOR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectInflux returns nil without error when InfluxDB is disabled.
func connectInflux(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}

	client, err := influxdb.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.URL, "org", cfg.Org, "bucket", cfg.Bucket)
	return client, nil
}

// healthCheck verifies local infrastructure at startup. The remote
// authority may be down at boot; that is reported, not fatal, and the
// connectivity watchdog takes over from there.
func healthCheck(ctx context.Context, checks map[string]api.HealthCheckFunc, log *logging.Logger) error {
	for _, name := range []string{"database", "mqtt", "influxdb"} {
		check, ok := checks[name]
		if !ok {
			continue
		}
		if err := check(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if check, ok := checks["cloud"]; ok {
		if err := check(ctx); err != nil {
			log.Warn("remote schema authority unreachable at startup", "error", err)
		}
	}
	return nil
}
