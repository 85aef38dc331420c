// Hearthwave Core - Smart Home Integration Hub
//
// This is the main entry point for the Hearthwave Core application.
// Hearthwave bridges Z-Wave sensors and WeMo switches onto a single
// MQTT-backed entity model with:
//   - A persistent device registry (SQLite)
//   - Canonical state published over MQTT and WebSocket
//   - Optional power/reading telemetry in InfluxDB
//
// Protocol hardware is owned by external driver daemons; Core talks to
// them over the hearthwave/driver/* MQTT topics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/hearthwave/hearthwave-core/migrations"

	"github.com/hearthwave/hearthwave-core/internal/api"
	"github.com/hearthwave/hearthwave-core/internal/bridges/wemo"
	"github.com/hearthwave/hearthwave-core/internal/bridges/zwave"
	"github.com/hearthwave/hearthwave-core/internal/device"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/config"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/database"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/influxdb"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/logging"
	"github.com/hearthwave/hearthwave-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Hearthwave Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
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
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db.DB)
	deviceRegistry := device.NewRegistry(deviceRepo)
	deviceRegistry.SetLogger(log)

	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", deviceRegistry.GetDeviceCount())

	// Connect to MQTT broker
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
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub is shared between the API server and the bridges, so
	// the composition root owns it. The API server runs its loop.
	hub := api.NewHub(cfg.WebSocket, log)

	// Start Z-Wave bridge (if enabled)
	if cfg.Bridges.ZWave.Enabled {
		zwaveBridge, startErr := startZWaveBridge(ctx, cfg, mqttClient, deviceRegistry, hub, influxClient, log)
		if startErr != nil {
			return fmt.Errorf("starting Z-Wave bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping Z-Wave bridge")
			zwaveBridge.Stop()
		}()
	} else {
		log.Info("Z-Wave bridge disabled")
	}

	// Start WeMo bridge (if enabled)
	if cfg.Bridges.Wemo.Enabled {
		wemoBridge, startErr := startWemoBridge(ctx, mqttClient, deviceRegistry, hub, influxClient, log)
		if startErr != nil {
			return fmt.Errorf("starting WeMo bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping WeMo bridge")
			wemoBridge.Stop()
		}()
	} else {
		log.Info("WeMo bridge disabled")
	}

	// Start API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Registry:    deviceRegistry,
		MQTT:        mqttClient,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Bridges
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("Hearthwave Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HEARTHWAVE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEARTHWAVE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when telemetry is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// startZWaveBridge wires the Z-Wave bridge to the driver daemon feed and
// starts both. The feed announces discovered values into the bridge and
// relays value-change notifications.
func startZWaveBridge(ctx context.Context, cfg *config.Config, mqttClient *mqtt.Client, registry *device.Registry, hub *api.Hub, influxClient *influxdb.Client, log *logging.Logger) (*zwave.Bridge, error) {
	feed := newZWaveFeed(mqttClient, log)

	opts := zwave.BridgeOptions{
		Source:    feed,
		MQTT:      mqttClient,
		Registry:  &zwaveRegistryAdapter{registry: registry},
		Hub:       hub,
		Logger:    log,
		ReArmBase: time.Duration(cfg.Bridges.ZWave.ReArmBaseSeconds) * time.Second,
	}
	if influxClient != nil {
		opts.Telemetry = influxClient
	}

	bridge, err := zwave.NewBridge(opts)
	if err != nil {
		return nil, fmt.Errorf("creating bridge: %w", err)
	}

	if err := bridge.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting bridge: %w", err)
	}

	// Subscriptions last so announcements land in a running bridge.
	if err := feed.Start(ctx, bridge); err != nil {
		bridge.Stop()
		return nil, fmt.Errorf("starting driver feed: %w", err)
	}

	log.Info("zwave bridge wired to driver feed")
	return bridge, nil
}

// startWemoBridge wires the WeMo bridge to the driver daemon feed and
// starts both. The feed materialises driver snapshots as wemo.Device
// handles and delivers refresh events.
func startWemoBridge(ctx context.Context, mqttClient *mqtt.Client, registry *device.Registry, hub *api.Hub, influxClient *influxdb.Client, log *logging.Logger) (*wemo.Bridge, error) {
	feed := newWemoFeed(mqttClient, log)

	opts := wemo.BridgeOptions{
		Source:   feed,
		MQTT:     &wemoMQTTAdapter{client: mqttClient},
		Registry: &wemoRegistryAdapter{registry: registry},
		Hub:      hub,
		Logger:   log,
	}
	if influxClient != nil {
		opts.Telemetry = influxClient
	}

	bridge, err := wemo.NewBridge(opts)
	if err != nil {
		return nil, fmt.Errorf("creating bridge: %w", err)
	}

	if err := bridge.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting bridge: %w", err)
	}

	if err := feed.Start(ctx, bridge); err != nil {
		bridge.Stop()
		return nil, fmt.Errorf("starting driver feed: %w", err)
	}

	log.Info("wemo bridge wired to driver feed")
	return bridge, nil
}
