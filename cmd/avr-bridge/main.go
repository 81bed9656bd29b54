// AVR bridge for Gray Logic.
//
// The bridge decodes the ASCII control protocol of an AV receiver. Receiver
// output arrives on MQTT from a line transport (serial or telnet), is parsed
// into per-zone state and republished as retained JSON. Commands from Core or
// the HTTP API are formatted back into receiver commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-avr/migrations"

	"github.com/nerrad567/gray-logic-avr/internal/api"
	"github.com/nerrad567/gray-logic-avr/internal/audit"
	"github.com/nerrad567/gray-logic-avr/internal/bridges/avr"
	"github.com/nerrad567/gray-logic-avr/internal/history"
	"github.com/nerrad567/gray-logic-avr/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-avr/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-avr/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-avr/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-avr/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"

	// pruneInterval is how often old history rows are deleted.
	pruneInterval = time.Hour
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting AVR bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"receiver", cfg.Receiver.ID,
		"level", cfg.Logging.Level,
	)

	// State history and command log (optional)
	var db *database.DB
	var historyRepo *history.SQLiteRepository
	var commandLog *audit.SQLiteRepository
	if cfg.History.Enabled {
		db, err = database.Open(cfg.Database)
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

		historyRepo = history.NewSQLiteRepository(db.DB, cfg.Receiver.ID)
		commandLog = audit.NewSQLiteRepository(db.DB, cfg.Receiver.ID)
		if retention := cfg.GetHistoryRetention(); retention > 0 {
			go historyRepo.RunPruner(ctx, pruneInterval, retention, func(err error) {
				log.Warn("history prune failed", "error", err)
			})
		}
	} else {
		log.Info("state history disabled")
	}

	// MQTT, with the bridge's offline report as last will
	will, err := lastWill(cfg.Receiver.ID)
	if err != nil {
		return err
	}
	mqttClient, err := mqtt.Connect(cfg.MQTT, will)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// InfluxDB (optional)
	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Bridge and API
	var server *api.Server
	opts := avr.BridgeOptions{
		Config: avr.Config{
			ReceiverID:     cfg.Receiver.ID,
			Zone2:          cfg.Receiver.Zone2,
			Zone3:          cfg.Receiver.Zone3,
			RefreshOnStart: cfg.Receiver.RefreshOnStart,
			HealthInterval: cfg.GetHealthInterval(),
			Version:        version,
		},
		MQTTClient: mqtt.BridgeClient{Client: mqttClient},
		Logger:     log.Component("avr"),
		OnStateChange: func(c avr.StateChange) {
			if server != nil {
				server.PublishStateChange(c)
			}
		},
	}
	if historyRepo != nil {
		opts.History = historyRepo
		opts.Commands = commandLog
	}
	if influxClient != nil {
		opts.Telemetry = influxClient
	}

	bridge, err := avr.NewBridge(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	if cfg.API.Enabled {
		deps := api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log.Component("api"),
			Bridge:  bridge,
			Version: version,
		}
		if historyRepo != nil {
			deps.History = historyRepo
			deps.Audit = commandLog
		}
		server, err = api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("HTTP API disabled")
	}

	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		bridge.Stop()
	}()

	if influxClient != nil {
		go writeStatsLoop(ctx, influxClient, bridge, cfg.GetHealthInterval())
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AVRBRIDGE_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv("AVRBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// lastWill builds the retained offline report the broker publishes if the
// bridge disappears without a clean disconnect.
func lastWill(receiverID string) (*mqtt.Will, error) {
	payload, err := json.Marshal(avr.NewLWTMessage(receiverID))
	if err != nil {
		return nil, fmt.Errorf("encoding last will: %w", err)
	}
	return &mqtt.Will{
		Topic:    avr.HealthTopic(receiverID),
		Payload:  payload,
		QoS:      1,
		Retained: true,
	}, nil
}

// statsWriter receives periodic bridge counters.
type statsWriter interface {
	WriteBridgeStats(receiverID string, stats avr.BridgeStatistics, at time.Time)
}

// statsSource exposes the bridge counters.
type statsSource interface {
	ReceiverID() string
	Stats() avr.BridgeStatistics
}

// writeStatsLoop writes bridge counters on every tick until ctx is done.
func writeStatsLoop(ctx context.Context, w statsWriter, src statsSource, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.WriteBridgeStats(src.ReceiverID(), src.Stats(), now)
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
// db and influxClient may be nil when their features are disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
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
