// Gray Logic Adapter - MQTT topic binding for entity state, events and actions
//
// This is the main entry point for the adapter process. It loads the
// configuration and binding file, opens the broker session and serves the
// operations API until interrupted.
//
// The entity that owns the bound properties, events and actions is hosted
// outside this process; here, received actions are logged and acknowledged.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-adapter/internal/adapter"
	"github.com/nerrad567/gray-logic-adapter/internal/api"
	"github.com/nerrad567/gray-logic-adapter/internal/binding"
	"github.com/nerrad567/gray-logic-adapter/internal/entity"
	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/sessionstore"
	"github.com/nerrad567/gray-logic-adapter/migrations"
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

	// statsSampleInterval is how often counters are written to InfluxDB.
	statsSampleInterval = 30 * time.Second
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
// Components are started in dependency order and closed in reverse.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Gray Logic Adapter",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version).With("adapter_id", cfg.Adapter.ID)
	log.Info("configuration loaded", "path", configPath)

	registry, err := binding.LoadFile(cfg.Adapter.BindingsFile)
	if err != nil {
		return fmt.Errorf("loading bindings: %w", err)
	}
	counts := registry.Counts()
	log.Info("bindings loaded",
		"path", cfg.Adapter.BindingsFile,
		"properties", counts.Properties,
		"events", counts.Events,
		"actions", counts.Actions,
	)

	// Durable session state, only when configured.
	var db *database.DB
	if cfg.MQTT.Session.Persistence == config.PersistenceSQLite {
		db, err = openDatabase(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
	}

	store, err := sessionstore.New(cfg.MQTT.Session, cfg.MQTT.Broker.ClientID, db, log.Component("sessionstore"))
	if err != nil {
		return fmt.Errorf("selecting session store: %w", err)
	}

	// Optional InfluxDB recording of dispatch outcomes.
	reporters := adapter.MultiReporter{adapter.LogReporter{Logger: log.Component("adapter")}}
	var recorder *influxdb.Recorder
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			// Recording is optional; the adapter runs without it.
			log.Warn("InfluxDB unavailable, dispatch recording disabled", "error", err)
		} else {
			defer func() {
				log.Info("closing InfluxDB")
				influxClient.Close() //nolint:errcheck // Close never fails
			}()
			influxClient.SetOnError(func(err error) {
				log.Warn("InfluxDB write failed", "error", err)
			})
			recorder = influxdb.NewRecorder(influxClient, cfg.Adapter.ID)
			reporters = append(reporters, recorder)
			log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		}
	}

	opts := adapter.Options{
		Registry: registry,
		Dialer:   newDialer(cfg.MQTT, log.Component("mqtt"), reporters),
		Connect: adapter.ConnectOptions{
			CleanSession:   cfg.MQTT.Session.CleanSession,
			AutoReconnect:  cfg.MQTT.Session.AutoReconnect,
			ConnectTimeout: cfg.GetConnectTimeout(),
			Persistence:    store,
		},
		Sink:       loggingSink(log.Component("actions")),
		Reporter:   reporters,
		Logger:     log.Component("adapter"),
		Workers:    cfg.Adapter.Workers,
		QueueDepth: cfg.Adapter.QueueDepth,
		OnReady: func() {
			log.Info("adapter ready",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", cfg.MQTT.Broker.ClientID,
			)
		},
	}
	if cfg.MQTT.Auth.Username != "" {
		opts.Connect.Credentials = &adapter.Credentials{
			Username: cfg.MQTT.Auth.Username,
			Password: cfg.MQTT.Auth.Password,
		}
	}
	if recorder != nil {
		opts.EventObserver = recorder
	}

	a, err := adapter.New(opts)
	if err != nil {
		return fmt.Errorf("creating adapter: %w", err)
	}

	if err := a.OnAdapterStart(ctx); err != nil {
		return fmt.Errorf("starting adapter: %w", err)
	}
	defer func() {
		log.Info("stopping adapter")
		a.OnAdapterStop()
	}()

	// Every bound event is synchronised; the host entity narrows this
	// through OnSynchronized when it declares its events.
	eventKeys := make([]string, 0, counts.Events)
	for _, ev := range registry.Events() {
		eventKeys = append(eventKeys, ev.Key)
	}
	a.OnSynchronized(eventKeys)

	if recorder != nil {
		go recorder.Run(ctx, statsSampleInterval, a.Stats)
	}

	if cfg.API.Enabled {
		checks := map[string]api.HealthCheckFunc{}
		if db != nil {
			checks["database"] = db.HealthCheck
		}
		if influxClient != nil {
			checks["influxdb"] = influxClient.HealthCheck
		}

		srv, err := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.Component("api"),
			Adapter: a,
			Checks:  checks,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("Gray Logic Adapter started")
	<-ctx.Done()
	log.Info("shutdown signal received")

	return nil
}

// openDatabase opens SQLite and applies the embedded migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Path, "migrations_applied", applied)
	return db, nil
}

// newDialer adapts the adapter's session options to the MQTT client.
func newDialer(cfg config.MQTTConfig, log *logging.Logger, reporter adapter.Reporter) adapter.Dialer {
	return func(ctx context.Context, opts adapter.ConnectOptions) (adapter.BrokerClient, error) {
		session := mqtt.SessionOptions{
			CleanSession:   opts.CleanSession,
			AutoReconnect:  opts.AutoReconnect,
			ConnectTimeout: opts.ConnectTimeout,
			Store:          opts.Persistence,
		}
		if opts.Credentials != nil {
			session.Username = opts.Credentials.Username
			session.Password = opts.Credentials.Password
		}

		client, err := mqtt.Connect(ctx, cfg, session)
		if err != nil {
			return nil, err
		}
		client.SetLogger(log)
		client.SetOnHandlerError(func(topic string, err error) {
			reporter.Report(adapter.Failure{Op: adapter.OpReceive, Topic: topic, Err: err})
		})
		return client, nil
	}
}

// loggingSink acknowledges actions by logging them.
func loggingSink(log *logging.Logger) entity.ActionSink {
	return entity.ActionSinkFunc(func(_ context.Context, req entity.ActionRequest) error {
		log.Info("action received",
			"action", req.ActionKey,
			"request_id", req.ID,
			"body", req.Body,
		)
		return nil
	})
}

// getConfigPath returns the configuration file path.
// Priority: GRAYLOGIC_CONFIG environment variable > default path
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
