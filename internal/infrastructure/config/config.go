package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Persistence strategies for in-flight QoS 1/2 messages.
const (
	PersistenceMemory = "memory"
	PersistenceFile   = "file"
	PersistenceSQLite = "sqlite"
)

// Config is the root configuration structure for the Gray Logic adapter.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Adapter  AdapterConfig  `yaml:"adapter"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AdapterConfig identifies the adapter and sizes its inbound worker pool.
type AdapterConfig struct {
	ID           string `yaml:"id"`
	BindingsFile string `yaml:"bindings_file"`

	// Workers is the number of goroutines decoding and submitting actions.
	Workers int `yaml:"workers"`

	// QueueDepth is how many received action messages may wait for a worker
	// before the broker client is blocked. Zero selects the adapter default.
	QueueDepth int `yaml:"queue_depth"`
}

// DatabaseConfig contains SQLite database settings.
// Only used when mqtt.session.persistence is "sqlite".
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	Session   MQTTSessionConfig   `yaml:"session"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// StatusTopic carries the retained online/offline status and the LWT.
	StatusTopic string `yaml:"status_topic"`
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

// MQTTSessionConfig contains per-connection session settings.
type MQTTSessionConfig struct {
	CleanSession   bool   `yaml:"clean_session"`
	AutoReconnect  bool   `yaml:"auto_reconnect"`
	ConnectTimeout int    `yaml:"connect_timeout"` // seconds
	Persistence    string `yaml:"persistence"`     // memory, file or sqlite
	FileStoreDir   string `yaml:"file_store_dir"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	// MaxDelay caps the exponential backoff between reconnect attempts (seconds).
	MaxDelay int `yaml:"max_delay"`
}

// APIConfig contains HTTP status server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
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
//  4. Derived values (client ID, status topic) when still empty
//
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
// For example: GRAYLOGIC_DATABASE_PATH, GRAYLOGIC_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
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
	applyDerived(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Adapter: AdapterConfig{
			ID:           "adapter-001",
			BindingsFile: "./configs/bindings.yaml",
			Workers:      4,
			QueueDepth:   64,
		},
		Database: DatabaseConfig{
			Path:        "./data/adapter.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			Session: MQTTSessionConfig{
				CleanSession:   true,
				AutoReconnect:  true,
				ConnectTimeout: 10,
				Persistence:    PersistenceMemory,
				FileStoreDir:   "./data/mqtt-store",
			},
			Reconnect: MQTTReconnectConfig{
				MaxDelay: 60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Adapter
	if v := os.Getenv("GRAYLOGIC_BINDINGS_FILE"); v != "" {
		cfg.Adapter.BindingsFile = v
	}

	// Database
	if v := os.Getenv("GRAYLOGIC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// applyDerived fills values that depend on other settings.
func applyDerived(cfg *Config) {
	if cfg.MQTT.Broker.ClientID == "" {
		cfg.MQTT.Broker.ClientID = "graylogic-adapter-" + uuid.NewString()[:8]
	}
	if cfg.MQTT.StatusTopic == "" && cfg.Adapter.ID != "" {
		cfg.MQTT.StatusTopic = "graylogic/adapter/" + cfg.Adapter.ID + "/status"
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Adapter validation
	if c.Adapter.ID == "" {
		errs = append(errs, "adapter.id is required")
	}
	if c.Adapter.BindingsFile == "" {
		errs = append(errs, "adapter.bindings_file is required")
	}
	if c.Adapter.Workers < 1 {
		errs = append(errs, "adapter.workers must be at least 1")
	}
	if c.Adapter.QueueDepth < 0 {
		errs = append(errs, "adapter.queue_depth must not be negative")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Session.ConnectTimeout < 1 {
		errs = append(errs, "mqtt.session.connect_timeout must be at least 1 second")
	}
	switch c.MQTT.Session.Persistence {
	case PersistenceMemory:
	case PersistenceFile:
		if c.MQTT.Session.FileStoreDir == "" {
			errs = append(errs, "mqtt.session.file_store_dir is required for file persistence")
		}
	case PersistenceSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for sqlite persistence")
		}
	default:
		errs = append(errs, "mqtt.session.persistence must be memory, file, or sqlite")
	}
	if c.MQTT.Auth.Password != "" && c.MQTT.Auth.Username == "" {
		errs = append(errs, "mqtt.auth.username is required when a password is set")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the broker connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.MQTT.Session.ConnectTimeout) * time.Second
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
