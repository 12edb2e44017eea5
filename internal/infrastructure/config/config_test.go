package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
adapter:
  id: "dummy"
  bindings_file: "/etc/graylogic/bindings.yaml"
  workers: 2
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  session:
    clean_session: false
    connect_timeout: 5
    persistence: sqlite
api:
  port: 8091
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Adapter.ID != "dummy" {
		t.Errorf("Adapter.ID = %q, want %q", cfg.Adapter.ID, "dummy")
	}
	if cfg.Adapter.Workers != 2 {
		t.Errorf("Adapter.Workers = %d, want 2", cfg.Adapter.Workers)
	}
	if cfg.Adapter.QueueDepth != 64 {
		t.Errorf("Adapter.QueueDepth = %d, want default 64", cfg.Adapter.QueueDepth)
	}
	if cfg.MQTT.Broker.ClientID != "test-client" {
		t.Errorf("MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "test-client")
	}
	if cfg.MQTT.Session.CleanSession {
		t.Error("MQTT.Session.CleanSession = true, want false from file")
	}
	if !cfg.MQTT.Session.AutoReconnect {
		t.Error("MQTT.Session.AutoReconnect should keep its default of true")
	}
	if cfg.GetConnectTimeout().Seconds() != 5 {
		t.Errorf("GetConnectTimeout() = %v, want 5s", cfg.GetConnectTimeout())
	}
	if cfg.MQTT.StatusTopic != "graylogic/adapter/dummy/status" {
		t.Errorf("MQTT.StatusTopic = %q", cfg.MQTT.StatusTopic)
	}
}

func TestLoad_GeneratesClientID(t *testing.T) {
	cfg, err := Load(writeConfig(t, "adapter:\n  id: dummy\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	id := cfg.MQTT.Broker.ClientID
	if !strings.HasPrefix(id, "graylogic-adapter-") || len(id) != len("graylogic-adapter-")+8 {
		t.Errorf("generated ClientID = %q", id)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
adapter:
  id: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty adapter.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		applyDerived(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing adapter ID",
			mutate:  func(c *Config) { c.Adapter.ID = "" },
			wantErr: "adapter.id",
		},
		{
			name:    "missing bindings file",
			mutate:  func(c *Config) { c.Adapter.BindingsFile = "" },
			wantErr: "adapter.bindings_file",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Adapter.Workers = 0 },
			wantErr: "adapter.workers",
		},
		{
			name:    "negative queue depth",
			mutate:  func(c *Config) { c.Adapter.QueueDepth = -1 },
			wantErr: "adapter.queue_depth",
		},
		{
			name:    "missing broker host",
			mutate:  func(c *Config) { c.MQTT.Broker.Host = "" },
			wantErr: "mqtt.broker.host",
		},
		{
			name:    "invalid broker port",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 70000 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "zero connect timeout",
			mutate:  func(c *Config) { c.MQTT.Session.ConnectTimeout = 0 },
			wantErr: "connect_timeout",
		},
		{
			name:    "unknown persistence",
			mutate:  func(c *Config) { c.MQTT.Session.Persistence = "redis" },
			wantErr: "mqtt.session.persistence",
		},
		{
			name: "file persistence without dir",
			mutate: func(c *Config) {
				c.MQTT.Session.Persistence = PersistenceFile
				c.MQTT.Session.FileStoreDir = ""
			},
			wantErr: "file_store_dir",
		},
		{
			name: "sqlite persistence without database",
			mutate: func(c *Config) {
				c.MQTT.Session.Persistence = PersistenceSQLite
				c.Database.Path = ""
			},
			wantErr: "database.path",
		},
		{
			name:    "password without username",
			mutate:  func(c *Config) { c.MQTT.Auth.Password = "secret" },
			wantErr: "mqtt.auth.username",
		},
		{
			name:    "invalid API port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name: "API port ignored when disabled",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.Bucket = "b" },
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Adapter.ID = ""
	cfg.MQTT.Broker.Host = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"adapter.id", "mqtt.broker.host"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %q", err, want)
		}
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_BINDINGS_FILE", "/custom/bindings.yaml")
	t.Setenv("GRAYLOGIC_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYLOGIC_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_MQTT_PORT", "8883")
	t.Setenv("GRAYLOGIC_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Adapter.BindingsFile != "/custom/bindings.yaml" {
		t.Errorf("Adapter.BindingsFile = %q", cfg.Adapter.BindingsFile)
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestApplyEnvOverrides_InvalidPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("GRAYLOGIC_MQTT_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want default 1883", cfg.MQTT.Broker.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Adapter.ID == "" {
		t.Error("defaultConfig should have non-empty Adapter.ID")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if !cfg.MQTT.Session.CleanSession || !cfg.MQTT.Session.AutoReconnect {
		t.Error("defaultConfig should enable clean session and auto-reconnect")
	}
	if cfg.MQTT.Session.ConnectTimeout != 10 {
		t.Errorf("defaultConfig connect timeout = %d, want 10", cfg.MQTT.Session.ConnectTimeout)
	}
	if cfg.MQTT.Session.Persistence != PersistenceMemory {
		t.Errorf("defaultConfig persistence = %q, want memory", cfg.MQTT.Session.Persistence)
	}
}
