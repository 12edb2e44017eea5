package sessionstore

import (
	"errors"
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/database"
)

// ErrNoDatabase is returned when sqlite persistence is selected without a database.
var ErrNoDatabase = errors.New("sessionstore: sqlite persistence requires a database")

// Logger is the subset of logging.Logger used by the stores.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// New returns the message store selected by cfg.Persistence.
//
//   - memory: paho's in-process store; nothing survives a restart
//   - file:   paho's file store under cfg.FileStoreDir
//   - sqlite: SQLiteStore over db, scoped to clientID
//
// Parameters:
//   - cfg: mqtt.session section of config.yaml
//   - clientID: MQTT client identifier owning the stored packets
//   - db: Open database; only required for sqlite
//   - logger: Receives store failures (may be nil)
//
// Returns:
//   - pahomqtt.Store: Store to pass in mqtt.SessionOptions
//   - error: If the persistence kind is unknown or its dependencies are missing
func New(cfg config.MQTTSessionConfig, clientID string, db *database.DB, logger Logger) (pahomqtt.Store, error) {
	switch cfg.Persistence {
	case "", config.PersistenceMemory:
		return pahomqtt.NewMemoryStore(), nil
	case config.PersistenceFile:
		if cfg.FileStoreDir == "" {
			return nil, fmt.Errorf("sessionstore: file persistence requires file_store_dir")
		}
		return pahomqtt.NewFileStore(cfg.FileStoreDir), nil
	case config.PersistenceSQLite:
		if db == nil {
			return nil, ErrNoDatabase
		}
		return NewSQLiteStore(db, clientID, logger), nil
	default:
		return nil, fmt.Errorf("sessionstore: unknown persistence %q", cfg.Persistence)
	}
}
