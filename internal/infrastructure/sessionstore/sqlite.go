package sessionstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/database"
)

// opTimeout bounds each statement. paho's Store interface has no context
// and no error returns, so failures are logged and the operation dropped.
const opTimeout = 5 * time.Second

// SQLiteStore is a pahomqtt.Store keeping in-flight packets in SQLite so a
// persistent session survives a process restart.
//
// Rows are scoped by client ID, so several adapters may share one database.
type SQLiteStore struct {
	db       *database.DB
	clientID string
	logger   Logger

	mu     sync.RWMutex
	opened bool
}

var _ pahomqtt.Store = (*SQLiteStore)(nil)

// NewSQLiteStore returns a store over db for clientID. The
// mqtt_session_packets table must already exist (see db.Migrate).
func NewSQLiteStore(db *database.DB, clientID string, logger Logger) *SQLiteStore {
	if logger == nil {
		logger = noopLogger{}
	}
	return &SQLiteStore{db: db, clientID: clientID, logger: logger}
}

// Open enables the store.
func (s *SQLiteStore) Open() {
	s.mu.Lock()
	s.opened = true
	s.mu.Unlock()
}

// Close disables the store. Stored packets are kept.
func (s *SQLiteStore) Close() {
	s.mu.Lock()
	s.opened = false
	s.mu.Unlock()
}

func (s *SQLiteStore) isOpen(op string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.opened {
		s.logger.Warn("session store used while closed", "op", op, "client_id", s.clientID)
	}
	return s.opened
}

// Put stores or replaces the packet under key.
func (s *SQLiteStore) Put(key string, message packets.ControlPacket) {
	if !s.isOpen("put") {
		return
	}

	var buf bytes.Buffer
	if err := message.Write(&buf); err != nil {
		s.logger.Error("session store encode failed", "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Upsert in place so a replaced packet (PUBREL over PUBLISH) keeps its
	// rowid and therefore its position in All.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mqtt_session_packets (client_id, packet_key, packet, stored_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (client_id, packet_key)
		DO UPDATE SET packet = excluded.packet, stored_at = excluded.stored_at`,
		s.clientID, key, buf.Bytes(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.logger.Error("session store put failed", "key", key, "error", err)
	}
}

// Get returns the packet under key, or nil if absent or unreadable.
func (s *SQLiteStore) Get(key string) packets.ControlPacket {
	if !s.isOpen("get") {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT packet FROM mqtt_session_packets WHERE client_id = ? AND packet_key = ?",
		s.clientID, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.Error("session store get failed", "key", key, "error", err)
		return nil
	}

	cp, err := packets.ReadPacket(bytes.NewReader(raw))
	if err != nil {
		// A corrupt row would be replayed forever; drop it.
		s.logger.Error("session store dropping unreadable packet", "key", key, "error", err)
		s.Del(key)
		return nil
	}
	return cp
}

// All returns every stored key in insertion order.
func (s *SQLiteStore) All() []string {
	if !s.isOpen("all") {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT packet_key FROM mqtt_session_packets WHERE client_id = ? ORDER BY rowid",
		s.clientID,
	)
	if err != nil {
		s.logger.Error("session store list failed", "error", err)
		return nil
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			s.logger.Error("session store list failed", "error", err)
			return keys
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("session store list failed", "error", err)
	}
	return keys
}

// Del removes the packet under key.
func (s *SQLiteStore) Del(key string) {
	if !s.isOpen("del") {
		return
	}
	s.exec("del", "DELETE FROM mqtt_session_packets WHERE client_id = ? AND packet_key = ?", s.clientID, key)
}

// Reset removes every packet for this client.
func (s *SQLiteStore) Reset() {
	if !s.isOpen("reset") {
		return
	}
	s.exec("reset", "DELETE FROM mqtt_session_packets WHERE client_id = ?", s.clientID)
}

func (s *SQLiteStore) exec(op, query string, args ...any) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error("session store "+op+" failed", "error", err)
	}
}
