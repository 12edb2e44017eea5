package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-adapter/internal/binding"
)

// DefaultConnectTimeout applies when ConnectOptions.ConnectTimeout is zero.
const DefaultConnectTimeout = 10 * time.Second

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// MessageHandler processes a message received on a subscribed topic.
// It runs on the broker client's delivery goroutine.
type MessageHandler = func(topic string, payload []byte) error

// Credentials authenticate the adapter to the broker.
type Credentials struct {
	Username string
	Password string
}

// ConnectOptions are the per-connection session parameters.
type ConnectOptions struct {
	// CleanSession discards broker-side session state on connect.
	CleanSession bool

	// AutoReconnect lets the broker client restore a lost connection.
	AutoReconnect bool

	// ConnectTimeout bounds Connect. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// Credentials may be nil for anonymous brokers.
	Credentials *Credentials

	// Persistence stores in-flight QoS 1/2 messages. Nil means in-memory.
	Persistence pahomqtt.Store
}

// BrokerClient is a connected MQTT session. *mqtt.Client satisfies it.
type BrokerClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
	SetOnConnect(callback func())
	SetOnDisconnect(callback func(err error))
	Close() error
}

// Dialer opens a broker session. It must honour ctx cancellation.
type Dialer func(ctx context.Context, opts ConnectOptions) (BrokerClient, error)

// EventObserver receives messages arriving on event topics subscribed after
// entity synchronisation. It runs on the delivery goroutine and must not block.
type EventObserver interface {
	ObserveEvent(key, topic string, payload []byte)
}

// ConnectionManager owns the broker session lifecycle and lends the session
// to the dispatchers for the duration of a single call.
//
// Thread Safety: All methods are safe for concurrent use.
type ConnectionManager struct {
	registry *binding.Registry
	dial     Dialer
	reporter Reporter
	logger   Logger
	observer EventObserver

	mu     sync.RWMutex
	state  State
	client BrokerClient

	syncMu    sync.Mutex
	eventSubs map[string]string // event key -> subscribed topic
}

// NewConnectionManager creates a disconnected manager.
//
// Parameters:
//   - registry: Bindings used for event subscriptions on synchronisation
//   - dial: Opens broker sessions
//   - reporter: Receives subscribe and disconnect failures (nil discards them)
//   - logger: Optional logger (nil disables logging)
func NewConnectionManager(registry *binding.Registry, dial Dialer, reporter Reporter, logger Logger) *ConnectionManager {
	if reporter == nil {
		reporter = noopReporter{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &ConnectionManager{
		registry:  registry,
		dial:      dial,
		reporter:  reporter,
		logger:    logger,
		eventSubs: make(map[string]string),
	}
}

// SetEventObserver sets the receiver for synchronised event topics.
func (m *ConnectionManager) SetEventObserver(o EventObserver) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	m.observer = o
}

// State returns the current lifecycle state.
func (m *ConnectionManager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected reports whether publishes and subscribes are currently accepted.
func (m *ConnectionManager) IsConnected() bool {
	return m.State() == StateConnected
}

// Connect opens the broker session.
//
// Returns ErrConnection if the broker is unreachable, refuses the session,
// the timeout elapses, or the manager is not disconnected.
func (m *ConnectionManager) Connect(ctx context.Context, opts ConnectOptions) error {
	m.mu.Lock()
	if m.state != StateDisconnected {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: already %s", ErrConnection, state)
	}
	m.state = StateConnecting
	m.mu.Unlock()

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := m.dial(dialCtx, opts)
	if err == nil && dialCtx.Err() != nil {
		// Dialer finished after the deadline; do not keep a late session.
		_ = client.Close()
		err = dialCtx.Err()
	}
	if err != nil {
		m.mu.Lock()
		m.state = StateDisconnected
		m.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	client.SetOnDisconnect(func(lost error) { m.connectionLost(client, lost) })
	client.SetOnConnect(func() { m.reconnected(client) })

	m.mu.Lock()
	m.client = client
	m.state = StateConnected
	m.mu.Unlock()

	m.logger.Info("broker connected")
	return nil
}

func (m *ConnectionManager) connectionLost(c BrokerClient, err error) {
	m.mu.Lock()
	if m.client != c {
		m.mu.Unlock()
		return
	}
	m.state = StateDisconnected
	m.mu.Unlock()
	m.logger.Warn("broker connection lost", "error", err)
}

func (m *ConnectionManager) reconnected(c BrokerClient) {
	m.mu.Lock()
	if m.client != c || m.state == StateConnected {
		m.mu.Unlock()
		return
	}
	m.state = StateConnected
	m.mu.Unlock()
	m.logger.Info("broker reconnected")
}

// Disconnect closes the session. It always ends disconnected; a failing
// close is returned but the session is discarded regardless.
func (m *ConnectionManager) Disconnect() error {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	m.syncMu.Lock()
	clear(m.eventSubs)
	m.syncMu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrConnection, err)
		m.reporter.Report(Failure{Op: OpDisconnect, Err: wrapped})
		return wrapped
	}
	m.logger.Info("broker disconnected")
	return nil
}

// session returns the client if connected.
func (m *ConnectionManager) session() (BrokerClient, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateConnected || m.client == nil {
		return nil, false
	}
	return m.client, true
}

// Publish sends one message. Not queued when disconnected.
func (m *ConnectionManager) Publish(topic string, payload []byte, qos byte, retained bool) error {
	client, ok := m.session()
	if !ok {
		return fmt.Errorf("%w: %w", ErrPublish, ErrNotConnected)
	}
	if err := client.Publish(topic, payload, qos, retained); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

// Subscribe registers handler for topic.
func (m *ConnectionManager) Subscribe(topic string, qos byte, handler MessageHandler) error {
	client, ok := m.session()
	if !ok {
		return fmt.Errorf("%w: %w", ErrSubscribe, ErrNotConnected)
	}
	if err := client.Subscribe(topic, qos, handler); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}
	return nil
}

// Unsubscribe removes the subscription for topic.
func (m *ConnectionManager) Unsubscribe(topic string) error {
	client, ok := m.session()
	if !ok {
		return fmt.Errorf("%w: %w", ErrSubscribe, ErrNotConnected)
	}
	if err := client.Unsubscribe(topic); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}
	return nil
}

// OnEntitySynchronized subscribes to the event topic of every key that is
// both declared by the entity and bound in the registry. Topics subscribed
// by an earlier call whose key is no longer declared are unsubscribed.
//
// Failures are reported per topic and do not stop the remaining keys.
func (m *ConnectionManager) OnEntitySynchronized(eventKeys []string) {
	desired := make(map[string]binding.EventBinding, len(eventKeys))
	for _, key := range eventKeys {
		if b, ok := m.registry.Event(key); ok {
			desired[key] = b
		}
	}

	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	for key, topic := range m.eventSubs {
		if _, ok := desired[key]; ok {
			continue
		}
		if err := m.Unsubscribe(topic); err != nil {
			m.reporter.Report(Failure{Op: OpUnsubscribe, Key: key, Topic: topic, Err: err})
			continue
		}
		delete(m.eventSubs, key)
	}

	var failed int
	for key, b := range desired {
		topic := b.Topic.Address()
		if err := m.Subscribe(topic, byte(b.Topic.QoS()), m.eventHandler(key)); err != nil {
			failed++
			m.reporter.Report(Failure{Op: OpSubscribe, Key: key, Topic: topic, Err: err})
			continue
		}
		m.eventSubs[key] = topic
	}

	m.logger.Debug("event subscriptions synchronised",
		"declared", len(eventKeys),
		"bound", len(desired),
		"failed", failed,
	)
}

// EventSubscriptions returns the event topics currently subscribed, by key.
func (m *ConnectionManager) EventSubscriptions() map[string]string {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	out := make(map[string]string, len(m.eventSubs))
	for k, v := range m.eventSubs {
		out[k] = v
	}
	return out
}

func (m *ConnectionManager) eventHandler(key string) MessageHandler {
	observer := m.observer
	return func(topic string, payload []byte) error {
		if observer == nil {
			m.logger.Debug("event message received", "key", key, "topic", topic, "bytes", len(payload))
			return nil
		}
		observer.ObserveEvent(key, topic, payload)
		return nil
	}
}

// HealthCheck reports whether the session is usable.
func (m *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, ok := m.session()
	if !ok || !client.IsConnected() {
		return errors.Join(ErrConnection, ErrNotConnected)
	}
	return nil
}
