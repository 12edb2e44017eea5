package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for the adapter.
//
// It provides connection management, message publishing, subscription handling,
// and optional automatic reconnection with exponential backoff.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are automatically restored on reconnection.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// Callbacks for connection events (optional, set via SetOnConnect/SetOnDisconnect).
	onConnect      func()
	onDisconnect   func(err error)
	onHandlerError func(topic string, err error)
	callbackMu     sync.RWMutex

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// subscription holds subscription details for re-subscription on reconnect.
type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked on the paho delivery goroutine. A handler that
// blocks holds back delivery of later messages, which is how the inbound
// dispatcher applies backpressure.
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler = func(topic string, payload []byte) error

// Connect establishes a connection to the MQTT broker.
//
// It performs the following setup:
//  1. Builds connection options from config and session (broker URL, auth, TLS, store)
//  2. Configures Last Will and Testament (LWT) on the status topic
//  3. Enables auto-reconnect with exponential backoff if requested
//  4. Attempts the initial connection until ctx or the session timeout ends
//  5. Publishes online status to the status topic
//
// The initial attempt is not retried; only an established connection is
// restored automatically.
//
// Parameters:
//   - ctx: Bounds the initial connection attempt
//   - cfg: MQTT configuration from config.yaml
//   - session: Per-connection session options
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: ErrConnectionFailed if the broker cannot be reached in time
func Connect(ctx context.Context, cfg config.MQTTConfig, session SessionOptions) (*Client, error) {
	opts := buildClientOptions(cfg, session)
	configureLWT(opts, cfg.StatusTopic, cfg.Broker.ClientID)

	c := &Client{
		cfg:           cfg,
		options:       opts,
		subscriptions: make(map[string]subscription),
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT reconnecting", "broker", brokerURL(cfg))
		}
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()

	timeout := session.connectTimeout()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	case <-timer.C:
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnectHandler runs asynchronously and may not have executed yet,
	// so set the state here to ensure IsConnected() returns true.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return c, nil
}

// handleConnect is called when the connection is established.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.restoreSubscriptions()
	c.publishOnlineStatus()

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleDisconnect is called when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Warn("MQTT connection lost", "error", err)
	}

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		token := c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
		if !token.WaitTimeout(defaultAckTimeout) || token.Error() != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Error("MQTT resubscribe failed", "topic", sub.topic, "error", token.Error())
			}
		}
	}
}

// publishOnlineStatus publishes the retained online status.
func (c *Client) publishOnlineStatus() {
	if c.cfg.StatusTopic == "" {
		return
	}
	c.client.Publish(c.cfg.StatusTopic, statusQoS, true, buildOnlinePayload(c.cfg.Broker.ClientID))
}

// Close gracefully disconnects from the MQTT broker.
//
// It performs:
//  1. Publishes graceful offline status (different from LWT crash status)
//  2. Waits for pending publish operations
//  3. Disconnects from broker
//
// Returns:
//   - error: Always nil; a connection that is already closed is not an error
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() && c.cfg.StatusTopic != "" {
		token := c.client.Publish(c.cfg.StatusTopic, statusQoS, true, buildOfflinePayload(c.cfg.Broker.ClientID))
		token.WaitTimeout(defaultAckTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	return nil
}

// HealthCheck verifies the MQTT connection is alive.
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// SetOnConnect sets a callback to be invoked when connection is established.
// This is called on every reconnect, and on the initial connect if set early enough.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback to be invoked when connection is lost.
// The error parameter describes why the connection was lost. Close does not
// trigger it.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetOnHandlerError routes handler errors and recovered panics to fn
// instead of the logger. Panics arrive wrapped in ErrHandlerPanic.
func (c *Client) SetOnHandlerError(fn func(topic string, err error)) {
	c.callbackMu.Lock()
	c.onHandlerError = fn
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// wrapHandler adapts a MessageHandler to paho, recovering panics so one bad
// message cannot take down the delivery goroutine.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		topic := msg.Topic()
		defer func() {
			if r := recover(); r != nil {
				c.handlerFailed(topic, fmt.Errorf("%w: %v", ErrHandlerPanic, r))
			}
		}()

		if err := handler(topic, msg.Payload()); err != nil {
			c.handlerFailed(topic, err)
		}
	}
}

func (c *Client) handlerFailed(topic string, err error) {
	c.callbackMu.RLock()
	fn := c.onHandlerError
	c.callbackMu.RUnlock()
	if fn != nil {
		fn(topic, err)
		return
	}
	if logger := c.getLogger(); logger != nil {
		logger.Error("MQTT handler failed", "topic", topic, "error", err)
	}
}
