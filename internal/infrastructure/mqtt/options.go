package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-adapter/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout applies when SessionOptions.ConnectTimeout is zero.
	defaultConnectTimeout = 10 * time.Second

	// defaultAckTimeout bounds the wait for a PUBACK, SUBACK or UNSUBACK.
	defaultAckTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// statusQoS is used for the online/offline status and the LWT.
	statusQoS = 1

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// SessionOptions are the per-connection settings chosen by the caller
// rather than read from the broker section of the config.
type SessionOptions struct {
	// CleanSession discards broker-side session state on connect.
	CleanSession bool

	// AutoReconnect restores a lost connection with exponential backoff
	// capped at cfg.Reconnect.MaxDelay.
	AutoReconnect bool

	// ConnectTimeout bounds the initial connection. Zero means 10s.
	ConnectTimeout time.Duration

	// Username and Password override cfg.Auth when Username is set.
	Username string
	Password string

	// Store persists in-flight QoS 1/2 messages. Nil means paho's memory store.
	Store pahomqtt.Store
}

func (s SessionOptions) connectTimeout() time.Duration {
	if s.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return s.ConnectTimeout
}

// brokerURL returns tcp:// or ssl:// depending on the TLS setting.
func brokerURL(cfg config.MQTTConfig) string {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
}

// buildClientOptions creates paho MQTT options from config and session settings.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Clean session mode and message store
//   - Auto-reconnect with exponential backoff (if enabled)
//   - TLS configuration (if enabled)
func buildClientOptions(cfg config.MQTTConfig, session SessionOptions) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(cfg.Broker.ClientID)

	username, password := cfg.Auth.Username, cfg.Auth.Password
	if session.Username != "" {
		username, password = session.Username, session.Password
	}
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	opts.SetCleanSession(session.CleanSession)
	if session.Store != nil {
		opts.SetStore(session.Store)
	}

	// Only an established connection is restored; the first attempt fails fast.
	opts.SetConnectRetry(false)
	opts.SetAutoReconnect(session.AutoReconnect)
	if session.AutoReconnect && cfg.Reconnect.MaxDelay > 0 {
		opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)
	}

	opts.SetConnectTimeout(session.connectTimeout())
	opts.SetKeepAlive(defaultKeepAlive)

	// Handlers run one at a time on the delivery goroutine, so a blocking
	// handler throttles the broker. The inbound queue relies on this.
	opts.SetOrderMatters(true)

	// Resubscription is handled by restoreSubscriptions.
	opts.SetResumeSubs(false)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}
