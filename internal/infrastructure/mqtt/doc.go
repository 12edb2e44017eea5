// Package mqtt provides MQTT broker connectivity for the adapter.
//
// This package manages:
//   - Connection to the broker with optional auto-reconnect
//   - Clean or persistent sessions with a pluggable message store
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored after reconnect
//   - Last Will and Testament (LWT) and online/offline status messages
//
// *Client satisfies adapter.BrokerClient.
//
// # Security Considerations
//
//   - TLS should be enabled for non-local brokers (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT, mqtt.SessionOptions{
//	    CleanSession:   true,
//	    AutoReconnect:  true,
//	    ConnectTimeout: 10 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("app/actions/+", 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	client.Publish("dummy/properties/energy", []byte("42"), 1, false)
package mqtt
