package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// maxPayloadSize caps a single message at 1MB, the common broker default.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and blocks until the broker has
// acknowledged it at the given QoS, or the ack timeout passes.
//
// QoS 0 returns once the packet is written. Failures wrap ErrPublishFailed
// together with ErrTimeout or the broker's error.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validateTopicName(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %w: %d bytes exceeds %d", ErrPublishFailed, ErrPayloadTooLarge, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	return awaitToken(c.client.Publish(topic, qos, retained, payload), ErrPublishFailed)
}

// PublishString publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// awaitToken waits for a paho token and wraps its outcome in sentinel.
func awaitToken(token pahomqtt.Token, sentinel error) error {
	if !token.WaitTimeout(defaultAckTimeout) {
		return fmt.Errorf("%w: %w after %v", sentinel, ErrTimeout, defaultAckTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}
