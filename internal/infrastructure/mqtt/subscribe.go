package mqtt

import (
	"fmt"
	"sort"
)

// Subscribe registers handler for every message matching filter.
//
// The subscription is remembered and restored after an automatic
// reconnect. Handlers run one at a time on paho's delivery goroutine; a
// handler that blocks holds back delivery on every topic. Handler errors
// and recovered panics go to the SetOnHandlerError callback, or to the
// logger when none is set.
//
//	err := client.Subscribe("app/actions/+", 1, func(topic string, payload []byte) error {
//	    return dispatch(topic, payload)
//	})
func (c *Client) Subscribe(filter string, qos byte, handler MessageHandler) error {
	if err := validateTopicFilter(filter); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Track first so a reconnect racing the SUBACK still restores it.
	c.subMu.Lock()
	c.subscriptions[filter] = subscription{topic: filter, qos: qos, handler: handler}
	c.subMu.Unlock()

	if err := awaitToken(c.client.Subscribe(filter, qos, c.wrapHandler(handler)), ErrSubscribeFailed); err != nil {
		c.subMu.Lock()
		delete(c.subscriptions, filter)
		c.subMu.Unlock()
		return err
	}
	return nil
}

// Unsubscribe drops a subscription made with the same filter. Messages
// already in flight may still reach the handler.
func (c *Client) Unsubscribe(filter string) error {
	if err := validateTopicFilter(filter); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	delete(c.subscriptions, filter)
	c.subMu.Unlock()

	return awaitToken(c.client.Unsubscribe(filter), ErrUnsubscribeFailed)
}

// Subscriptions returns the tracked filters in sorted order.
func (c *Client) Subscriptions() []string {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	out := make([]string, 0, len(c.subscriptions))
	for filter := range c.subscriptions {
		out = append(out, filter)
	}
	sort.Strings(out)
	return out
}
