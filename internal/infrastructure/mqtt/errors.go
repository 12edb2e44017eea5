package mqtt

import "errors"

// Sentinel errors. Operation failures wrap one of the *Failed errors and,
// where known, the cause (ErrTimeout or the paho token error).
var (
	// ErrNotConnected means the session is down; nothing was sent.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed means the initial connect did not complete.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS rejects levels other than 0, 1 and 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic rejects empty names, wildcards in publish topics and
	// misplaced wildcards in subscription filters.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrPayloadTooLarge rejects payloads above maxPayloadSize.
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")

	// ErrTimeout means the broker did not acknowledge within the ack timeout.
	ErrTimeout = errors.New("mqtt: broker did not acknowledge in time")

	// ErrHandlerPanic wraps a value recovered from a message handler.
	ErrHandlerPanic = errors.New("mqtt: message handler panicked")
)
