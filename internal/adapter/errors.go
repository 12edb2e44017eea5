package adapter

import (
	"errors"

	"github.com/nerrad567/gray-logic-adapter/internal/binding"
)

// Domain errors for the adapter package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConfiguration is returned when bindings or adapter options are
	// invalid. The adapter refuses to start. It is the same value as
	// binding.ErrConfiguration.
	ErrConfiguration = binding.ErrConfiguration

	// ErrConnection is returned when the broker is unreachable, rejects the
	// credentials or does not answer within the connect timeout.
	ErrConnection = errors.New("adapter: connection failed")

	// ErrNotConnected is wrapped into publish and subscribe failures issued
	// outside the connected window. Such calls are never queued.
	ErrNotConnected = errors.New("adapter: not connected")

	// ErrPublish is returned when a single publish fails.
	ErrPublish = errors.New("adapter: publish failed")

	// ErrSubscribe is returned when a single subscribe or unsubscribe fails.
	ErrSubscribe = errors.New("adapter: subscribe failed")

	// ErrEncode is returned when an outbound codec rejects a value.
	ErrEncode = errors.New("adapter: encode failed")

	// ErrDecode is returned when an inbound payload cannot be decoded.
	// The message is dropped.
	ErrDecode = errors.New("adapter: decode failed")

	// ErrSubmit is returned when the engine rejects a decoded action.
	ErrSubmit = errors.New("adapter: action submission failed")

	// ErrStopped is returned when starting a component that was already stopped.
	ErrStopped = errors.New("adapter: stopped")
)
