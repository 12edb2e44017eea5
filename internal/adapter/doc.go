// Package adapter connects an entity to an MQTT broker using the bindings
// held in a binding.Registry.
//
// Three components share one broker session:
//
//   - ConnectionManager owns the session lifecycle and event subscriptions
//   - OutboundDispatcher publishes property updates and event notifications
//   - InboundDispatcher turns action messages into entity.ActionRequest values
//
// Adapter wires them together and implements entity.Listener.
//
// Runtime failures (publish, subscribe, decode, submit) never stop dispatch.
// Each one is delivered to a Reporter as a Failure and the next item is
// processed. Only configuration and connection errors are returned to the
// caller of New and Start.
//
// Usage:
//
//	a, err := adapter.New(adapter.Options{
//	    Registry: reg,
//	    Dialer:   dial,
//	    Sink:     entitySink,
//	    Logger:   log,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := a.Start(ctx); err != nil {
//	    return err
//	}
//	defer a.Stop()
package adapter
