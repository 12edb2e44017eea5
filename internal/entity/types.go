package entity

import (
	"context"
	"time"
)

// Operation is the kind of mutation a StateChange reports.
type Operation string

const (
	OperationCreate      Operation = "create"
	OperationUpdate      Operation = "update"
	OperationUpdateValue Operation = "update_value"
	OperationDelete      Operation = "delete"
)

// ResourceType identifies what a StateChange is about.
type ResourceType string

const (
	ResourceProperty      ResourceType = "property"
	ResourcePropertyValue ResourceType = "property_value"
	ResourceEvent         ResourceType = "event"
	ResourceAction        ResourceType = "action"
)

// Resource is implemented by every value a StateChange can carry.
type Resource interface {
	// ResourceKey returns the property, event or action key.
	ResourceKey() string
}

// Property is a snapshot of a single property: its key and current value.
type Property struct {
	Key   string `json:"key" cbor:"key"`
	Value any    `json:"value" cbor:"value"`
}

// ResourceKey implements Resource.
func (p Property) ResourceKey() string { return p.Key }

// EventDeclaration describes an event the entity has declared.
type EventDeclaration struct {
	Key         string `json:"key" cbor:"key"`
	Description string `json:"description,omitempty" cbor:"description,omitempty"`
}

// ResourceKey implements Resource.
func (e EventDeclaration) ResourceKey() string { return e.Key }

// ActionDeclaration describes an action the entity accepts.
type ActionDeclaration struct {
	Key         string `json:"key" cbor:"key"`
	Description string `json:"description,omitempty" cbor:"description,omitempty"`
	Enabled     bool   `json:"enabled" cbor:"enabled"`
}

// ResourceKey implements Resource.
func (a ActionDeclaration) ResourceKey() string { return a.Key }

// StateChange is one mutation reported by the engine. The adapter reads it
// and discards it; it never modifies or retains a StateChange.
type StateChange struct {
	Operation    Operation
	ResourceType ResourceType
	Resource     Resource
}

// EventNotification is the body emitted when a registered event fires.
type EventNotification struct {
	Key       string    `json:"key" cbor:"key"`
	Data      any       `json:"data,omitempty" cbor:"data,omitempty"`
	Timestamp time.Time `json:"timestamp" cbor:"timestamp"`
}

// ActionRequest is a decoded inbound command destined for the engine.
//
// Body has the type fixed by the action binding that produced it.
type ActionRequest struct {
	// ID correlates log lines for one inbound message.
	ID        string
	ActionKey string
	Body      any
}

// ActionSink is the action-intake interface exposed by the engine.
type ActionSink interface {
	// SubmitAction hands a decoded action to the engine.
	SubmitAction(ctx context.Context, req ActionRequest) error
}

// ActionSinkFunc adapts a function to ActionSink.
type ActionSinkFunc func(ctx context.Context, req ActionRequest) error

// SubmitAction implements ActionSink.
func (f ActionSinkFunc) SubmitAction(ctx context.Context, req ActionRequest) error {
	return f(ctx, req)
}

// Listener is the set of callbacks the engine invokes on the adapter.
type Listener interface {
	OnStateChangeBatch(batch []StateChange)
	OnEventNotification(notification EventNotification)
	OnSynchronized(currentEventKeys []string)
	OnAdapterStart(ctx context.Context) error
	OnAdapterStop()
}
