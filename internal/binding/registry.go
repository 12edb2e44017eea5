package binding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/gray-logic-adapter/internal/entity"
)

// PropertyBinding maps a property key to the topic its snapshots are
// published on.
type PropertyBinding struct {
	Key    string
	Topic  Topic
	encode PropertyEncoder
}

// Encode produces the outbound payload for p.
func (b PropertyBinding) Encode(p entity.Property) ([]byte, error) {
	return b.encode(p)
}

// EventBinding maps an event key to the topic its notifications are
// published on.
type EventBinding struct {
	Key    string
	Topic  Topic
	encode EventEncoder
}

// Encode produces the outbound payload for n.
func (b EventBinding) Encode(n entity.EventNotification) ([]byte, error) {
	return b.encode(n)
}

// ActionBinding maps an action key to the topic its commands arrive on.
type ActionBinding struct {
	Key    string
	Topic  Topic
	decode ActionDecoder
}

// Decode turns an inbound payload into an ActionRequest for this binding's key.
func (b ActionBinding) Decode(payload []byte) (entity.ActionRequest, error) {
	body, err := b.decode(payload)
	if err != nil {
		return entity.ActionRequest{}, err
	}
	return entity.ActionRequest{ActionKey: b.Key, Body: body}, nil
}

// Builder collects bindings and produces a read-only Registry.
//
// Each Add call validates its arguments and returns ErrConfiguration on
// failure. The first failure is also remembered so Build refuses to produce
// a registry even if the caller ignored the Add error.
//
// Adding a key that already exists in the same namespace replaces the
// earlier binding (last write wins).
//
// A Builder is not safe for concurrent use.
type Builder struct {
	properties map[string]PropertyBinding
	events     map[string]EventBinding
	actions    map[string]ActionBinding
	err        error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		properties: make(map[string]PropertyBinding),
		events:     make(map[string]EventBinding),
		actions:    make(map[string]ActionBinding),
	}
}

// AddPropertyBinding binds a property key to an outbound topic.
func (b *Builder) AddPropertyBinding(key, address string, qos QoS, retained bool, encode PropertyEncoder) error {
	topic, err := b.validate("property", key, address, qos, retained, encode == nil, true)
	if err != nil {
		return err
	}
	b.properties[key] = PropertyBinding{Key: key, Topic: topic, encode: encode}
	return nil
}

// AddEventBinding binds an event key to an outbound topic.
func (b *Builder) AddEventBinding(key, address string, qos QoS, retained bool, encode EventEncoder) error {
	topic, err := b.validate("event", key, address, qos, retained, encode == nil, true)
	if err != nil {
		return err
	}
	b.events[key] = EventBinding{Key: key, Topic: topic, encode: encode}
	return nil
}

// AddActionBinding binds an action key to an inbound topic. Retention does
// not apply to subscriptions.
func (b *Builder) AddActionBinding(key, address string, qos QoS, decode ActionDecoder) error {
	topic, err := b.validate("action", key, address, qos, false, decode == nil, false)
	if err != nil {
		return err
	}
	b.actions[key] = ActionBinding{Key: key, Topic: topic, decode: decode}
	return nil
}

// validate checks one Add call. Published topics must name a single
// destination, so wildcards are rejected when publish is set.
func (b *Builder) validate(kind, key, address string, qos QoS, retained, missingCodec, publish bool) (Topic, error) {
	var err error
	var topic Topic
	switch {
	case key == "":
		err = fmt.Errorf("%w: %s key cannot be empty", ErrConfiguration, kind)
	case missingCodec:
		err = fmt.Errorf("%w: %s %q has no codec", ErrConfiguration, kind, key)
	case publish && strings.ContainsAny(address, "+#"):
		err = fmt.Errorf("%w: %s %q: wildcard in publish topic %q", ErrConfiguration, kind, key, address)
	default:
		topic, err = NewTopic(address, qos, retained)
		if err != nil {
			err = fmt.Errorf("%s %q: %w", kind, key, err)
		}
	}
	if err != nil && b.err == nil {
		b.err = err
	}
	return topic, err
}

// Build validates the collected bindings and returns an immutable Registry.
//
// Returns:
//   - *Registry: the read-only registry
//   - error: the first Add failure, or ErrConfiguration if no binding exists
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.properties)+len(b.events)+len(b.actions) == 0 {
		return nil, fmt.Errorf("%w: at least one binding is required", ErrConfiguration)
	}

	r := &Registry{
		properties: make(map[string]PropertyBinding, len(b.properties)),
		events:     make(map[string]EventBinding, len(b.events)),
		actions:    make(map[string]ActionBinding, len(b.actions)),
	}
	for k, v := range b.properties {
		r.properties[k] = v
	}
	for k, v := range b.events {
		r.events[k] = v
	}
	for k, v := range b.actions {
		r.actions[k] = v
	}
	return r, nil
}

// Registry is the read-only mapping from semantic keys to bindings.
//
// Thread Safety: a Registry is never modified after Build, so all methods
// are safe for concurrent use without locking.
type Registry struct {
	properties map[string]PropertyBinding
	events     map[string]EventBinding
	actions    map[string]ActionBinding
}

// Property returns the binding for a property key.
func (r *Registry) Property(key string) (PropertyBinding, bool) {
	b, ok := r.properties[key]
	return b, ok
}

// Event returns the binding for an event key.
func (r *Registry) Event(key string) (EventBinding, bool) {
	b, ok := r.events[key]
	return b, ok
}

// Action returns the binding for an action key.
func (r *Registry) Action(key string) (ActionBinding, bool) {
	b, ok := r.actions[key]
	return b, ok
}

// Actions returns every action binding ordered by key.
func (r *Registry) Actions() []ActionBinding {
	out := make([]ActionBinding, 0, len(r.actions))
	for _, b := range r.actions {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Events returns every event binding ordered by key.
func (r *Registry) Events() []EventBinding {
	out := make([]EventBinding, 0, len(r.events))
	for _, b := range r.events {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Counts reports how many bindings each namespace holds.
type Counts struct {
	Properties int `json:"properties"`
	Events     int `json:"events"`
	Actions    int `json:"actions"`
}

// Counts returns the number of bindings per namespace.
func (r *Registry) Counts() Counts {
	return Counts{
		Properties: len(r.properties),
		Events:     len(r.events),
		Actions:    len(r.actions),
	}
}
