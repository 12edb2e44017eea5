package binding

import "strings"

// Default topic hierarchy. Adapters may bind arbitrary addresses instead;
// these builders only exist so that the common layout is spelled the same
// way everywhere.
const (
	// TopicSegmentProperties is the branch for property topics.
	TopicSegmentProperties = "state/properties"

	// TopicSegmentEvents is the branch for event topics.
	TopicSegmentEvents = "state/events"

	// TopicSegmentActions is the branch for action topics.
	TopicSegmentActions = "state/actions"
)

// PropertySuffix is the last segment of a default property topic.
type PropertySuffix string

const (
	PropertyCreated PropertySuffix = "created"
	PropertyDeleted PropertySuffix = "deleted"
)

// Valid reports whether s is one of the declared property suffixes.
func (s PropertySuffix) Valid() bool {
	return s == PropertyCreated || s == PropertyDeleted
}

// EventSuffix is the last segment of a default event topic.
type EventSuffix string

const (
	EventRegistered   EventSuffix = "registered"
	EventUnregistered EventSuffix = "unregistered"
	EventUpdated      EventSuffix = "updated"
)

// Valid reports whether s is one of the declared event suffixes.
func (s EventSuffix) Valid() bool {
	switch s {
	case EventRegistered, EventUnregistered, EventUpdated:
		return true
	}
	return false
}

// ActionSuffix is the last segment of a default action topic.
type ActionSuffix string

const (
	ActionEnabled  ActionSuffix = "enabled"
	ActionDisabled ActionSuffix = "disabled"
	ActionUpdated  ActionSuffix = "updated"
)

// Valid reports whether s is one of the declared action suffixes.
func (s ActionSuffix) Valid() bool {
	switch s {
	case ActionEnabled, ActionDisabled, ActionUpdated:
		return true
	}
	return false
}

// Topics builds addresses in the default hierarchy, optionally below Prefix.
//
//	topics := binding.Topics{Prefix: "site-01"}
//	topics.Event("alarm", binding.EventUpdated)
//	// Returns: "site-01/state/events/alarm/updated"
type Topics struct {
	Prefix string
}

// Property returns state/properties/<key>/<suffix>.
func (t Topics) Property(key string, suffix PropertySuffix) string {
	return t.join(TopicSegmentProperties, key, string(suffix))
}

// Event returns state/events/<key>/<suffix>.
func (t Topics) Event(key string, suffix EventSuffix) string {
	return t.join(TopicSegmentEvents, key, string(suffix))
}

// Action returns state/actions/<key>/<suffix>.
func (t Topics) Action(key string, suffix ActionSuffix) string {
	return t.join(TopicSegmentActions, key, string(suffix))
}

// AllProperties returns a pattern matching every default property topic.
//
// Pattern: state/properties/+/+
func (t Topics) AllProperties() string {
	return t.join(TopicSegmentProperties, "+", "+")
}

// AllEvents returns a pattern matching every default event topic.
//
// Pattern: state/events/+/+
func (t Topics) AllEvents() string {
	return t.join(TopicSegmentEvents, "+", "+")
}

// AllActions returns a pattern matching every default action topic.
//
// Pattern: state/actions/+/+
func (t Topics) AllActions() string {
	return t.join(TopicSegmentActions, "+", "+")
}

func (t Topics) join(parts ...string) string {
	prefix := strings.Trim(t.Prefix, "/")
	if prefix != "" {
		parts = append([]string{prefix}, parts...)
	}
	return strings.Join(parts, "/")
}
