package binding

import "fmt"

// QoS is an MQTT delivery-guarantee level. The adapter only selects and
// passes the level through; the broker client implements the guarantee.
type QoS byte

// Supported QoS levels.
const (
	// QoSAtMostOnce delivers a message zero or one time (fire and forget).
	QoSAtMostOnce QoS = 0

	// QoSAtLeastOnce delivers a message one or more times.
	QoSAtLeastOnce QoS = 1

	// QoSExactlyOnce delivers a message exactly once.
	QoSExactlyOnce QoS = 2
)

// Valid reports whether q is 0, 1 or 2.
func (q QoS) Valid() bool {
	return q <= QoSExactlyOnce
}

// Topic is an immutable broker destination: address, QoS and retained flag.
//
// The zero value is not a usable topic; construct one with NewTopic.
type Topic struct {
	address  string
	qos      QoS
	retained bool
}

// NewTopic validates and returns a Topic.
//
// Returns:
//   - Topic: the constructed value
//   - error: ErrConfiguration if address is empty or qos is not 0, 1 or 2
func NewTopic(address string, qos QoS, retained bool) (Topic, error) {
	if address == "" {
		return Topic{}, fmt.Errorf("%w: topic address cannot be empty", ErrConfiguration)
	}
	if !qos.Valid() {
		return Topic{}, fmt.Errorf("%w: qos %d for %q (must be 0, 1 or 2)", ErrConfiguration, qos, address)
	}
	return Topic{address: address, qos: qos, retained: retained}, nil
}

// Address returns the hierarchical broker address.
func (t Topic) Address() string { return t.address }

// QoS returns the delivery-guarantee level.
func (t Topic) QoS() QoS { return t.qos }

// Retained reports whether the broker keeps the last payload for late subscribers.
func (t Topic) Retained() bool { return t.retained }

// String returns a compact description for logs, e.g. "dummy/properties/energy (qos=0)".
func (t Topic) String() string {
	if t.retained {
		return fmt.Sprintf("%s (qos=%d, retained)", t.address, t.qos)
	}
	return fmt.Sprintf("%s (qos=%d)", t.address, t.qos)
}
