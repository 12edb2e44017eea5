package adapter

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-adapter/internal/binding"
	"github.com/nerrad567/gray-logic-adapter/internal/entity"
)

// Publisher sends a single message. ConnectionManager satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// OutboundDispatcher turns entity state changes and event notifications
// into broker publishes.
//
// Each publish is attempted independently: a failure is reported and the
// next item is processed. Nothing is retried or buffered.
type OutboundDispatcher struct {
	registry  *binding.Registry
	publisher Publisher
	reporter  Reporter
	stats     *Stats
	logger    Logger
}

// NewOutboundDispatcher creates a dispatcher. stats may be nil.
func NewOutboundDispatcher(registry *binding.Registry, publisher Publisher, reporter Reporter, stats *Stats, logger Logger) *OutboundDispatcher {
	if reporter == nil {
		reporter = noopReporter{}
	}
	if stats == nil {
		stats = &Stats{}
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &OutboundDispatcher{
		registry:  registry,
		publisher: publisher,
		reporter:  reporter,
		stats:     stats,
		logger:    logger,
	}
}

// OnStateChangeBatch publishes every property update in batch that has a
// binding, in batch order. Other changes are ignored.
//
// Returns the number of messages published successfully.
func (d *OutboundDispatcher) OnStateChangeBatch(batch []entity.StateChange) int {
	published := 0
	for _, change := range batch {
		prop, ok := propertyUpdate(change)
		if !ok {
			d.stats.ignoredChanges.Add(1)
			continue
		}
		b, ok := d.registry.Property(prop.Key)
		if !ok {
			d.stats.unboundKeys.Add(1)
			continue
		}
		if d.publishProperty(b, prop) {
			published++
		}
	}
	return published
}

// propertyUpdate extracts the property carried by an UPDATE or UPDATE_VALUE
// change to a property resource.
func propertyUpdate(change entity.StateChange) (entity.Property, bool) {
	switch change.ResourceType {
	case entity.ResourceProperty, entity.ResourcePropertyValue:
	default:
		return entity.Property{}, false
	}
	switch change.Operation {
	case entity.OperationUpdate, entity.OperationUpdateValue:
	default:
		return entity.Property{}, false
	}
	switch r := change.Resource.(type) {
	case entity.Property:
		return r, true
	case *entity.Property:
		if r == nil {
			return entity.Property{}, false
		}
		return *r, true
	default:
		return entity.Property{}, false
	}
}

func (d *OutboundDispatcher) publishProperty(b binding.PropertyBinding, prop entity.Property) bool {
	payload, err := b.Encode(prop)
	if err != nil {
		d.stats.encodeFailures.Add(1)
		d.reporter.Report(Failure{
			Op:    OpEncode,
			Key:   b.Key,
			Topic: b.Topic.Address(),
			Err:   fmt.Errorf("%w: %w", ErrEncode, err),
		})
		return false
	}
	return d.send(b.Key, b.Topic, payload) == nil
}

// OnEventNotification publishes n if its key has a binding. Unbound keys
// are skipped and nil is returned. A failed publish is reported and also
// returned.
func (d *OutboundDispatcher) OnEventNotification(n entity.EventNotification) error {
	b, ok := d.registry.Event(n.Key)
	if !ok {
		d.stats.unboundKeys.Add(1)
		return nil
	}
	payload, err := b.Encode(n)
	if err != nil {
		d.stats.encodeFailures.Add(1)
		f := Failure{
			Op:    OpEncode,
			Key:   b.Key,
			Topic: b.Topic.Address(),
			Err:   fmt.Errorf("%w: %w", ErrEncode, err),
		}
		d.reporter.Report(f)
		return f
	}
	return d.send(b.Key, b.Topic, payload)
}

func (d *OutboundDispatcher) send(key string, topic binding.Topic, payload []byte) error {
	err := d.publisher.Publish(topic.Address(), payload, byte(topic.QoS()), topic.Retained())
	if err != nil {
		if !errors.Is(err, ErrPublish) {
			err = fmt.Errorf("%w: %w", ErrPublish, err)
		}
		d.stats.publishFailures.Add(1)
		f := Failure{Op: OpPublish, Key: key, Topic: topic.Address(), Err: err}
		d.reporter.Report(f)
		return f
	}
	d.stats.published.Add(1)
	d.logger.Debug("published", "key", key, "topic", topic.Address(), "bytes", len(payload))
	return nil
}
