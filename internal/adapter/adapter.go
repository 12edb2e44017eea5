package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-adapter/internal/binding"
	"github.com/nerrad567/gray-logic-adapter/internal/entity"
)

// Options configures an Adapter.
type Options struct {
	// Registry holds the immutable bindings. Required.
	Registry *binding.Registry

	// Dialer opens the broker session. Required.
	Dialer Dialer

	// Connect holds the session parameters passed to Dialer.
	Connect ConnectOptions

	// Sink receives decoded actions. Required when the registry has actions.
	Sink entity.ActionSink

	// Reporter receives runtime failures. Defaults to a LogReporter.
	Reporter Reporter

	// EventObserver receives messages on synchronised event topics.
	EventObserver EventObserver

	Logger Logger

	// Workers and QueueDepth size the inbound pool. Zero selects
	// DefaultWorkers and DefaultQueueDepth; see InboundOptions.
	Workers    int
	QueueDepth int

	// OnReady is called once Start has connected and subscribed.
	OnReady func()
}

// Adapter bridges one entity to the broker. It implements entity.Listener.
//
// Lifecycle:
//  1. New validates the options
//  2. Start connects and subscribes to action topics
//  3. The entity delivers state changes and events to the listener methods
//  4. Stop drains inbound work and disconnects
type Adapter struct {
	registry *binding.Registry
	connect  ConnectOptions
	logger   Logger
	onReady  func()

	stats    *Stats
	conn     *ConnectionManager
	outbound *OutboundDispatcher
	inbound  *InboundDispatcher

	stopOnce sync.Once
}

var _ entity.Listener = (*Adapter)(nil)

// New validates opts and assembles the dispatchers.
//
// Returns ErrConfiguration if a required option is missing.
func New(opts Options) (*Adapter, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrConfiguration)
	}
	if opts.Dialer == nil {
		return nil, fmt.Errorf("%w: dialer is required", ErrConfiguration)
	}
	if opts.Sink == nil && len(opts.Registry.Actions()) > 0 {
		return nil, fmt.Errorf("%w: action sink is required when actions are bound", ErrConfiguration)
	}
	if opts.Connect.ConnectTimeout < 0 {
		return nil, fmt.Errorf("%w: connect timeout must not be negative", ErrConfiguration)
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Reporter == nil {
		opts.Reporter = LogReporter{Logger: opts.Logger}
	}
	if opts.Sink == nil {
		opts.Sink = entity.ActionSinkFunc(func(context.Context, entity.ActionRequest) error { return nil })
	}

	stats := &Stats{}
	conn := NewConnectionManager(opts.Registry, opts.Dialer, opts.Reporter, opts.Logger)
	conn.SetEventObserver(opts.EventObserver)

	return &Adapter{
		registry: opts.Registry,
		connect:  opts.Connect,
		logger:   opts.Logger,
		onReady:  opts.OnReady,
		stats:    stats,
		conn:     conn,
		outbound: NewOutboundDispatcher(opts.Registry, conn, opts.Reporter, stats, opts.Logger),
		inbound: NewInboundDispatcher(InboundOptions{
			Registry:   opts.Registry,
			Subscriber: conn,
			Sink:       opts.Sink,
			Reporter:   opts.Reporter,
			Stats:      stats,
			Logger:     opts.Logger,
			Workers:    opts.Workers,
			QueueDepth: opts.QueueDepth,
		}),
	}, nil
}

// Start connects to the broker and subscribes to every action topic.
// OnReady runs after the subscriptions are in place.
//
// Returns ErrConnection if the broker cannot be reached.
func (a *Adapter) Start(ctx context.Context) error {
	if err := a.conn.Connect(ctx, a.connect); err != nil {
		return err
	}
	if err := a.inbound.Start(ctx); err != nil {
		_ = a.conn.Disconnect()
		return err
	}

	counts := a.registry.Counts()
	a.logger.Info("adapter started",
		"properties", counts.Properties,
		"events", counts.Events,
		"actions", counts.Actions,
	)
	if a.onReady != nil {
		a.onReady()
	}
	return nil
}

// Stop drains inbound work and disconnects. Safe to call more than once.
func (a *Adapter) Stop() {
	a.stopOnce.Do(func() {
		a.inbound.Stop()
		_ = a.conn.Disconnect() // reported by the connection manager
		a.logger.Info("adapter stopped")
	})
}

// OnAdapterStart implements entity.Listener.
func (a *Adapter) OnAdapterStart(ctx context.Context) error { return a.Start(ctx) }

// OnAdapterStop implements entity.Listener.
func (a *Adapter) OnAdapterStop() { a.Stop() }

// OnStateChangeBatch implements entity.Listener.
func (a *Adapter) OnStateChangeBatch(batch []entity.StateChange) {
	a.outbound.OnStateChangeBatch(batch)
}

// OnEventNotification implements entity.Listener.
func (a *Adapter) OnEventNotification(n entity.EventNotification) {
	_ = a.outbound.OnEventNotification(n) // reported by the dispatcher
}

// OnSynchronized implements entity.Listener.
func (a *Adapter) OnSynchronized(eventKeys []string) {
	a.conn.OnEntitySynchronized(eventKeys)
}

// Status is a point-in-time view of the adapter.
type Status struct {
	State              string            `json:"state"`
	Bindings           binding.Counts    `json:"bindings"`
	Stats              StatsSnapshot     `json:"stats"`
	EventSubscriptions map[string]string `json:"event_subscriptions"`
}

// Status returns the current state, binding counts and dispatch counters.
func (a *Adapter) Status() Status {
	return Status{
		State:              a.conn.State().String(),
		Bindings:           a.registry.Counts(),
		Stats:              a.stats.Snapshot(),
		EventSubscriptions: a.conn.EventSubscriptions(),
	}
}

// Stats returns the dispatch counters.
func (a *Adapter) Stats() StatsSnapshot {
	return a.stats.Snapshot()
}

// HealthCheck returns nil when the broker session is usable.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	return a.conn.HealthCheck(ctx)
}
