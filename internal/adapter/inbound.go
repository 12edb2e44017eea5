package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-adapter/internal/binding"
	"github.com/nerrad567/gray-logic-adapter/internal/entity"
)

// Default inbound worker pool sizing.
const (
	DefaultWorkers    = 4
	DefaultQueueDepth = 64
)

// Subscriber registers topic handlers. ConnectionManager satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler MessageHandler) error
}

// InboundOptions configures an InboundDispatcher.
type InboundOptions struct {
	Registry   *binding.Registry
	Subscriber Subscriber
	Sink       entity.ActionSink
	Reporter   Reporter
	Stats      *Stats
	Logger     Logger

	// Workers is the number of goroutines decoding and submitting actions.
	Workers int

	// QueueDepth is the number of received messages buffered ahead of the
	// workers. Zero or negative selects DefaultQueueDepth.
	//
	// When the queue is full the handler blocks the broker client's
	// delivery goroutine. With paho's ordered delivery that also holds back
	// messages on every other topic of the session, so a sink that stalls
	// for long delays inbound acks and keepalive handling. Size the queue
	// for bursts and keep SubmitAction short.
	QueueDepth int
}

type inboundJob struct {
	binding binding.ActionBinding
	topic   string
	payload []byte
}

// InboundDispatcher subscribes to every action topic and turns received
// messages into action requests for the entity.
//
// Messages are decoded and submitted by a bounded worker pool. A full queue
// applies backpressure to the broker client rather than dropping messages.
// The set of action subscriptions is fixed at Start.
type InboundDispatcher struct {
	registry   *binding.Registry
	subscriber Subscriber
	sink       entity.ActionSink
	reporter   Reporter
	stats      *Stats
	logger     Logger
	workers    int

	jobs  chan inboundJob
	group *errgroup.Group

	mu       sync.RWMutex
	started  bool
	stopped  bool
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewInboundDispatcher creates a dispatcher. Call Start to subscribe.
func NewInboundDispatcher(opts InboundOptions) *InboundDispatcher {
	if opts.Reporter == nil {
		opts.Reporter = noopReporter{}
	}
	if opts.Stats == nil {
		opts.Stats = &Stats{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = DefaultQueueDepth
	}
	return &InboundDispatcher{
		registry:   opts.Registry,
		subscriber: opts.Subscriber,
		sink:       opts.Sink,
		reporter:   opts.Reporter,
		stats:      opts.Stats,
		logger:     opts.Logger,
		workers:    opts.Workers,
		jobs:       make(chan inboundJob, opts.QueueDepth),
		group:      &errgroup.Group{},
	}
}

// Start launches the workers and subscribes to every action binding.
//
// Subscribe failures are reported per topic; the remaining bindings are
// still subscribed and Start returns nil. Start returns ErrStopped after
// Stop, and is a no-op when already started.
//
// The context is passed to ActionSink.SubmitAction and is cancelled by Stop
// once in-flight work has drained.
func (d *InboundDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return ErrStopped
	}
	if d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = true
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.group.Go(d.work)
	}
	d.mu.Unlock()

	actions := d.registry.Actions()
	subscribed := 0
	for _, b := range actions {
		topic := b.Topic.Address()
		if err := d.subscriber.Subscribe(topic, byte(b.Topic.QoS()), d.handler(b)); err != nil {
			d.reporter.Report(Failure{Op: OpSubscribe, Key: b.Key, Topic: topic, Err: err})
			continue
		}
		subscribed++
	}

	d.logger.Info("action subscriptions registered",
		"bound", len(actions),
		"subscribed", subscribed,
		"workers", d.workers,
	)
	return nil
}

// Stop stops accepting messages, waits for queued and in-flight actions to
// finish, then cancels the submission context. Safe to call more than once.
func (d *InboundDispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.jobs)
		d.mu.Unlock()

		_ = d.group.Wait()

		d.mu.RLock()
		cancel := d.cancel
		d.mu.RUnlock()
		if cancel != nil {
			cancel()
		}
		d.logger.Info("inbound dispatcher stopped")
	})
}

func (d *InboundDispatcher) handler(b binding.ActionBinding) MessageHandler {
	return func(topic string, payload []byte) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.stopped {
			d.stats.droppedMessages.Add(1)
			return nil
		}
		// The broker client may reuse its buffer once the handler returns.
		buf := make([]byte, len(payload))
		copy(buf, payload)
		d.jobs <- inboundJob{binding: b, topic: topic, payload: buf}
		return nil
	}
}

func (d *InboundDispatcher) work() error {
	for job := range d.jobs {
		d.process(job)
	}
	return nil
}

func (d *InboundDispatcher) process(job inboundJob) {
	op, sentinel, counter := OpDecode, ErrDecode, &d.stats.decodeFailures
	defer func() {
		if r := recover(); r != nil {
			counter.Add(1)
			d.reporter.Report(Failure{
				Op:    op,
				Key:   job.binding.Key,
				Topic: job.topic,
				Err:   fmt.Errorf("%w: panic: %v", sentinel, r),
			})
		}
	}()

	req, err := job.binding.Decode(job.payload)
	if err != nil {
		d.stats.decodeFailures.Add(1)
		d.reporter.Report(Failure{
			Op:    OpDecode,
			Key:   job.binding.Key,
			Topic: job.topic,
			Err:   fmt.Errorf("%w: %w", ErrDecode, err),
		})
		return
	}
	req.ID = uuid.NewString()

	op, sentinel, counter = OpSubmit, ErrSubmit, &d.stats.submitFailures

	if err := d.sink.SubmitAction(d.ctx, req); err != nil {
		d.stats.submitFailures.Add(1)
		d.reporter.Report(Failure{
			Op:    OpSubmit,
			Key:   job.binding.Key,
			Topic: job.topic,
			Err:   fmt.Errorf("%w: %w", ErrSubmit, err),
		})
		return
	}
	d.stats.actionsDelivered.Add(1)
	d.logger.Debug("action submitted", "key", req.ActionKey, "id", req.ID)
}
