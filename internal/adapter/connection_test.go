package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func connectedManager(t *testing.T) (*ConnectionManager, *mockBroker, *recordingReporter) {
	t.Helper()
	broker := newMockBroker()
	rep := &recordingReporter{}
	m := NewConnectionManager(testRegistry(t), dialerFor(broker, nil), rep, nil)
	if err := m.Connect(context.Background(), ConnectOptions{}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return m, broker, rep
}

// =============================================================================
// Connect / Disconnect
// =============================================================================

func TestConnect_PassesOptions(t *testing.T) {
	broker := newMockBroker()
	var got ConnectOptions
	m := NewConnectionManager(testRegistry(t), dialerFor(broker, &got), nil, nil)

	if m.State() != StateDisconnected {
		t.Fatalf("initial State() = %v, want disconnected", m.State())
	}

	opts := ConnectOptions{
		CleanSession:   true,
		AutoReconnect:  true,
		ConnectTimeout: 5 * time.Second,
		Credentials:    &Credentials{Username: "u", Password: "p"},
	}
	if err := m.Connect(context.Background(), opts); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if m.State() != StateConnected || !m.IsConnected() {
		t.Errorf("State() = %v, want connected", m.State())
	}
	if !got.CleanSession || !got.AutoReconnect || got.Credentials == nil || got.Credentials.Username != "u" {
		t.Errorf("dialer got %+v", got)
	}
}

func TestConnect_DialFailure(t *testing.T) {
	dialErr := errors.New("connection refused")
	m := NewConnectionManager(testRegistry(t), func(context.Context, ConnectOptions) (BrokerClient, error) {
		return nil, dialErr
	}, nil, nil)

	err := m.Connect(context.Background(), ConnectOptions{})
	if !errors.Is(err, ErrConnection) || !errors.Is(err, dialErr) {
		t.Errorf("Connect() error = %v, want ErrConnection wrapping dial error", err)
	}
	if m.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", m.State())
	}
}

func TestConnect_Timeout(t *testing.T) {
	m := NewConnectionManager(testRegistry(t), func(ctx context.Context, _ ConnectOptions) (BrokerClient, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil, nil)

	start := time.Now()
	err := m.Connect(context.Background(), ConnectOptions{ConnectTimeout: 20 * time.Millisecond})
	if !errors.Is(err, ErrConnection) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Connect() error = %v, want ErrConnection wrapping deadline", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Connect() did not honour the timeout")
	}
	if m.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", m.State())
	}
}

func TestConnect_AlreadyConnected(t *testing.T) {
	m, _, _ := connectedManager(t)
	if err := m.Connect(context.Background(), ConnectOptions{}); !errors.Is(err, ErrConnection) {
		t.Errorf("second Connect() error = %v, want ErrConnection", err)
	}
}

func TestDisconnect(t *testing.T) {
	m, broker, _ := connectedManager(t)

	if err := m.Disconnect(); err != nil {
		t.Errorf("Disconnect() error = %v", err)
	}
	if m.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", m.State())
	}
	if !broker.closed {
		t.Error("broker was not closed")
	}

	// Second call is a no-op.
	if err := m.Disconnect(); err != nil {
		t.Errorf("second Disconnect() error = %v", err)
	}
}

func TestDisconnect_CloseErrorStillDisconnects(t *testing.T) {
	m, broker, rep := connectedManager(t)
	broker.closeErr = errors.New("socket already closed")

	if err := m.Disconnect(); !errors.Is(err, ErrConnection) {
		t.Errorf("Disconnect() error = %v, want ErrConnection", err)
	}
	if m.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", m.State())
	}
	failures := rep.getFailures()
	if len(failures) != 1 || failures[0].Op != OpDisconnect || !errors.Is(failures[0], ErrConnection) {
		t.Errorf("failures = %v, want one disconnect failure", failures)
	}
}

func TestDisconnect_NeverConnected(t *testing.T) {
	m := NewConnectionManager(testRegistry(t), dialerFor(newMockBroker(), nil), nil, nil)
	if err := m.Disconnect(); err != nil {
		t.Errorf("Disconnect() error = %v", err)
	}
}

func TestReconnect_AfterDisconnect(t *testing.T) {
	m, _, _ := connectedManager(t)
	_ = m.Disconnect()
	if err := m.Connect(context.Background(), ConnectOptions{}); err != nil {
		t.Errorf("Connect() after Disconnect() error = %v", err)
	}
}

// =============================================================================
// Connection loss
// =============================================================================

func TestConnectionLost_PublishFailsUntilReconnect(t *testing.T) {
	m, broker, _ := connectedManager(t)

	broker.simulateConnectionLost(errors.New("keepalive timeout"))
	if m.State() != StateDisconnected {
		t.Fatalf("State() = %v after loss, want disconnected", m.State())
	}

	err := m.Publish("a/b", []byte("x"), 0, false)
	if !errors.Is(err, ErrPublish) || !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrPublish wrapping ErrNotConnected", err)
	}
	if len(broker.getPublished()) != 0 {
		t.Error("publish was forwarded while disconnected")
	}

	broker.simulateReconnect()
	if m.State() != StateConnected {
		t.Fatalf("State() = %v after reconnect, want connected", m.State())
	}
	if err := m.Publish("a/b", []byte("x"), 0, false); err != nil {
		t.Errorf("Publish() after reconnect error = %v", err)
	}
}

func TestStaleCallbacksIgnored(t *testing.T) {
	m, broker, _ := connectedManager(t)
	_ = m.Disconnect()

	// A late reconnect callback from the discarded session must not revive it.
	broker.simulateReconnect()
	if m.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", m.State())
	}
}

// =============================================================================
// Publish / Subscribe
// =============================================================================

func TestPublish_NotConnected(t *testing.T) {
	m := NewConnectionManager(testRegistry(t), dialerFor(newMockBroker(), nil), nil, nil)
	err := m.Publish("a/b", nil, 0, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestPublish_BrokerError(t *testing.T) {
	m, broker, _ := connectedManager(t)
	broker.publishErr["a/b"] = errors.New("timeout")

	if err := m.Publish("a/b", nil, 0, false); !errors.Is(err, ErrPublish) {
		t.Errorf("Publish() error = %v, want ErrPublish", err)
	}
}

func TestSubscribe_NotConnected(t *testing.T) {
	m := NewConnectionManager(testRegistry(t), dialerFor(newMockBroker(), nil), nil, nil)
	err := m.Subscribe("a/b", 0, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrSubscribe) || !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribe wrapping ErrNotConnected", err)
	}
}

// =============================================================================
// Entity synchronisation
// =============================================================================

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) ObserveEvent(key, topic string, payload []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, key+"@"+topic+"="+string(payload))
}

func TestOnEntitySynchronized_SubscribesIntersection(t *testing.T) {
	m, broker, rep := connectedManager(t)
	obs := &recordingObserver{}
	m.SetEventObserver(obs)

	m.OnEntitySynchronized([]string{"overheated", "not_bound"})

	subs := broker.getSubscriptions()
	if len(subs) != 1 || subs[0].Topic != "dummy/events/overheated" || subs[0].QoS != 1 {
		t.Fatalf("subscriptions = %+v, want only dummy/events/overheated qos 1", subs)
	}
	if got := m.EventSubscriptions(); got["overheated"] != "dummy/events/overheated" {
		t.Errorf("EventSubscriptions() = %v", got)
	}
	if len(rep.getFailures()) != 0 {
		t.Errorf("unexpected failures: %v", rep.getFailures())
	}

	broker.simulateMessage("dummy/events/overheated", []byte("hot"))
	if len(obs.events) != 1 || obs.events[0] != "overheated@dummy/events/overheated=hot" {
		t.Errorf("observer got %v", obs.events)
	}
}

func TestOnEntitySynchronized_UnsubscribesRemovedKeys(t *testing.T) {
	m, broker, _ := connectedManager(t)

	m.OnEntitySynchronized([]string{"overheated"})
	m.OnEntitySynchronized(nil)

	if broker.hasHandler("dummy/events/overheated") {
		t.Error("event topic still subscribed after key was withdrawn")
	}
	if len(broker.unsubscribed) != 1 || broker.unsubscribed[0] != "dummy/events/overheated" {
		t.Errorf("unsubscribed = %v", broker.unsubscribed)
	}
	if len(m.EventSubscriptions()) != 0 {
		t.Errorf("EventSubscriptions() = %v, want empty", m.EventSubscriptions())
	}
}

func TestOnEntitySynchronized_ResubscribesOnRepeat(t *testing.T) {
	m, broker, _ := connectedManager(t)

	m.OnEntitySynchronized([]string{"overheated"})
	m.OnEntitySynchronized([]string{"overheated"})

	if got := len(broker.getSubscriptions()); got != 2 {
		t.Errorf("subscribe calls = %d, want 2", got)
	}
	if len(broker.unsubscribed) != 0 {
		t.Errorf("unsubscribed = %v, want none", broker.unsubscribed)
	}
}

func TestOnEntitySynchronized_SubscribeFailureReported(t *testing.T) {
	m, broker, rep := connectedManager(t)
	broker.subscribeErr["dummy/events/overheated"] = errors.New("not authorised")

	m.OnEntitySynchronized([]string{"overheated"})

	failures := rep.getFailures()
	if len(failures) != 1 {
		t.Fatalf("failures = %v, want 1", failures)
	}
	f := failures[0]
	if f.Op != OpSubscribe || f.Key != "overheated" || !errors.Is(f, ErrSubscribe) {
		t.Errorf("failure = %+v", f)
	}
}

func TestOnEntitySynchronized_NotConnected(t *testing.T) {
	rep := &recordingReporter{}
	m := NewConnectionManager(testRegistry(t), dialerFor(newMockBroker(), nil), rep, nil)

	m.OnEntitySynchronized([]string{"overheated"})

	if rep.count(ErrNotConnected) != 1 {
		t.Errorf("failures = %v, want one ErrNotConnected", rep.getFailures())
	}
}

// =============================================================================
// Health
// =============================================================================

func TestHealthCheck(t *testing.T) {
	m, broker, _ := connectedManager(t)

	if err := m.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v", err)
	}

	broker.simulateConnectionLost(errors.New("gone"))
	if err := m.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after loss error = %v, want ErrNotConnected", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
