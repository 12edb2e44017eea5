package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-adapter/internal/binding"
	"github.com/nerrad567/gray-logic-adapter/internal/entity"
)

// mockBroker implements BrokerClient for testing.
type mockBroker struct {
	mu            sync.Mutex
	connected     bool
	closed        bool
	published     []mockPublish
	subscriptions []mockSubscription
	unsubscribed  []string
	handlers      map[string]MessageHandler
	publishErr    map[string]error
	subscribeErr  map[string]error
	closeErr      error
	onConnect     func()
	onDisconnect  func(err error)
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

type mockSubscription struct {
	Topic string
	QoS   byte
}

func newMockBroker() *mockBroker {
	return &mockBroker{
		connected:    true,
		handlers:     make(map[string]MessageHandler),
		publishErr:   make(map[string]error),
		subscribeErr: make(map[string]error),
	}
}

func (m *mockBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.publishErr[topic]; ok {
		return err
	}
	m.published = append(m.published, mockPublish{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *mockBroker) Subscribe(topic string, qos byte, handler MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.subscribeErr[topic]; ok {
		return err
	}
	m.subscriptions = append(m.subscriptions, mockSubscription{Topic: topic, QoS: qos})
	m.handlers[topic] = handler
	return nil
}

func (m *mockBroker) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribed = append(m.unsubscribed, topic)
	delete(m.handlers, topic)
	return nil
}

func (m *mockBroker) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockBroker) SetOnConnect(callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnect = callback
}

func (m *mockBroker) SetOnDisconnect(callback func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnect = callback
}

func (m *mockBroker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.connected = false
	return m.closeErr
}

func (m *mockBroker) getPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockPublish(nil), m.published...)
}

func (m *mockBroker) getSubscriptions() []mockSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockSubscription(nil), m.subscriptions...)
}

func (m *mockBroker) hasHandler(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handlers[topic]
	return ok
}

// simulateMessage delivers a message the way the broker client would.
func (m *mockBroker) simulateMessage(topic string, payload []byte) {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if ok {
		_ = handler(topic, payload)
	}
}

// simulateConnectionLost fires the disconnect callback.
func (m *mockBroker) simulateConnectionLost(err error) {
	m.mu.Lock()
	m.connected = false
	cb := m.onDisconnect
	m.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// simulateReconnect fires the connect callback.
func (m *mockBroker) simulateReconnect() {
	m.mu.Lock()
	m.connected = true
	cb := m.onConnect
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// dialerFor returns a Dialer that hands out broker and records the options.
func dialerFor(broker *mockBroker, got *ConnectOptions) Dialer {
	return func(_ context.Context, opts ConnectOptions) (BrokerClient, error) {
		if got != nil {
			*got = opts
		}
		return broker, nil
	}
}

// recordingSink implements entity.ActionSink for testing.
type recordingSink struct {
	mu       sync.Mutex
	requests []entity.ActionRequest
	err      error
	received chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{received: make(chan struct{}, 100)}
}

func (s *recordingSink) SubmitAction(_ context.Context, req entity.ActionRequest) error {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	err := s.err
	s.mu.Unlock()
	s.received <- struct{}{}
	return err
}

func (s *recordingSink) getRequests() []entity.ActionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.ActionRequest(nil), s.requests...)
}

func (s *recordingSink) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.received:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for action %d of %d", i+1, n)
		}
	}
}

// recordingReporter implements Reporter for testing.
type recordingReporter struct {
	mu       sync.Mutex
	failures []Failure
}

func (r *recordingReporter) Report(f Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

func (r *recordingReporter) getFailures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Failure(nil), r.failures...)
}

func (r *recordingReporter) count(target error) int {
	n := 0
	for _, f := range r.getFailures() {
		if errors.Is(f, target) {
			n++
		}
	}
	return n
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// testRegistry binds the sample entity used throughout the tests.
//
//	properties: energy (int, qos 1), mode (json, retained)
//	events:     overheated (json, qos 1)
//	actions:    switch_off (constant "OFF"), set_level (json int), rename (text)
func testRegistry(t *testing.T) *binding.Registry {
	t.Helper()
	b := binding.NewBuilder()
	_ = b.AddPropertyBinding("energy", "dummy/properties/energy", binding.QoSAtLeastOnce, false, binding.TruncatedInt())
	_ = b.AddPropertyBinding("mode", "dummy/properties/mode", binding.QoSAtMostOnce, true, binding.JSONValue())
	_ = b.AddEventBinding("overheated", "dummy/events/overheated", binding.QoSAtLeastOnce, false, binding.JSONEvent())
	_ = b.AddActionBinding("switch_off", "app/actions/switch-off", binding.QoSAtLeastOnce, binding.ConstantAction("OFF"))
	_ = b.AddActionBinding("set_level", "app/actions/set-level", binding.QoSExactlyOnce, binding.JSONAction[int]())
	_ = b.AddActionBinding("rename", "app/actions/rename", binding.QoSAtMostOnce, binding.TextAction())
	reg, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return reg
}
