package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
)

// PublishedEvent is one event recorded by the mock publisher.
type PublishedEvent struct {
	RoutingKey string
	EventData  interface{}
	RawJSON    []byte
}

// MockPublisher records domain events in memory instead of talking to
// RabbitMQ, so tests can assert on what the state layer published.
type MockPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent
}

// NewMockPublisher creates an empty recorder.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records the event. Marshalling still happens so tests catch
// events that would not serialize.
func (m *MockPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	raw, err := json.Marshal(eventData)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{
		RoutingKey: routingKey,
		EventData:  eventData,
		RawJSON:    raw,
	})
	return nil
}

// Close is a no-op for the mock publisher.
func (m *MockPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PublishedEvent, len(m.events))
	copy(out, m.events)
	return out
}

// CountByKey returns how many events carried the routing key.
func (m *MockPublisher) CountByKey(routingKey string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.events {
		if e.RoutingKey == routingKey {
			count++
		}
	}
	return count
}

// LastByKey returns the most recent event with the routing key, or nil.
func (m *MockPublisher) LastByKey(routingKey string) *PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].RoutingKey == routingKey {
			e := m.events[i]
			return &e
		}
	}
	return nil
}

// Reset clears recorded events between test cases.
func (m *MockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

// AssertPublished fails the test unless at least one event with the routing
// key was recorded.
func (m *MockPublisher) AssertPublished(t *testing.T, routingKey string) {
	t.Helper()
	if m.CountByKey(routingKey) == 0 {
		t.Errorf("Expected event with routing key '%s' to be published, but found none", routingKey)
	}
}

// AssertNotPublished fails the test if any event with the routing key was
// recorded.
func (m *MockPublisher) AssertNotPublished(t *testing.T, routingKey string) {
	t.Helper()
	if count := m.CountByKey(routingKey); count > 0 {
		t.Errorf("Expected no events with routing key '%s', but found %d", routingKey, count)
	}
}
