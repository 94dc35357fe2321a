package testutil

import (
	"context"
	"sync"
)

// MockSink implements alarm.Sink for testing.
type MockSink struct {
	mu        sync.Mutex
	StartErr  error
	StopErr   error
	Started   []string
	StopCalls int
}

func (m *MockSink) Start(_ context.Context, soundID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Started = append(m.Started, soundID)
	return m.StartErr
}

func (m *MockSink) StopAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalls++
	return m.StopErr
}

// StartCount returns the number of Start calls in a thread-safe manner.
func (m *MockSink) StartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Started)
}

// StopCount returns the number of StopAll calls in a thread-safe manner.
func (m *MockSink) StopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StopCalls
}
