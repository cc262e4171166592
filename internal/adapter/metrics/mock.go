package metrics

import (
	"context"
	"sync"

	"deckbridge/internal/domain"
)

// MockSampler returns scripted metrics for testing.
type MockSampler struct {
	mu      sync.Mutex
	Values  domain.Metrics
	Err     error
	Samples int
}

// NewMockSampler creates a sampler that always returns values.
func NewMockSampler(values domain.Metrics) *MockSampler {
	return &MockSampler{Values: values}
}

func (m *MockSampler) Sample(_ context.Context) (domain.Metrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Samples++
	if m.Err != nil {
		return domain.Metrics{}, m.Err
	}
	return m.Values, nil
}

// Set replaces the scripted values.
func (m *MockSampler) Set(values domain.Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Values = values
}
