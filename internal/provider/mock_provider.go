package provider

import (
	"context"
	"sync"
)

// MockProvider is a scripted, in-memory Provider used in unit tests.
// Script maps a phone to the sequence of results its attempts produce; once
// the sequence is exhausted the last entry repeats. Phones without a script
// are confirmed.
type MockProvider struct {
	mu       sync.Mutex
	Script   map[string][]MockStep
	requests []SendRequest
}

// MockStep is one scripted attempt: an error, or a result with Confirmed.
type MockStep struct {
	Err       error
	Confirmed bool
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Script: map[string][]MockStep{}}
}

func (m *MockProvider) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	attempt := 0
	for _, r := range m.requests {
		if r.Phone == req.Phone {
			attempt++
		}
	}
	m.requests = append(m.requests, req)

	steps, ok := m.Script[req.Phone]
	if !ok || len(steps) == 0 {
		return &SendResult{Confirmed: true}, nil
	}
	if attempt >= len(steps) {
		attempt = len(steps) - 1
	}
	step := steps[attempt]
	if step.Err != nil {
		return nil, step.Err
	}
	return &SendResult{Confirmed: step.Confirmed}, nil
}

// Requests returns every request received, in order.
func (m *MockProvider) Requests() []SendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

var _ Provider = (*MockProvider)(nil)
