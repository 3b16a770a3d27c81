package driven

import (
	"context"
	"sync"
)

// MockFetcher is a Fetcher for tests. It records every request it receives.
type MockFetcher struct {
	FetchFunc func(ctx context.Context, req FetchRequest) ([]byte, error)

	mu       sync.Mutex
	requests []FetchRequest
}

// Fetch implements Fetcher.Fetch
func (m *MockFetcher) Fetch(ctx context.Context, req FetchRequest) ([]byte, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, req)
	}
	return nil, &FetchError{Kind: FetchEmpty, URL: req.URL}
}

// Requests returns a copy of the requests received so far.
func (m *MockFetcher) Requests() []FetchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FetchRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns how many times Fetch was invoked.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
