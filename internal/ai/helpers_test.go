package ai

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

func gobreakerCounts(requests, failures uint32) gobreaker.Counts {
	return gobreaker.Counts{Requests: requests, TotalFailures: failures}
}

// fakeCompleter replays canned responses and records requests.
type fakeCompleter struct {
	mu        sync.Mutex
	model     string
	responses []string
	err       error
	requests  []Request
}

func (f *fakeCompleter) Model() string {
	if f.model == "" {
		return "fake-model"
	}
	return f.model
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	text := ""
	if len(f.responses) > 0 {
		text = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	}
	return &Response{Text: text, Model: f.Model(), Usage: &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type observedCall struct {
	operation string
	usage     *TokenUsage
	err       error
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observedCall
}

func (o *recordingObserver) ObserveAI(_ context.Context, operation, _ string, _ time.Duration, usage *TokenUsage, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observedCall{operation: operation, usage: usage, err: err})
}

// memoryCache is a minimal cache.Cache for tests
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string][]byte{}} }

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}
