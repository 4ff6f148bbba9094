package testutil

import (
	"context"
	"sync"

	"github.com/alinski29/stonks/internal/transport"
)

// MockSender is a scripted transport.Sender for tests. It records every
// request and answers through the configurable Handler.
type MockSender struct {
	mu      sync.Mutex
	Handler func(req transport.Request) (string, error)
	calls   []transport.Request
}

func (m *MockSender) Send(ctx context.Context, req transport.Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	h := m.Handler
	m.mu.Unlock()
	if h == nil {
		return "", nil
	}
	return h(req)
}

// Calls returns a copy of all requests seen so far.
func (m *MockSender) Calls() []transport.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]transport.Request, len(m.calls))
	copy(out, m.calls)
	return out
}
