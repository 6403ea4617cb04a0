package tts

import (
	"context"
	"sync"
	"time"
)

// Mock implements Engine for testing.
// All methods can be customized via function fields.
type Mock struct {
	// SpeakFunc is called when Speak is invoked.
	// If nil, the utterance is accepted.
	SpeakFunc func(ctx context.Context, u Utterance) error

	// CancelFunc is called when Cancel is invoked.
	// If nil, returns nil.
	CancelFunc func() error

	// AvailableFunc is called when Available is invoked.
	// If nil, the mock is available.
	AvailableFunc func() bool

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// NewMock creates a new mock engine that accepts everything.
func NewMock() *Mock {
	return &Mock{}
}

// Speak calls SpeakFunc and records the call.
func (m *Mock) Speak(ctx context.Context, u Utterance) error {
	m.recordCall("Speak", u.Text)
	if !m.Available() {
		return WrapError("mock", ErrUnavailable)
	}
	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, u)
	}
	return nil
}

// Cancel calls CancelFunc and records the call.
func (m *Mock) Cancel() error {
	m.recordCall("Cancel", "")
	if m.CancelFunc != nil {
		return m.CancelFunc()
	}
	return nil
}

// Available calls AvailableFunc.
func (m *Mock) Available() bool {
	if m.AvailableFunc != nil {
		return m.AvailableFunc()
	}
	return true
}

// recordCall adds a call to the tracking list.
func (m *Mock) recordCall(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Text:   text,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Spoken returns the text of every Speak call in order.
func (m *Mock) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if c.Method == "Speak" {
			out = append(out, c.Text)
		}
	}
	return out
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Unavailable returns a mock with no audio output.
func Unavailable() *Mock {
	return &Mock{AvailableFunc: func() bool { return false }}
}

// Verify Mock implements Engine at compile time.
var _ Engine = (*Mock)(nil)
