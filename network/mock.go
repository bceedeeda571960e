package network

import (
	"fmt"
	"sync"

	"github.com/drake/wsecho/event"
)

// MockDialer implements Dialer for tests.
// Nothing happens on its own: tests drive the handshake and frames with
// Open, Receive, Fail and Closed. Events() never closes.
type MockDialer struct {
	mu      sync.Mutex
	events  chan event.Event
	handles []*MockHandle
	Dialed  []string
}

// MockHandle records what the controller asked of one connection.
type MockHandle struct {
	id     string
	dialer *MockDialer

	mu      sync.Mutex
	open    bool
	closing bool
	Sent    []string
	Closes  []CloseRequest
	SendErr error // returned by Send when set
}

// CloseRequest is one recorded Close call.
type CloseRequest struct {
	Code   int
	Reason string
}

// NewMockDialer creates a new mock dialer.
func NewMockDialer() *MockDialer {
	return &MockDialer{
		events: make(chan event.Event, 100),
	}
}

// Dial records url and returns a fresh, not yet open handle.
func (m *MockDialer) Dial(url string) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := &MockHandle{
		id:     fmt.Sprintf("mock-%d", len(m.handles)+1),
		dialer: m,
	}
	m.handles = append(m.handles, h)
	m.Dialed = append(m.Dialed, url)
	return h
}

// Events returns the channel tests inject events into.
func (m *MockDialer) Events() <-chan event.Event {
	return m.events
}

// Handles returns every handle dialed so far, oldest first.
func (m *MockDialer) Handles() []*MockHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockHandle(nil), m.handles...)
}

// Last returns the most recently dialed handle, or nil.
func (m *MockDialer) Last() *MockHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.handles) == 0 {
		return nil
	}
	return m.handles[len(m.handles)-1]
}

func (h *MockHandle) ID() string { return h.id }

// Send records text when the handle is open and no close was requested.
func (h *MockHandle) Send(text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SendErr != nil {
		return h.SendErr
	}
	if !h.open || h.closing {
		return ErrNotConnected
	}
	h.Sent = append(h.Sent, text)
	return nil
}

// Close records the request. The Closed event is left to the test.
func (h *MockHandle) Close(code int, reason string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Closes = append(h.Closes, CloseRequest{Code: code, Reason: reason})
	h.closing = true
	return nil
}

// SentFrames returns a copy of the recorded frames.
func (h *MockHandle) SentFrames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.Sent...)
}

// CloseRequests returns a copy of the recorded close calls.
func (h *MockHandle) CloseRequests() []CloseRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]CloseRequest(nil), h.Closes...)
}

// --- Event builders ---

// Open marks the handle open and returns its Opened event.
func (h *MockHandle) Open() event.Event {
	h.mu.Lock()
	h.open = true
	h.mu.Unlock()
	return event.Event{Type: event.Opened, Handle: h.id}
}

// Receive returns a Message event carrying payload.
func (h *MockHandle) Receive(payload string) event.Event {
	return event.Event{Type: event.Message, Handle: h.id, Payload: payload}
}

// Fail returns an Error event carrying diag.
func (h *MockHandle) Fail(diag any) event.Event {
	return event.Event{Type: event.Error, Handle: h.id, Diagnostic: diag}
}

// Closed marks the handle dead and returns its Closed event.
func (h *MockHandle) Closed(code int, reason string) event.Event {
	h.mu.Lock()
	h.open = false
	h.mu.Unlock()
	return event.Event{Type: event.Closed, Handle: h.id, Code: code, Reason: reason}
}

// Inject queues ev on the dialer's event channel.
func (h *MockHandle) Inject(ev event.Event) {
	h.dialer.events <- ev
}
