package lua

import "time"

// MockHost implements Host for testing.
type MockHost struct {
	PrintCalls []string
	SendCalls  []string
	OpenCalls  int
	CloseCalls int
	state      string

	Scheduled []time.Duration
	Repeating []bool
	Cancelled []int
}

func NewMockHost() *MockHost {
	return &MockHost{state: "Disconnected"}
}

func (m *MockHost) Print(text string) { m.PrintCalls = append(m.PrintCalls, text) }
func (m *MockHost) Send(text string)  { m.SendCalls = append(m.SendCalls, text) }
func (m *MockHost) Open()             { m.OpenCalls++ }
func (m *MockHost) Close()            { m.CloseCalls++ }
func (m *MockHost) State() string     { return m.state }
func (m *MockHost) Endpoint() string  { return "wss://echo.example.test" }

func (m *MockHost) After(d time.Duration) int { return m.schedule(d, false) }
func (m *MockHost) Every(d time.Duration) int { return m.schedule(d, true) }
func (m *MockHost) CancelTimer(id int)        { m.Cancelled = append(m.Cancelled, id) }

func (m *MockHost) schedule(d time.Duration, repeat bool) int {
	m.Scheduled = append(m.Scheduled, d)
	m.Repeating = append(m.Repeating, repeat)
	return len(m.Scheduled)
}
