package ui

// PrintLineMsg appends one line to the log view.
type PrintLineMsg string

// ConnectionStateMsg notifies the TUI of connection state changes.
type ConnectionStateMsg struct {
	State   ConnectionState
	Address string
}

// ClearInputMsg empties the input line.
type ClearInputMsg struct{}
