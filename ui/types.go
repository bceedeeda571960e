package ui

// ConnectionState represents the current connection status.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

// String returns a human-readable representation of the connection state.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// StatusText returns the status line shown for the state.
func (s ConnectionState) StatusText() string {
	switch s {
	case StateConnecting:
		return "Status: Connecting…"
	case StateConnected:
		return "Status: Connected ✅"
	default:
		return "Status: Disconnected ❌"
	}
}

// Controls holds which user actions are currently available.
type Controls struct {
	Open  bool
	Send  bool
	Close bool
}

// ControlsFor derives the available actions from the connection state.
// Close stays available while connecting so a pending handshake can be
// abandoned.
func ControlsFor(s ConnectionState) Controls {
	return Controls{
		Open:  s == StateDisconnected,
		Send:  s == StateConnected,
		Close: s == StateConnecting || s == StateConnected,
	}
}
