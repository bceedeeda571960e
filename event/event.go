package event

// Type identifies the source of the message
type Type int

const (
	Opened        Type = iota // Transport finished the handshake
	Message                   // A text frame from the server
	Error                     // Transport reported a failure (opaque diagnostic)
	Closed                    // Transport is gone; carries close code and reason
	UserInput                 // A line submitted from the UI
	SystemControl             // Open/close/quit/reload requests
	TimerFired                // A script timer elapsed
)

// String returns the event type name used in diagnostics.
func (t Type) String() string {
	switch t {
	case Opened:
		return "opened"
	case Message:
		return "message"
	case Error:
		return "error"
	case Closed:
		return "closed"
	case UserInput:
		return "user_input"
	case SystemControl:
		return "system_control"
	case TimerFired:
		return "timer_fired"
	default:
		return "unknown"
	}
}

// Control action constants
const (
	ActionOpen   = "open"
	ActionClose  = "close"
	ActionQuit   = "quit"
	ActionReload = "reload"
)

// ControlOp contains control operation details
type ControlOp struct {
	Action string // Use Action* constants
}

// Event is the universal packet sent to the session loop.
type Event struct {
	Type   Type
	Handle string // ID of the transport handle that produced the event

	Payload string // Message text or user input
	Code    int    // Close code (Closed)
	Reason  string // Close reason (Closed), may be empty

	// Diagnostic is the raw transport failure (Error). It is forwarded to
	// the diagnostics log as-is and never inspected.
	Diagnostic any

	Control ControlOp // For SystemControl events

	Timer     int  // Timer ID (TimerFired)
	Repeating bool // Timer stays scheduled after this firing (TimerFired)
}
