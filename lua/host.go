package lua

import "time"

// Host provides the bridge between Engine and the rest of the system.
// Every call happens on the session goroutine.
type Host interface {
	Print(text string)
	Send(text string)
	Open()
	Close()

	// State returns the connection state name ("Disconnected", ...).
	State() string
	Endpoint() string

	// Timers fire later as events on the session loop, which then calls
	// Engine.FireTimer.
	After(d time.Duration) int
	Every(d time.Duration) int
	CancelTimer(id int)
}
