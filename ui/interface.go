package ui

import "github.com/drake/wsecho/event"

// UI defines the contract for the terminal display layer.
// Implementations: tui.BubbleTeaUI and ConsoleUI.
type UI interface {
	Run() error
	Quit()
	Done() <-chan struct{}

	// Input returns lines submitted by the user.
	Input() <-chan string
	// Actions returns open/close/quit requests triggered by key bindings.
	Actions() <-chan event.ControlOp

	// Print appends a line to the log view.
	Print(text string)
	// SetConnectionState updates the status line and control availability.
	SetConnectionState(state ConnectionState, addr string)
	// ClearInput empties the text entry after a successful send.
	ClearInput()
}
