package ui

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/drake/wsecho/event"
)

// Ensure ConsoleUI implements UI at compile time
var _ UI = (*ConsoleUI)(nil)

// ConsoleUI implements a simple stdin/stdout UI.
// Every submitted line goes to Input; there are no key bindings, so the
// slash commands are the only way to open or close.
type ConsoleUI struct {
	in  io.Reader
	out io.Writer

	inputChan chan string
	actions   chan event.ControlOp
	done      chan struct{}
	doneOnce  sync.Once

	mu        sync.Mutex
	lastState ConnectionState
	stateSeen bool
}

// NewConsoleUI initializes a line-based terminal interface reading
// submitted lines from in and printing the log to out.
func NewConsoleUI(in io.Reader, out io.Writer) *ConsoleUI {
	return &ConsoleUI{
		in:        in,
		out:       out,
		inputChan: make(chan string, 2048),
		actions:   make(chan event.ControlOp),
		done:      make(chan struct{}),
	}
}

// Print outputs a log line.
func (c *ConsoleUI) Print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

// SetConnectionState prints the status line when the state changes.
func (c *ConsoleUI) SetConnectionState(state ConnectionState, addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stateSeen && state == c.lastState {
		return
	}
	c.lastState = state
	c.stateSeen = true
	fmt.Fprintf(c.out, "-- %s (%s)\n", state.StatusText(), addr)
}

// ClearInput is a no-op: the terminal owns the line being typed.
func (c *ConsoleUI) ClearInput() {}

// Input returns the channel for receiving user input
func (c *ConsoleUI) Input() <-chan string {
	return c.inputChan
}

// Actions never delivers anything in console mode.
func (c *ConsoleUI) Actions() <-chan event.ControlOp {
	return c.actions
}

// Run starts the UI and blocks until done or stdin is exhausted.
func (c *ConsoleUI) Run() error {
	scanner := bufio.NewScanner(c.in)
	scanDone := make(chan error, 1)

	go func() {
		for scanner.Scan() {
			select {
			case <-c.done:
				scanDone <- nil
				return
			case c.inputChan <- scanner.Text():
			}
		}
		scanDone <- scanner.Err()
	}()

	select {
	case <-c.done:
		return nil
	case err := <-scanDone:
		return err
	}
}

// Done returns a channel that closes when the UI is done
func (c *ConsoleUI) Done() <-chan struct{} {
	return c.done
}

// Quit requests the console UI to exit.
func (c *ConsoleUI) Quit() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}
