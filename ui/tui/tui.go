package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/drake/wsecho/event"
	"github.com/drake/wsecho/internal/buffer"
	"github.com/drake/wsecho/ui"
)

const (
	queueInitialCap = 256
	queueHardLimit  = 100000
)

// Ensure BubbleTeaUI implements ui.UI at compile time
var _ ui.UI = (*BubbleTeaUI)(nil)

// BubbleTeaUI implements ui.UI using Bubble Tea.
// It bridges the session's channel-based loop with Bubble Tea's
// model/update/view event loop.
type BubbleTeaUI struct {
	mu      sync.Mutex
	program *tea.Program

	inputChan chan string
	actions   chan event.ControlOp

	// Message queue drained by a single goroutine.
	// This decouples callers from tea.Program.Send() which can block.
	queueIn  chan<- tea.Msg
	queueOut <-chan tea.Msg

	// Shutdown coordination
	done     chan struct{}
	doneOnce sync.Once
}

// NewBubbleTeaUI creates a new Bubble Tea-based UI. Overflow of the
// message queue is reported to log.
func NewBubbleTeaUI(log zerolog.Logger) *BubbleTeaUI {
	log = log.With().Str("component", "tui").Logger()
	in, out := buffer.Unbounded[tea.Msg](queueInitialCap, queueHardLimit, func(dropped int) {
		if dropped == 1 || dropped%1000 == 0 {
			log.Warn().Int("dropped", dropped).Msg("ui queue overflow, dropping oldest")
		}
	})
	return &BubbleTeaUI{
		inputChan: make(chan string, 2048),
		actions:   make(chan event.ControlOp, 16),
		queueIn:   in,
		queueOut:  out,
		done:      make(chan struct{}),
	}
}

// send queues a message for delivery to the Bubble Tea program.
func (b *BubbleTeaUI) send(msg tea.Msg) {
	select {
	case <-b.done:
	case b.queueIn <- msg:
	}
}

// Print appends text to the log view.
func (b *BubbleTeaUI) Print(text string) {
	b.send(ui.PrintLineMsg(text))
}

// SetConnectionState updates the status line and controls row.
func (b *BubbleTeaUI) SetConnectionState(state ui.ConnectionState, addr string) {
	b.send(ui.ConnectionStateMsg{State: state, Address: addr})
}

// ClearInput empties the input line.
func (b *BubbleTeaUI) ClearInput() {
	b.send(ui.ClearInputMsg{})
}

// Input returns channel for user input.
func (b *BubbleTeaUI) Input() <-chan string {
	return b.inputChan
}

// Actions returns open/close requests from key bindings.
func (b *BubbleTeaUI) Actions() <-chan event.ControlOp {
	return b.actions
}

// Run starts the TUI and blocks until exit.
func (b *BubbleTeaUI) Run() error {
	select {
	case <-b.done:
		return nil
	default:
	}

	model := NewModel(b.inputChan, b.actions)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	b.mu.Lock()
	b.program = program
	b.mu.Unlock()

	// Single goroutine drains the queue into Bubble Tea.
	go func() {
		for {
			select {
			case <-b.done:
				return
			case msg, ok := <-b.queueOut:
				if !ok {
					return
				}
				program.Send(msg)
			}
		}
	}()

	_, err := program.Run()

	b.doneOnce.Do(func() {
		close(b.done)
	})
	return err
}

// Done returns a channel that closes when the UI exits.
func (b *BubbleTeaUI) Done() <-chan struct{} {
	return b.done
}

// Quit signals the TUI to exit.
func (b *BubbleTeaUI) Quit() {
	b.mu.Lock()
	program := b.program
	b.mu.Unlock()

	if program != nil {
		program.Quit()
	}
	b.doneOnce.Do(func() {
		close(b.done)
	})
}
