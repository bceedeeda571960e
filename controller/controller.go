// Package controller owns the single WebSocket connection and turns
// transport events and user requests into state changes and log lines.
//
// A Controller is not safe for concurrent use; the session calls it from
// its event loop only.
package controller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/drake/wsecho/event"
	"github.com/drake/wsecho/network"
	"github.com/drake/wsecho/ui"
)

const (
	// CloseReason is sent with the normal-closure code on a user close.
	CloseReason = "User requested close"

	noReason = "no reason provided"
	notOpen  = "❌ Cannot send — socket is not open."
)

// Surface receives the controller's side effects. ui.UI satisfies it.
type Surface interface {
	Print(text string)
	SetConnectionState(state ui.ConnectionState, addr string)
	ClearInput()
}

// Controller is the connection state machine.
type Controller struct {
	endpoint string
	dialer   network.Dialer
	surface  Surface
	diag     zerolog.Logger

	state  ui.ConnectionState
	handle network.Handle // non-nil exactly while state != Disconnected
	log    []string
}

// New creates a Controller in the Disconnected state and publishes that
// state to the surface.
func New(endpoint string, dialer network.Dialer, surface Surface, diag zerolog.Logger) *Controller {
	c := &Controller{
		endpoint: endpoint,
		dialer:   dialer,
		surface:  surface,
		diag:     diag.With().Str("component", "controller").Logger(),
		state:    ui.StateDisconnected,
	}
	c.surface.SetConnectionState(c.state, c.endpoint)
	return c
}

// State returns the current connection state.
func (c *Controller) State() ui.ConnectionState { return c.state }

// Controls returns the actions currently available to the user.
func (c *Controller) Controls() ui.Controls { return ui.ControlsFor(c.state) }

// Endpoint returns the address every connection targets.
func (c *Controller) Endpoint() string { return c.endpoint }

// Log returns a copy of every line appended so far, oldest first.
func (c *Controller) Log() []string {
	return append([]string(nil), c.log...)
}

// LogLen returns the number of log lines.
func (c *Controller) LogLen() int { return len(c.log) }

// Owns reports whether handleID belongs to the live handle.
func (c *Controller) Owns(handleID string) bool {
	return c.handle != nil && c.handle.ID() == handleID
}

// --- Requests ---

// Open starts a connection unless one is already live.
func (c *Controller) Open() {
	if c.state != ui.StateDisconnected {
		return
	}
	c.handle = c.dialer.Dial(c.endpoint)
	c.diag.Debug().Str("handle", c.handle.ID()).Str("endpoint", c.endpoint).Msg("open requested")
	c.setState(ui.StateConnecting)
}

// Send transmits the trimmed text as one text frame.
// Empty input is ignored without a trace.
func (c *Controller) Send(text string) {
	msg := strings.TrimSpace(text)
	if msg == "" {
		return
	}
	if c.state != ui.StateConnected {
		c.Print(notOpen)
		return
	}
	if err := c.handle.Send(msg); err != nil {
		if errors.Is(err, network.ErrNotConnected) {
			// Closing handshake in flight.
			c.Print(notOpen)
			return
		}
		c.diag.Warn().Str("handle", c.handle.ID()).Err(err).Msg("send refused")
		c.Print(fmt.Sprintf("❌ Send failed: %v", err))
		return
	}
	c.Print("You: " + msg)
	c.surface.ClearInput()
}

// Close asks the transport for an orderly shutdown. The state only changes
// once the Closed event arrives.
func (c *Controller) Close() {
	c.closeWith(network.CloseNormal, CloseReason)
}

// Shutdown closes any live handle with the going-away code. Used when the
// program exits.
func (c *Controller) Shutdown() {
	c.closeWith(network.CloseGoingAway, "client exiting")
}

func (c *Controller) closeWith(code int, reason string) {
	if c.state == ui.StateDisconnected {
		return
	}
	if err := c.handle.Close(code, reason); err != nil {
		c.diag.Warn().Str("handle", c.handle.ID()).Err(err).Msg("close request failed")
	}
}

// Print appends a line to the log and shows it.
func (c *Controller) Print(line string) {
	c.log = append(c.log, line)
	c.surface.Print(line)
}

// --- Transport events ---

// Handle applies a transport event. Events from handles other than the
// live one are ignored; the return value reports whether ev was applied.
func (c *Controller) Handle(ev event.Event) bool {
	if !c.Owns(ev.Handle) {
		c.diag.Debug().Str("handle", ev.Handle).Stringer("event", ev.Type).Msg("ignoring event from stale handle")
		return false
	}

	switch ev.Type {
	case event.Opened:
		c.setState(ui.StateConnected)
		c.Print("ℹ️  Connected to " + c.endpoint)

	case event.Message:
		c.Print("Server: " + ev.Payload)

	case event.Error:
		c.diag.Warn().
			Str("handle", ev.Handle).
			Interface("diagnostic", ev.Diagnostic).
			Str("detail", fmt.Sprint(ev.Diagnostic)).
			Msg("transport error")
		c.Print("⚠️  WebSocket error (see diagnostics log for details)")

	case event.Closed:
		reason := ev.Reason
		if reason == "" {
			reason = noReason
		}
		c.handle = nil
		c.setState(ui.StateDisconnected)
		c.Print(fmt.Sprintf("ℹ️  Connection closed (code %d) — %s", ev.Code, reason))

	default:
		return false
	}
	return true
}

func (c *Controller) setState(s ui.ConnectionState) {
	c.state = s
	c.surface.SetConnectionState(s, c.endpoint)
}
