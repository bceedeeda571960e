package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drake/wsecho/event"
	"github.com/drake/wsecho/ui"
)

func newTestModel(t *testing.T) (Model, chan string, chan event.ControlOp) {
	t.Helper()
	input := make(chan string, 8)
	actions := make(chan event.ControlOp, 8)
	m := NewModel(input, actions)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 10})
	return m, input, actions
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func setState(t *testing.T, m Model, state ui.ConnectionState) Model {
	t.Helper()
	return update(t, m, ui.ConnectionStateMsg{State: state, Address: "wss://echo.example.test"})
}

func printLines(t *testing.T, m Model, lines ...string) Model {
	t.Helper()
	for _, line := range lines {
		m = update(t, m, ui.PrintLineMsg(line))
	}
	return update(t, m, tickMsg(time.Now()))
}

func TestViewBeforeSize(t *testing.T) {
	m := NewModel(nil, nil)
	assert.Equal(t, "Loading...", m.View())
}

func TestHeaderShowsStatus(t *testing.T) {
	m, _, _ := newTestModel(t)

	assert.Contains(t, m.View(), "Status: Disconnected ❌")

	m = setState(t, m, ui.StateConnected)
	view := m.View()
	assert.Contains(t, view, "Status: Connected ✅")
	assert.Contains(t, view, "wss://echo.example.test")
	assert.Contains(t, view, "LIVE")
}

func TestConnectingStartsSpinner(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(ui.ConnectionStateMsg{State: ui.StateConnecting})
	assert.NotNil(t, cmd, "entering Connecting schedules a spinner tick")

	m = setState(t, m, ui.StateConnecting)
	_, cmd = m.Update(ui.ConnectionStateMsg{State: ui.StateConnecting})
	assert.Nil(t, cmd, "no second tick chain while already connecting")
}

func TestOpenKeyFollowsControls(t *testing.T) {
	m, _, actions := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.Len(t, actions, 1)
	assert.Equal(t, event.ControlOp{Action: event.ActionOpen}, <-actions)

	m = setState(t, m, ui.StateConnecting)
	update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Empty(t, actions, "open is disabled while connecting")
}

func TestCloseKeyFollowsControls(t *testing.T) {
	m, _, actions := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Empty(t, actions, "close is disabled while disconnected")

	m = setState(t, m, ui.StateConnecting)
	update(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Len(t, actions, 1)
	assert.Equal(t, event.ControlOp{Action: event.ActionClose}, <-actions)
}

func TestEnterSubmitsRegardlessOfState(t *testing.T) {
	m, input, _ := newTestModel(t)

	m = typeText(t, m, "hello")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, input, 1, "the session reports why it cannot send")
	assert.Equal(t, "hello", <-input)
	assert.Equal(t, "hello", m.input.Value(), "a refused line stays in the input")

	m = setState(t, m, ui.StateConnected)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, input, 1)
	assert.Equal(t, "hello", <-input)
	assert.Equal(t, "hello", m.input.Value(), "cleared only when the session says so")

	m = update(t, m, ui.ClearInputMsg{})
	assert.Empty(t, m.input.Value())
}

func TestEnterIgnoresBlankLine(t *testing.T) {
	m, input, _ := newTestModel(t)

	m = typeText(t, m, "   ")
	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, input)
}

func TestClearInputKeepsLaterTyping(t *testing.T) {
	m, input, _ := newTestModel(t)
	m = setState(t, m, ui.StateConnected)

	m = typeText(t, m, "first")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "first", <-input)

	// More typing lands before the session acknowledges the line.
	m = typeText(t, m, " and more")
	m = update(t, m, ui.ClearInputMsg{})

	assert.Equal(t, "first and more", m.input.Value())
}

func TestEnterAlwaysSubmitsCommands(t *testing.T) {
	m, input, _ := newTestModel(t)

	m = typeText(t, m, "/open")
	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, input, 1)
	assert.Equal(t, "/open", <-input)
}

func TestCtrlCQuits(t *testing.T) {
	m, _, _ := newTestModel(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestLinesAreBatchedUntilTick(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, ui.PrintLineMsg("Server: one"))
	assert.NotContains(t, m.View(), "Server: one")

	m = update(t, m, tickMsg(time.Now()))
	assert.Contains(t, m.View(), "Server: one")
	assert.Equal(t, []string{"Server: one"}, m.lines)
}

func TestScrollbackTracksNewLines(t *testing.T) {
	m, _, _ := newTestModel(t)
	for i := 0; i < 30; i++ {
		m = printLines(t, m, "line")
	}
	require.True(t, m.viewport.AtBottom())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	require.False(t, m.viewport.AtBottom())

	m = printLines(t, m, "a", "b")
	assert.Equal(t, 2, m.newLines)
	assert.Contains(t, m.View(), "SCROLLED +2")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	assert.True(t, m.viewport.AtBottom())
	assert.Zero(t, m.newLines)
	assert.Contains(t, m.View(), "LIVE")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	assert.Equal(t, 0, m.viewport.YOffset)
}

func TestControlsRowReflectsState(t *testing.T) {
	m, _, _ := newTestModel(t)

	row := m.controlsView()
	for _, label := range []string{"Open", "Send", "Close", "Quit"} {
		assert.True(t, strings.Contains(row, label), "missing %s", label)
	}
	assert.Equal(t, ui.Controls{Open: true}, m.controls)

	m = setState(t, m, ui.StateConnected)
	assert.Equal(t, ui.Controls{Send: true, Close: true}, m.controls)
}
