package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/drake/wsecho/event"
	"github.com/drake/wsecho/ui"
	"github.com/drake/wsecho/ui/style"
)

// Rows outside the log view: header, controls, input.
const chromeHeight = 3

// tickMsg is used for periodic updates (line batching).
type tickMsg time.Time

// doTick returns a command that sends a tickMsg after the given duration.
func doTick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Widgets
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	styles   style.Styles

	// Log
	lines        []string
	pendingLines []string
	newLines     int // lines that arrived while scrolled up

	// Pushed from the session
	state     ui.ConnectionState
	address   string
	controls  ui.Controls
	submitted string // last line handed to the session

	// State
	width       int
	height      int
	inputChan   chan<- string
	actions     chan<- event.ControlOp
	quitting    bool
	initialized bool
}

// NewModel creates a new TUI model.
func NewModel(inputChan chan<- string, actions chan<- event.ControlOp) Model {
	styles := style.DefaultStyles()

	input := textinput.New()
	input.Prompt = "> "
	input.PromptStyle = styles.InputPrompt
	input.Placeholder = "Type a message"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.StatusConnecting

	return Model{
		viewport:  viewport.New(0, 0),
		input:     input,
		spinner:   sp,
		styles:    styles,
		state:     ui.StateDisconnected,
		controls:  ui.ControlsFor(ui.StateDisconnected),
		inputChan: inputChan,
		actions:   actions,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		doTick(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chromeHeight)
		m.input.Width = max(1, msg.Width-lipgloss.Width(m.input.Prompt)-1)
		m.initialized = true
		m.refreshContent()
		return m, nil

	case tickMsg:
		if len(m.pendingLines) > 0 {
			m.appendLines(m.pendingLines)
			m.pendingLines = nil
		}
		return m, doTick()

	case ui.PrintLineMsg:
		m.pendingLines = append(m.pendingLines, string(msg))
		return m, nil

	case ui.ConnectionStateMsg:
		wasConnecting := m.state == ui.StateConnecting
		m.state = msg.State
		m.address = msg.Address
		m.controls = ui.ControlsFor(msg.State)
		if m.state == ui.StateConnecting && !wasConnecting {
			return m, m.spinner.Tick
		}
		return m, nil

	case ui.ClearInputMsg:
		// Keep anything typed after the line was submitted.
		if m.input.Value() == m.submitted {
			m.input.Reset()
		}
		m.submitted = ""
		return m, nil

	case spinner.TickMsg:
		// Let the tick chain lapse once the handshake is over.
		if m.state != ui.StateConnecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.updateScrollState()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+o":
		if m.controls.Open {
			m.sendAction(event.ActionOpen)
		}
		return m, nil

	case "ctrl+d":
		if m.controls.Close {
			m.sendAction(event.ActionClose)
		}
		return m, nil

	case "enter":
		return m.submitInput()

	case "pgup":
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
		m.updateScrollState()
		return m, nil

	case "pgdown":
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
		m.updateScrollState()
		return m, nil

	case "home":
		m.viewport.GotoTop()
		m.updateScrollState()
		return m, nil

	case "end":
		m.viewport.GotoBottom()
		m.updateScrollState()
		return m, nil
	}

	// Forward to input
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitInput hands the line to the session, which decides whether it can
// be sent. The input is cleared by the session once the line is accepted.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	select {
	case m.inputChan <- text:
		m.submitted = text
	default:
		m.appendLines([]string{m.styles.Error.Render("[WARNING] Input dropped - engine lagging")})
	}
	return m, nil
}

func (m *Model) sendAction(action string) {
	if m.actions == nil {
		return
	}
	select {
	case m.actions <- event.ControlOp{Action: action}:
	default:
	}
}

func (m *Model) appendLines(lines []string) {
	follow := m.viewport.AtBottom()
	m.lines = append(m.lines, lines...)
	m.refreshContent()
	if follow {
		m.viewport.GotoBottom()
	} else {
		m.newLines += len(lines)
	}
}

func (m *Model) refreshContent() {
	rendered := make([]string, len(m.lines))
	for i, line := range m.lines {
		rendered[i] = m.renderLine(line)
	}
	content := strings.Join(rendered, "\n")
	if m.viewport.Width > 0 {
		content = m.styles.Scrollback.Width(m.viewport.Width).Render(content)
	}
	m.viewport.SetContent(content)
}

func (m *Model) updateScrollState() {
	if m.viewport.AtBottom() {
		m.newLines = 0
	}
}

func (m *Model) renderLine(line string) string {
	switch {
	case strings.HasPrefix(line, "You: "):
		return m.styles.Outgoing.Render(line)
	case strings.HasPrefix(line, "ℹ️"):
		return m.styles.Info.Render(line)
	case strings.HasPrefix(line, "⚠️"):
		return m.styles.Warning.Render(line)
	case strings.HasPrefix(line, "❌"):
		return m.styles.Error.Render(line)
	}
	return line
}

func (m Model) headerView() string {
	status := m.styles.Status(m.state).Render(m.state.StatusText())
	if m.state == ui.StateConnecting {
		status = m.spinner.View() + " " + status
	}
	left := status + "  " + m.styles.Muted.Render(m.address)

	var mode string
	if m.viewport.AtBottom() {
		mode = m.styles.StatusLive.Render("LIVE")
	} else {
		mode = m.styles.StatusScrolled.Render(fmt.Sprintf("SCROLLED +%d", m.newLines))
	}

	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(mode))
	return m.styles.Header.Render(left + strings.Repeat(" ", gap) + mode)
}

func (m Model) controlsView() string {
	return strings.Join([]string{
		m.styles.Control("^O Open", m.controls.Open),
		m.styles.Control("⏎ Send", m.controls.Send),
		m.styles.Control("^D Close", m.controls.Close),
		m.styles.Muted.Render("^C Quit"),
	}, " ")
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return ""
	}

	return strings.Join([]string{
		m.headerView(),
		m.viewport.View(),
		m.controlsView(),
		m.styles.InputArea.Render(m.input.View()),
	}, "\n")
}
