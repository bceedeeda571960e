package session

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/drake/wsecho/controller"
	"github.com/drake/wsecho/event"
	"github.com/drake/wsecho/lua"
	"github.com/drake/wsecho/network"
	"github.com/drake/wsecho/timer"
	"github.com/drake/wsecho/ui"
)

// Ensure Session implements lua.Host at compile time
var _ lua.Host = (*Session)(nil)

const helpText = "Commands: /open, /close, /quit, /reload, /help. Start a message with // to send a leading slash."

// Config holds session configuration
type Config struct {
	Endpoint    string
	InitScript  string   // Path to init.lua; skipped when missing
	UserScripts []string // CLI script arguments
}

// Stats is a point-in-time snapshot for the debug monitor.
type Stats struct {
	EventsProcessed uint64
	EventQueueLen   int
	EventQueueCap   int
	LogLines        int64
	State           string
	Goroutines      int
	ActiveTimers    int
	LuaCallbacks    int64
	Network         network.Stats
	HasNetwork      bool
}

// Session wires the transport, the connection controller, the UI and the
// Lua hooks together on a single event loop goroutine.
type Session struct {
	// Components
	dialer network.Dialer
	ui     ui.UI
	ctrl   *controller.Controller
	engine *lua.Engine
	timers *timer.Service
	log    zerolog.Logger

	// Internal queue for events that did not come from the UI or network
	events chan event.Event

	config Config

	// Stats (atomic for reads from the monitor goroutine)
	eventsProcessed atomic.Uint64
	logLines        atomic.Int64
	luaCallbacks    atomic.Int64
	state           atomic.Value // string

	// Shutdown coordination
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// New creates a new Session. It is passive - no goroutines start here.
func New(dialer network.Dialer, u ui.UI, cfg Config, log zerolog.Logger) *Session {
	s := &Session{
		dialer:   dialer,
		ui:       u,
		log:      log.With().Str("component", "session").Logger(),
		events:   make(chan event.Event, 256),
		config:   cfg,
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	s.ctrl = controller.New(cfg.Endpoint, dialer, u, log)
	s.engine = lua.NewEngine(s)
	s.timers = timer.NewService(s.events, s.done)
	s.state.Store(s.ctrl.State().String())
	return s
}

// Run starts the session and blocks until the UI exits.
func (s *Session) Run() error {
	defer s.engine.Close()
	defer s.timers.CancelAll()

	if err := s.boot(); err != nil {
		s.ctrl.Print(fmt.Sprintf("[lua] boot error: %v", err))
	}

	go s.processEvents()

	err := s.ui.Run()
	s.shutdown()
	<-s.loopDone
	return err
}

// Stats returns a snapshot safe to take from any goroutine.
func (s *Session) Stats() Stats {
	st := Stats{
		EventsProcessed: s.eventsProcessed.Load(),
		EventQueueLen:   len(s.events),
		EventQueueCap:   cap(s.events),
		LogLines:        s.logLines.Load(),
		State:           s.state.Load().(string),
		Goroutines:      runtime.NumGoroutine(),
		ActiveTimers:    s.timers.Active(),
		LuaCallbacks:    s.luaCallbacks.Load(),
	}
	if n, ok := s.dialer.(interface{ Stats() network.Stats }); ok {
		st.Network = n.Stats()
		st.HasNetwork = true
	}
	return st
}

// processEvents is the main event loop.
func (s *Session) processEvents() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.done:
			s.ctrl.Shutdown()
			return
		case ev := <-s.events:
			s.handleEvent(ev)
		case ev := <-s.dialer.Events():
			s.handleEvent(ev)
		case line := <-s.ui.Input():
			s.handleEvent(event.Event{Type: event.UserInput, Payload: line})
		case op := <-s.ui.Actions():
			s.handleEvent(event.Event{Type: event.SystemControl, Control: op})
		}
	}
}

// handleEvent executes a single event on the session loop.
func (s *Session) handleEvent(ev event.Event) {
	s.eventsProcessed.Add(1)
	defer s.publishStats()

	switch ev.Type {
	case event.Opened:
		if s.ctrl.Handle(ev) {
			s.engine.CallHook(lua.HookOpened, s.ctrl.Endpoint())
		}

	case event.Message:
		if !s.ctrl.Owns(ev.Handle) {
			s.ctrl.Handle(ev)
			return
		}
		payload, keep := s.engine.OnMessage(ev.Payload)
		if !keep {
			s.log.Debug().Str("handle", ev.Handle).Msg("message dropped by hook")
			return
		}
		ev.Payload = payload
		s.ctrl.Handle(ev)

	case event.Error:
		if s.ctrl.Handle(ev) {
			s.engine.CallHook(lua.HookError, fmt.Sprint(ev.Diagnostic))
		}

	case event.Closed:
		if s.ctrl.Handle(ev) {
			s.engine.CallHook(lua.HookClosed, ev.Code, ev.Reason)
		}

	case event.UserInput:
		s.handleInput(ev.Payload)

	case event.SystemControl:
		s.handleControl(ev.Control)

	case event.TimerFired:
		s.engine.FireTimer(ev.Timer, ev.Repeating)
	}
}

// handleInput routes a submitted line to a command or to the socket.
func (s *Session) handleInput(line string) {
	text := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(text, "//"):
		line = text[1:]
	case strings.HasPrefix(text, "/"):
		s.runCommand(text)
		s.ui.ClearInput()
		return
	}

	if !s.engine.OnInput(line) {
		s.ui.ClearInput()
		return
	}
	s.ctrl.Send(line)
}

func (s *Session) runCommand(text string) {
	name := strings.Fields(text)[0]
	switch name {
	case "/open":
		s.ctrl.Open()
	case "/close":
		s.ctrl.Close()
	case "/quit":
		s.shutdown()
	case "/reload":
		s.reload()
	case "/help":
		s.ctrl.Print(helpText)
	default:
		s.ctrl.Print(fmt.Sprintf("Unknown command %s (try /help)", name))
	}
}

// handleControl processes UI action requests. Disabled actions are
// filtered by the UI; the controller ignores them anyway.
func (s *Session) handleControl(op event.ControlOp) {
	switch op.Action {
	case event.ActionOpen:
		s.ctrl.Open()
	case event.ActionClose:
		s.ctrl.Close()
	case event.ActionQuit:
		s.shutdown()
	case event.ActionReload:
		s.reload()
	}
}

// boot loads the VM state: init.lua first, then CLI scripts.
func (s *Session) boot() error {
	s.timers.CancelAll()
	if err := s.engine.Init(); err != nil {
		return err
	}

	var scripts []string
	if s.config.InitScript != "" {
		if _, err := os.Stat(s.config.InitScript); err == nil {
			scripts = append(scripts, s.config.InitScript)
		}
	}
	scripts = append(scripts, s.config.UserScripts...)

	for _, path := range scripts {
		if err := s.engine.DoFile(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		s.log.Info().Str("script", path).Msg("script loaded")
	}
	return nil
}

func (s *Session) reload() {
	if err := s.boot(); err != nil {
		s.ctrl.Print(fmt.Sprintf("[lua] reload failed: %v", err))
		return
	}
	s.ctrl.Print("[lua] scripts reloaded")
}

// shutdown stops the loop and asks the UI to exit.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.ui.Quit()
	})
}

func (s *Session) publishStats() {
	s.logLines.Store(int64(s.ctrl.LogLen()))
	s.state.Store(s.ctrl.State().String())
	s.luaCallbacks.Store(int64(s.engine.TimerCallbacks()))
}

// --- lua.Host Implementation ---

func (s *Session) Print(text string) { s.ctrl.Print(text) }
func (s *Session) Send(text string)  { s.ctrl.Send(text) }
func (s *Session) Open()             { s.ctrl.Open() }
func (s *Session) Close()            { s.ctrl.Close() }
func (s *Session) State() string     { return s.ctrl.State().String() }
func (s *Session) Endpoint() string  { return s.ctrl.Endpoint() }

func (s *Session) After(d time.Duration) int { return s.timers.After(d) }
func (s *Session) Every(d time.Duration) int { return s.timers.Every(d) }
func (s *Session) CancelTimer(id int)        { s.timers.Cancel(id) }
