package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	glua "github.com/yuin/gopher-lua"
)

// Hook names accepted by echo.on.
const (
	HookOpened  = "opened"
	HookMessage = "message"
	HookError   = "error"
	HookClosed  = "closed"
	HookInput   = "input"
)

var validHooks = map[string]bool{
	HookOpened:  true,
	HookMessage: true,
	HookError:   true,
	HookClosed:  true,
	HookInput:   true,
}

const regexCacheSize = 100

// Engine wraps gopher-lua and manages the VM lifecycle.
// It knows how to run Lua code and expose the echo API; loading order
// and file discovery belong to the session.
type Engine struct {
	L          *glua.LState
	regexCache *lru.Cache[string, *regexp.Regexp]

	// Cached table reference
	echoTable *glua.LTable

	host   Host
	hooks  map[string][]*glua.LFunction
	timers map[int]*glua.LFunction
}

// NewEngine creates an Engine with the given Host.
func NewEngine(host Host) *Engine {
	cache, _ := lru.New[string, *regexp.Regexp](regexCacheSize)
	return &Engine{
		regexCache: cache,
		host:       host,
		hooks:      make(map[string][]*glua.LFunction),
		timers:     make(map[int]*glua.LFunction),
	}
}

// --- Lifecycle ---

// Init initializes (or re-initializes) the Lua VM with fresh state.
// It registers the API but does NOT load any scripts.
func (e *Engine) Init() error {
	if e.L != nil {
		e.L.Close()
	}

	e.L = glua.NewState()
	e.regexCache.Purge()
	e.hooks = make(map[string][]*glua.LFunction)
	e.timers = make(map[int]*glua.LFunction)

	e.registerAPIs()
	return nil
}

// Close cleans up the Lua state.
func (e *Engine) Close() {
	e.hooks = nil
	e.timers = nil
	if e.L != nil {
		e.L.Close()
		e.L = nil
	}
}

// --- Execution Primitives ---

// DoString executes a raw string of Lua code.
// The name parameter is used for stack traces.
func (e *Engine) DoString(name, code string) error {
	fn, err := e.L.Load(strings.NewReader(code), name)
	if err != nil {
		return err
	}
	e.L.Push(fn)
	return e.L.PCall(0, 0, nil)
}

// DoFile executes a Lua file from the filesystem.
// It temporarily adjusts package.path to allow local requires.
func (e *Engine) DoFile(path string) error {
	path = expandTilde(path)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)

	pkg := e.L.GetGlobal("package").(*glua.LTable)
	oldPath := e.L.GetField(pkg, "path").String()
	e.L.SetField(pkg, "path", glua.LString(dir+"/?.lua;"+oldPath))

	err = e.L.DoFile(absPath)

	e.L.SetField(pkg, "path", glua.LString(oldPath))
	return err
}

// HookCount returns how many functions are registered for name.
func (e *Engine) HookCount(name string) int {
	return len(e.hooks[name])
}

// --- Event Handlers ---

// OnMessage runs the message hooks over an inbound payload. A hook may
// return a string to rewrite the payload or false to drop it; nil keeps it.
func (e *Engine) OnMessage(payload string) (string, bool) {
	for _, fn := range e.hooks[HookMessage] {
		ret, err := e.call(fn, 1, glua.LString(payload))
		if err != nil {
			e.report(HookMessage, err)
			continue
		}
		switch v := ret.(type) {
		case glua.LString:
			payload = string(v)
		case glua.LBool:
			if !bool(v) {
				return "", false
			}
		}
	}
	return payload, true
}

// OnInput runs the input hooks. Returns false if any hook swallowed text.
func (e *Engine) OnInput(text string) bool {
	for _, fn := range e.hooks[HookInput] {
		ret, err := e.call(fn, 1, glua.LString(text))
		if err != nil {
			e.report(HookInput, err)
			continue
		}
		if ret == glua.LFalse {
			return false
		}
	}
	return true
}

// CallHook calls every hook registered for name. Arguments may be strings,
// ints or fmt.Stringers.
func (e *Engine) CallHook(name string, args ...any) {
	luaArgs := make([]glua.LValue, len(args))
	for i, arg := range args {
		luaArgs[i] = toLValue(arg)
	}
	for _, fn := range e.hooks[name] {
		if _, err := e.call(fn, 0, luaArgs...); err != nil {
			e.report(name, err)
		}
	}
}

// FireTimer runs the callback registered for a timer. One-shot callbacks
// are forgotten after they run. Timers from a previous VM are ignored.
func (e *Engine) FireTimer(id int, repeating bool) {
	fn, ok := e.timers[id]
	if !ok {
		return
	}
	if !repeating {
		delete(e.timers, id)
	}
	if _, err := e.call(fn, 0); err != nil {
		e.report("timer", err)
	}
}

// TimerCallbacks returns the number of callbacks awaiting a timer.
func (e *Engine) TimerCallbacks() int {
	return len(e.timers)
}

// --- Private Helpers ---

// call invokes fn in protected mode and returns its first result
// (LNil when nret is 0).
func (e *Engine) call(fn *glua.LFunction, nret int, args ...glua.LValue) (glua.LValue, error) {
	if e.L == nil {
		return glua.LNil, nil
	}
	if err := e.L.CallByParam(glua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		return glua.LNil, err
	}
	if nret == 0 {
		return glua.LNil, nil
	}
	ret := e.L.Get(-1)
	e.L.Pop(nret)
	return ret, nil
}

func (e *Engine) report(hook string, err error) {
	e.host.Print(fmt.Sprintf("[lua] %s hook: %v", hook, err))
}

func toLValue(v any) glua.LValue {
	switch v := v.(type) {
	case string:
		return glua.LString(v)
	case int:
		return glua.LNumber(v)
	case bool:
		return glua.LBool(v)
	case fmt.Stringer:
		return glua.LString(v.String())
	case nil:
		return glua.LNil
	default:
		return glua.LString(fmt.Sprint(v))
	}
}

// expandTilde expands ~ to home directory.
func expandTilde(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
