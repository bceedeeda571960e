package lua

import (
	"regexp"
	"time"

	glua "github.com/yuin/gopher-lua"
)

const luaRegexTypeName = "Regex"

// registerAPIs installs the global echo table.
func (e *Engine) registerAPIs() {
	e.echoTable = e.L.NewTable()
	e.L.SetGlobal("echo", e.echoTable)

	e.L.SetField(e.echoTable, "endpoint", glua.LString(e.host.Endpoint()))

	e.registerCoreFuncs()
	e.registerTimerFuncs()
	e.registerRegexFuncs()
}

func (e *Engine) registerCoreFuncs() {
	// echo.on(event, fn): Register a hook
	e.L.SetField(e.echoTable, "on", e.L.NewFunction(func(L *glua.LState) int {
		name := L.CheckString(1)
		fn := L.CheckFunction(2)
		if !validHooks[name] {
			L.ArgError(1, "unknown hook "+name)
			return 0
		}
		e.hooks[name] = append(e.hooks[name], fn)
		return 0
	}))

	// echo.print(text): Append a line to the log
	e.L.SetField(e.echoTable, "print", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Print(L.CheckString(1))
		return 0
	}))

	// echo.send(text): Same path as typed input, minus the input hooks
	e.L.SetField(e.echoTable, "send", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Send(L.CheckString(1))
		return 0
	}))

	e.L.SetField(e.echoTable, "open", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Open()
		return 0
	}))

	e.L.SetField(e.echoTable, "close", e.L.NewFunction(func(L *glua.LState) int {
		e.host.Close()
		return 0
	}))

	// echo.state(): "Disconnected" | "Connecting" | "Connected"
	e.L.SetField(e.echoTable, "state", e.L.NewFunction(func(L *glua.LState) int {
		L.Push(glua.LString(e.host.State()))
		return 1
	}))
}

func (e *Engine) registerTimerFuncs() {
	// echo.after(seconds, fn): Run fn once; returns the timer id
	e.L.SetField(e.echoTable, "after", e.L.NewFunction(func(L *glua.LState) int {
		d := checkDuration(L, 1)
		fn := L.CheckFunction(2)
		id := e.host.After(d)
		e.timers[id] = fn
		L.Push(glua.LNumber(id))
		return 1
	}))

	// echo.every(seconds, fn): Run fn repeatedly; returns the timer id
	e.L.SetField(e.echoTable, "every", e.L.NewFunction(func(L *glua.LState) int {
		d := checkDuration(L, 1)
		fn := L.CheckFunction(2)
		id := e.host.Every(d)
		e.timers[id] = fn
		L.Push(glua.LNumber(id))
		return 1
	}))

	// echo.cancel(id)
	e.L.SetField(e.echoTable, "cancel", e.L.NewFunction(func(L *glua.LState) int {
		id := L.CheckInt(1)
		delete(e.timers, id)
		e.host.CancelTimer(id)
		return 0
	}))
}

func checkDuration(L *glua.LState, n int) time.Duration {
	secs := float64(L.CheckNumber(n))
	if secs <= 0 {
		L.ArgError(n, "duration must be positive")
	}
	return time.Duration(secs * float64(time.Second))
}

// registerRegexType registers the Regex userdata type.
func registerRegexType(L *glua.LState) {
	mt := L.NewTypeMetatable(luaRegexTypeName)
	L.SetField(mt, "__index", L.NewFunction(regexIndex))
}

// regexIndex handles method calls on Regex userdata.
func regexIndex(L *glua.LState) int {
	re := L.CheckUserData(1).Value.(*regexp.Regexp)
	method := L.CheckString(2)

	switch method {
	case "match":
		// Called as re:match(text), so the receiver is argument 1.
		L.Push(L.NewFunction(func(L *glua.LState) int {
			text := L.CheckString(2)
			matches := re.FindStringSubmatch(text)
			if matches == nil {
				L.Push(glua.LNil)
				return 1
			}
			tbl := L.NewTable()
			for i, m := range matches {
				tbl.RawSetInt(i+1, glua.LString(m))
			}
			L.Push(tbl)
			return 1
		}))
		return 1
	case "pattern":
		L.Push(L.NewFunction(func(L *glua.LState) int {
			L.Push(glua.LString(re.String()))
			return 1
		}))
		return 1
	}

	return 0
}

func (e *Engine) registerRegexFuncs() {
	registerRegexType(e.L)

	// echo.regex(pattern): Compile (or fetch from cache) a Regex userdata
	e.L.SetField(e.echoTable, "regex", e.L.NewFunction(func(L *glua.LState) int {
		pattern := L.CheckString(1)

		re, ok := e.regexCache.Get(pattern)
		if !ok {
			var err error
			re, err = regexp.Compile(pattern)
			if err != nil {
				L.Push(glua.LNil)
				L.Push(glua.LString(err.Error()))
				return 2
			}
			e.regexCache.Add(pattern, re)
		}

		ud := L.NewUserData()
		ud.Value = re
		L.SetMetatable(ud, L.GetTypeMetatable(luaRegexTypeName))
		L.Push(ud)
		return 1
	}))
}

// RegexCacheLen returns the number of compiled patterns held.
func (e *Engine) RegexCacheLen() int {
	return e.regexCache.Len()
}
