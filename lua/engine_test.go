package lua

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTest creates an initialized engine bound to a MockHost.
func setupTest(t *testing.T) (*Engine, *MockHost) {
	t.Helper()

	host := NewMockHost()
	engine := NewEngine(host)
	require.NoError(t, engine.Init())
	t.Cleanup(engine.Close)
	return engine, host
}

func TestCoreFunctions(t *testing.T) {
	engine, host := setupTest(t)

	err := engine.DoString("core", `
		echo.print("endpoint " .. echo.endpoint)
		echo.print("state " .. echo.state())
		echo.open()
		echo.send("ping")
		echo.close()
	`)
	require.NoError(t, err)

	assert.Equal(t, []string{"endpoint wss://echo.example.test", "state Disconnected"}, host.PrintCalls)
	assert.Equal(t, []string{"ping"}, host.SendCalls)
	assert.Equal(t, 1, host.OpenCalls)
	assert.Equal(t, 1, host.CloseCalls)
}

func TestMessageHooks(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		payload  string
		want     string
		wantKeep bool
	}{
		{
			name:     "no hooks",
			payload:  "pong",
			want:     "pong",
			wantKeep: true,
		},
		{
			name:     "rewrite",
			script:   `echo.on("message", function(p) return p:upper() end)`,
			payload:  "pong",
			want:     "PONG",
			wantKeep: true,
		},
		{
			name:     "nil keeps payload",
			script:   `echo.on("message", function(p) end)`,
			payload:  "pong",
			want:     "pong",
			wantKeep: true,
		},
		{
			name:    "drop",
			script:  `echo.on("message", function(p) if p:find("^Request served by") then return false end end)`,
			payload: "Request served by 1234",
		},
		{
			name: "chained",
			script: `
				echo.on("message", function(p) return p .. "!" end)
				echo.on("message", function(p) return "[" .. p .. "]" end)
			`,
			payload:  "pong",
			want:     "[pong!]",
			wantKeep: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := setupTest(t)
			if tt.script != "" {
				require.NoError(t, engine.DoString(tt.name, tt.script))
			}

			got, keep := engine.OnMessage(tt.payload)
			assert.Equal(t, tt.wantKeep, keep)
			if tt.wantKeep {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestInputHook(t *testing.T) {
	engine, host := setupTest(t)
	require.NoError(t, engine.DoString("input", `
		echo.on("input", function(text)
			if text == "hi" then
				echo.send("hello there")
				return false
			end
		end)
	`))

	assert.False(t, engine.OnInput("hi"))
	assert.True(t, engine.OnInput("other"))
	assert.Equal(t, []string{"hello there"}, host.SendCalls)
}

func TestCallHookArguments(t *testing.T) {
	engine, host := setupTest(t)
	require.NoError(t, engine.DoString("closed", `
		echo.on("closed", function(code, reason)
			echo.print(string.format("%d/%s/%s", code, reason, type(code)))
		end)
	`))

	engine.CallHook(HookClosed, 1000, "bye")

	assert.Equal(t, []string{"1000/bye/number"}, host.PrintCalls)
}

func TestHookErrorIsReported(t *testing.T) {
	engine, host := setupTest(t)
	require.NoError(t, engine.DoString("bad", `
		echo.on("message", function(p) error("boom") end)
		echo.on("opened", function() error("kaput") end)
	`))

	got, keep := engine.OnMessage("pong")
	assert.True(t, keep)
	assert.Equal(t, "pong", got)

	engine.CallHook(HookOpened)

	require.Len(t, host.PrintCalls, 2)
	assert.Contains(t, host.PrintCalls[0], "[lua] message hook:")
	assert.Contains(t, host.PrintCalls[0], "boom")
	assert.Contains(t, host.PrintCalls[1], "[lua] opened hook:")
}

func TestUnknownHookRejected(t *testing.T) {
	engine, _ := setupTest(t)

	err := engine.DoString("unknown", `echo.on("bogus", function() end)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown hook bogus")
}

func TestRegexCache(t *testing.T) {
	engine, host := setupTest(t)

	require.NoError(t, engine.DoString("regex", `
		for i = 1, 3 do
			local re = echo.regex("^(\\w+) (\\d+)$")
			local m = re:match("pong 42")
			echo.print(m[2] .. ":" .. m[3] .. ":" .. re:pattern())
		end
		local re, err = echo.regex("(")
		if re == nil then echo.print("bad pattern") end
	`))

	assert.Equal(t, 1, engine.RegexCacheLen())
	require.Len(t, host.PrintCalls, 4)
	assert.Equal(t, `pong:42:^(\w+) (\d+)$`, host.PrintCalls[0])
	assert.Equal(t, "bad pattern", host.PrintCalls[3])
}

func TestInitResetsHooks(t *testing.T) {
	engine, _ := setupTest(t)
	require.NoError(t, engine.DoString("hook", `echo.on("opened", function() end)`))
	require.Equal(t, 1, engine.HookCount(HookOpened))

	require.NoError(t, engine.Init())
	assert.Zero(t, engine.HookCount(HookOpened))
}

func TestDoFileAllowsLocalRequire(t *testing.T) {
	engine, host := setupTest(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.lua"), []byte(`return { greet = function() echo.print("from helper") end }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.lua"), []byte(`require("helper").greet()`), 0o644))

	require.NoError(t, engine.DoFile(filepath.Join(dir, "init.lua")))
	assert.Equal(t, []string{"from helper"}, host.PrintCalls)
}

func TestTimers(t *testing.T) {
	engine, host := setupTest(t)

	require.NoError(t, engine.DoString("timers", `
		once = echo.after(0.5, function() echo.print("once") end)
		tick = echo.every(2, function() echo.print("tick") end)
		echo.print("ids " .. once .. " " .. tick)
	`))

	require.Equal(t, []time.Duration{500 * time.Millisecond, 2 * time.Second}, host.Scheduled)
	assert.Equal(t, []bool{false, true}, host.Repeating)
	assert.Equal(t, []string{"ids 1 2"}, host.PrintCalls)
	assert.Equal(t, 2, engine.TimerCallbacks())

	engine.FireTimer(1, false)
	engine.FireTimer(1, false) // already forgotten
	engine.FireTimer(2, true)
	engine.FireTimer(2, true)
	assert.Equal(t, []string{"ids 1 2", "once", "tick", "tick"}, host.PrintCalls)
	assert.Equal(t, 1, engine.TimerCallbacks())

	require.NoError(t, engine.DoString("cancel", `echo.cancel(tick)`))
	assert.Equal(t, []int{2}, host.Cancelled)
	engine.FireTimer(2, true)
	assert.Len(t, host.PrintCalls, 4)
}

func TestTimerRejectsBadDuration(t *testing.T) {
	engine, host := setupTest(t)

	err := engine.DoString("bad", `echo.after(0, function() end)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration must be positive")
	assert.Empty(t, host.Scheduled)
}

func TestInitForgetsTimers(t *testing.T) {
	engine, host := setupTest(t)
	require.NoError(t, engine.DoString("t", `echo.after(1, function() echo.print("stale") end)`))

	require.NoError(t, engine.Init())
	engine.FireTimer(1, false)

	assert.Empty(t, host.PrintCalls)
	assert.Zero(t, engine.TimerCallbacks())
}
