package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Endpoint is the echo server every session connects to.
const Endpoint = "wss://echo.websocket.org"

// Dir returns the wsecho configuration directory.
// Respects XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "wsecho")
}

// InitFile returns the path to init.lua
func InitFile() string {
	return filepath.Join(Dir(), "init.lua")
}

// LogFile returns the default diagnostics log path.
func LogFile() string {
	return filepath.Join(Dir(), "wsecho.log")
}

// Debug reports whether the stats monitor is requested (WSECHO_DEBUG=1).
func Debug() bool {
	return os.Getenv("WSECHO_DEBUG") == "1"
}
