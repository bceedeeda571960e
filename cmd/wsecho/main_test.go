package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("WSECHO_DEBUG", "")
	return filepath.Join(dir, "wsecho.log")
}

func TestRunExitsCleanlyAtEOF(t *testing.T) {
	logPath := isolate(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-simple", "-log", logPath}, strings.NewReader("/help\n"), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"exiting"`)
}

func TestRunReportsUIError(t *testing.T) {
	logPath := isolate(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-simple", "-log", logPath}, iotest.ErrReader(errors.New("tty gone")), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "UI error: tty gone")
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ui exited with error", "deferred cleanup flushed the log")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	isolate(t)
	var stderr bytes.Buffer

	code := run([]string{"-bogus"}, strings.NewReader(""), &bytes.Buffer{}, &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "bogus")
}
