package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControlsFor(t *testing.T) {
	tests := []struct {
		state ConnectionState
		want  Controls
	}{
		{StateDisconnected, Controls{Open: true}},
		{StateConnecting, Controls{Close: true}},
		{StateConnected, Controls{Send: true, Close: true}},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ControlsFor(tt.state))
		})
	}
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "Status: Disconnected ❌", StateDisconnected.StatusText())
	assert.Equal(t, "Status: Connecting…", StateConnecting.StatusText())
	assert.Equal(t, "Status: Connected ✅", StateConnected.StatusText())
	assert.Equal(t, "Unknown", ConnectionState(42).String())
}
