// Package debug provides runtime monitoring and diagnostics.
package debug

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/drake/wsecho/config"
	"github.com/drake/wsecho/session"
)

const defaultInterval = 5 * time.Second

// StatsSource is satisfied by *session.Session.
type StatsSource interface {
	Stats() session.Stats
}

// Monitor periodically logs session statistics when debug mode is enabled.
type Monitor struct {
	source   StatsSource
	interval time.Duration
	ctx      context.Context
	logger   zerolog.Logger
}

// NewMonitor creates a new monitor for the given session.
// If debug mode is not enabled (WSECHO_DEBUG=1), returns nil.
func NewMonitor(ctx context.Context, src StatsSource, log zerolog.Logger) *Monitor {
	if !config.Debug() {
		return nil
	}

	return &Monitor{
		source:   src,
		interval: defaultInterval,
		ctx:      ctx,
		logger:   log.With().Str("component", "monitor").Logger(),
	}
}

// Start begins the monitoring loop in a goroutine.
func (m *Monitor) Start() {
	if m == nil {
		return
	}
	go m.run()
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Debug().Dur("interval", m.interval).Msg("monitor started")

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Debug().Msg("monitor stopped")
			return
		case <-ticker.C:
			m.logStats()
		}
	}
}

func (m *Monitor) logStats() {
	s := m.source.Stats()

	ev := m.logger.Info().
		Uint64("events", s.EventsProcessed).
		Int("event_queue", s.EventQueueLen).
		Int("event_queue_cap", s.EventQueueCap).
		Int("goroutines", s.Goroutines).
		Int("timers", s.ActiveTimers).
		Int64("lua_callbacks", s.LuaCallbacks).
		Str("state", s.State).
		Int64("log_lines", s.LogLines)

	if s.HasNetwork {
		n := s.Network
		lastRead := "never"
		if !n.LastReadTime.IsZero() {
			lastRead = time.Since(n.LastReadTime).Round(time.Second).String() + " ago"
		}
		ev = ev.Dict("net", zerolog.Dict().
			Bool("connected", n.Connected).
			Str("handle", n.Handle).
			Uint64("frames_read", n.FramesRead).
			Uint64("frames_written", n.FramesWritten).
			Uint64("bytes_read", n.BytesRead).
			Uint64("bytes_written", n.BytesWritten).
			Str("last_read", lastRead).
			Int("send_queue", n.SendQueueLen).
			Int("send_queue_cap", n.SendQueueCap).
			Int("output_queue", n.OutputQueueLen).
			Int("output_queue_cap", n.OutputQueueCap))
	}

	ev.Msg("stats")
}
