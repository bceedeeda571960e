package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/drake/wsecho/event"
)

// Close codes used by the client.
const (
	CloseNormal    = websocket.CloseNormalClosure   // 1000
	CloseGoingAway = websocket.CloseGoingAway       // 1001
	CloseAbnormal  = websocket.CloseAbnormalClosure // 1006, never sent on the wire
)

const (
	writeWait      = 5 * time.Second
	closeWait      = 5 * time.Second
	sendQueueSize  = 4096
	eventQueueSize = 256
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrQueueFull    = errors.New("send buffer full (network stalled?)")
)

// Handle is one WebSocket session. It is created by Dialer.Dial and is
// dead once its Closed event has been emitted.
type Handle interface {
	ID() string
	Send(text string) error
	Close(code int, reason string) error
}

// Dialer creates handles. Dial never blocks: the outcome of the handshake
// arrives later on Events as Opened, or Error followed by Closed.
type Dialer interface {
	Dial(url string) Handle
	Events() <-chan event.Event
}

// Stats holds network statistics for monitoring.
type Stats struct {
	Connected      bool
	Handle         string
	FramesRead     uint64
	FramesWritten  uint64
	BytesRead      uint64
	BytesWritten   uint64
	LastReadTime   time.Time
	SendQueueLen   int
	SendQueueCap   int
	OutputQueueLen int
	OutputQueueCap int
}

// Client manages the lifecycle of WebSocket connections.
// It provides a stable event channel for the session while handling the
// chaotic reality of network sockets underneath.
type Client struct {
	// Stable channel that the session reads from. Never closes.
	events chan event.Event
	stop   chan struct{}

	dialer    websocket.Dialer
	closeWait time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	current *connection
	stopped sync.Once

	framesRead    atomic.Uint64
	framesWritten atomic.Uint64
	bytesRead     atomic.Uint64
	bytesWritten  atomic.Uint64
	lastReadTime  atomic.Int64 // Unix nano
}

// connection is a single, ephemeral WebSocket session.
type connection struct {
	id     string
	client *Client

	// ctx is cancelled by Close while the handshake is still running.
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	conn *websocket.Conn // nil until the handshake completes

	sendQueue chan string
	closing   atomic.Bool

	done       chan struct{}
	closeOnce  sync.Once
	finishOnce sync.Once
}

// NewClient creates a new client. Transport diagnostics go to log.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		events:    make(chan event.Event, eventQueueSize),
		stop:      make(chan struct{}),
		dialer:    *websocket.DefaultDialer,
		closeWait: closeWait,
		log:       log.With().Str("component", "network").Logger(),
	}
}

// Dial starts a handshake with url and returns the handle immediately.
func (c *Client) Dial(url string) Handle {
	ctx, cancel := context.WithCancel(context.Background())
	cx := &connection{
		id:        uuid.NewString(),
		client:    c,
		ctx:       ctx,
		cancel:    cancel,
		sendQueue: make(chan string, sendQueueSize),
		done:      make(chan struct{}),
	}

	c.mu.Lock()
	c.current = cx
	c.mu.Unlock()

	c.framesRead.Store(0)
	c.framesWritten.Store(0)
	c.bytesRead.Store(0)
	c.bytesWritten.Store(0)
	c.lastReadTime.Store(0)

	c.log.Debug().Str("handle", cx.id).Str("url", url).Msg("dialing")
	go c.run(cx, url)
	return cx
}

// Events returns the stable event channel.
func (c *Client) Events() <-chan event.Event {
	return c.events
}

// Stop releases goroutines blocked on emitting events. Call once the
// session loop no longer reads Events.
func (c *Client) Stop() {
	c.stopped.Do(func() {
		close(c.stop)
	})
}

// Stats returns current network statistics.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	cx := c.current
	c.mu.Unlock()

	var s Stats
	if cx != nil {
		s.Handle = cx.id
		s.Connected = cx.isOpen()
		s.SendQueueLen = len(cx.sendQueue)
		s.SendQueueCap = cap(cx.sendQueue)
	}

	if ns := c.lastReadTime.Load(); ns != 0 {
		s.LastReadTime = time.Unix(0, ns)
	}
	s.FramesRead = c.framesRead.Load()
	s.FramesWritten = c.framesWritten.Load()
	s.BytesRead = c.bytesRead.Load()
	s.BytesWritten = c.bytesWritten.Load()
	s.OutputQueueLen = len(c.events)
	s.OutputQueueCap = cap(c.events)
	return s
}

// --- Worker Routines ---

// run performs the handshake and then owns the read side of the connection.
func (c *Client) run(cx *connection, url string) {
	d := c.dialer
	d.NetDialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		raw, err := (&net.Dialer{}).DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		// A peer that never answers the upgrade would otherwise hold the
		// handshake until its timeout; Close cancels cx.ctx.
		context.AfterFunc(cx.ctx, func() { raw.Close() })
		return raw, nil
	}

	conn, _, err := d.DialContext(cx.ctx, url, nil)
	if err != nil {
		if cx.ctx.Err() != nil {
			c.finish(cx, CloseAbnormal, "connection attempt cancelled")
			return
		}
		c.emit(event.Event{Type: event.Error, Handle: cx.id, Diagnostic: err})
		c.finish(cx, CloseAbnormal, "")
		return
	}

	cx.mu.Lock()
	if cx.ctx.Err() != nil {
		// Close raced the handshake; drop the fresh socket.
		cx.mu.Unlock()
		conn.Close()
		c.finish(cx, CloseAbnormal, "connection attempt cancelled")
		return
	}
	cx.conn = conn
	cx.mu.Unlock()

	c.emit(event.Event{Type: event.Opened, Handle: cx.id})

	go c.writeLoop(cx, conn)
	c.readLoop(cx, conn)
}

// readLoop turns inbound frames into events until the connection dies.
func (c *Client) readLoop(cx *connection, conn *websocket.Conn) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			switch {
			case errors.As(err, &ce):
				c.finish(cx, ce.Code, ce.Text)
			case cx.closing.Load():
				// We asked to close and the peer never answered in time.
				c.log.Debug().Str("handle", cx.id).Err(err).Msg("close handshake incomplete")
				c.finish(cx, CloseAbnormal, "")
			default:
				c.emit(event.Event{Type: event.Error, Handle: cx.id, Diagnostic: err})
				c.finish(cx, CloseAbnormal, "")
			}
			return
		}

		c.framesRead.Add(1)
		c.bytesRead.Add(uint64(len(data)))
		c.lastReadTime.Store(time.Now().UnixNano())

		if kind != websocket.TextMessage {
			c.log.Warn().Str("handle", cx.id).Int("frame_type", kind).Int("bytes", len(data)).Msg("dropping non-text frame")
			continue
		}

		c.emit(event.Event{Type: event.Message, Handle: cx.id, Payload: string(data)})
	}
}

// writeLoop handles outgoing frames for a specific connection.
func (c *Client) writeLoop(cx *connection, conn *websocket.Conn) {
	for {
		select {
		case <-cx.done:
			return
		case text := <-cx.sendQueue:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.TextMessage, []byte(text))
			conn.SetWriteDeadline(time.Time{})

			if errors.Is(err, websocket.ErrCloseSent) {
				// Queued before Close; the peer's close reply is still pending.
				c.log.Debug().Str("handle", cx.id).Msg("dropping frame queued before close")
				continue
			}
			if err != nil {
				// Write failed - close the socket to trigger readLoop cleanup
				c.log.Debug().Str("handle", cx.id).Err(err).Msg("write failed")
				conn.Close()
				return
			}
			c.framesWritten.Add(1)
			c.bytesWritten.Add(uint64(len(text)))
		}
	}
}

// finish emits the single Closed event for cx and releases its resources.
func (c *Client) finish(cx *connection, code int, reason string) {
	cx.finishOnce.Do(func() {
		close(cx.done)
		cx.cancel()

		cx.mu.Lock()
		if cx.conn != nil {
			cx.conn.Close()
		}
		cx.mu.Unlock()

		c.mu.Lock()
		if c.current == cx {
			c.current = nil
		}
		c.mu.Unlock()

		c.log.Debug().Str("handle", cx.id).Int("code", code).Str("reason", reason).Msg("closed")
		c.emit(event.Event{Type: event.Closed, Handle: cx.id, Code: code, Reason: reason})
	})
}

// emit delivers ev to the session, blocking while the session is busy.
func (c *Client) emit(ev event.Event) {
	select {
	case c.events <- ev:
	case <-c.stop:
	}
}

// --- Handle implementation ---

func (cx *connection) ID() string { return cx.id }

// Send queues text for the write loop. Once Close has been called the
// handle refuses new frames.
func (cx *connection) Send(text string) error {
	if !cx.isOpen() || cx.closing.Load() {
		return ErrNotConnected
	}
	select {
	case cx.sendQueue <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close starts the closing handshake, or aborts a pending handshake.
// Only the first call has any effect.
func (cx *connection) Close(code int, reason string) error {
	var err error
	cx.closeOnce.Do(func() {
		cx.closing.Store(true)

		cx.mu.Lock()
		conn := cx.conn
		if conn == nil {
			cx.cancel()
			cx.mu.Unlock()
			return
		}
		cx.mu.Unlock()

		msg := websocket.FormatCloseMessage(code, reason)
		if werr := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); werr != nil {
			if !errors.Is(werr, websocket.ErrCloseSent) && !errors.Is(werr, net.ErrClosed) {
				err = fmt.Errorf("sending close frame: %w", werr)
			}
			conn.Close()
			return
		}
		conn.SetReadDeadline(time.Now().Add(cx.client.closeWait))
	})
	return err
}

func (cx *connection) isOpen() bool {
	select {
	case <-cx.done:
		return false
	default:
	}
	cx.mu.Lock()
	defer cx.mu.Unlock()
	return cx.conn != nil
}
