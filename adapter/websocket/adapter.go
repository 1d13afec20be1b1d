package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trickstertwo/xembed"
)

const BoundaryName = "websocket"

func init() {
	if err := xembed.RegisterBoundary(BoundaryName, func(cfg map[string]any) (xembed.Boundary, error) {
		return NewBoundary(ConfigFromMap(cfg))
	}); err != nil {
		panic(fmt.Errorf("xembed/websocket: failed to register boundary: %w", err))
	}
}

// boundary carries envelopes to a remote frame endpoint as JSON text frames.
// The frame URL's http(s) scheme is rewritten to ws(s) before dialing; the
// remote serves the embed protocol on the same path.
type boundary struct {
	cfg Config

	mu   sync.Mutex
	conn *websocket.Conn

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ xembed.Boundary = (*boundary)(nil)

// NewBoundary creates a websocket boundary. The connection is dialed at Open.
func NewBoundary(cfg Config) (xembed.Boundary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &boundary{cfg: cfg}, nil
}

func (b *boundary) Open(ctx context.Context, src string, handler func(*xembed.Envelope)) error {
	if b.closed.Load() {
		return errors.New("websocket boundary is closed")
	}

	wsURL, err := toWebsocketURL(src)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: b.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	conn.SetReadLimit(b.cfg.ReadLimit)

	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()

	go b.readLoop(conn, handler)
	return nil
}

func (b *boundary) readLoop(conn *websocket.Conn, handler func(*xembed.Envelope)) {
	for {
		var env xembed.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			// Connection gone or frame malformed beyond recovery; the frame
			// controller stops hearing from us, which is the contract.
			return
		}
		if b.closed.Load() {
			return
		}
		handler(&env)
	}
}

func (b *boundary) Transmit(ctx context.Context, env *xembed.Envelope) error {
	if b.closed.Load() {
		return errors.New("websocket boundary is closed")
	}
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return errors.New("websocket boundary not open")
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	deadline := time.Now().Add(b.cfg.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return conn.WriteJSON(env)
}

func (b *boundary) Close(_ context.Context) error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.mu.Lock()
		conn := b.conn
		b.mu.Unlock()
		if conn == nil {
			return
		}
		b.writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		b.writeMu.Unlock()
		closeErr = conn.Close()
	})
	return closeErr
}

// toWebsocketURL rewrites the frame URL scheme for dialing.
func toWebsocketURL(src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("websocket: invalid frame url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("websocket: unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}
