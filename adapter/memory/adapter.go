package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trickstertwo/xembed"
)

const BoundaryName = "memory"

func init() {
	if err := xembed.RegisterBoundary(BoundaryName, func(cfg map[string]any) (xembed.Boundary, error) {
		return NewBoundary(ConfigFromMap(cfg)), nil
	}); err != nil {
		panic(fmt.Errorf("xembed/memory: failed to register boundary: %w", err))
	}
}

// Responder scripts the remote content: it receives every transmitted
// envelope and may return a reply to deliver back to the host. Returning nil
// swallows the request (useful for exercising reply timeouts).
type Responder func(env *xembed.Envelope) *xembed.Envelope

// Config controls the in-memory boundary behavior.
type Config struct {
	// AutoLoad delivers the load control envelope on Open (default: true).
	AutoLoad bool
	// LoadDelay postpones the load signal (default: 0 = immediate).
	LoadDelay time.Duration
	// BufferSize is the inbound delivery queue size (default: 64).
	BufferSize int
	// Responder scripts replies to transmitted envelopes (optional).
	Responder Responder
}

// Defaults returns a Config with test-friendly defaults.
func Defaults() Config {
	return Config{AutoLoad: true, BufferSize: 64}
}

// ConfigFromMap safely converts a generic map to Config with defaults.
// The responder cannot be expressed in a map; construct directly for that.
func ConfigFromMap(m map[string]any) Config {
	c := Defaults()
	if v, ok := m["auto_load"].(bool); ok {
		c.AutoLoad = v
	}
	switch v := m["load_delay"].(type) {
	case time.Duration:
		c.LoadDelay = v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			c.LoadDelay = d
		}
	}
	if v, ok := m["buffer_size"].(int); ok && v > 0 {
		c.BufferSize = v
	}
	return c
}

// Boundary implements xembed.Boundary as an in-process loopback
// (dev/testing). A single dispatch goroutine preserves delivery order, and
// replies are always delivered on a later turn than the transmit that caused
// them.
type Boundary struct {
	cfg Config

	mu      sync.Mutex
	handler func(*xembed.Envelope)
	src     string
	height  string
	sent    []*xembed.Envelope

	inbox  chan *xembed.Envelope
	done   chan struct{}
	opened atomic.Bool
	closed atomic.Bool
}

var (
	_ xembed.Boundary     = (*Boundary)(nil)
	_ xembed.HeightSetter = (*Boundary)(nil)
)

// NewBoundary creates a new in-memory boundary.
func NewBoundary(cfg Config) *Boundary {
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 64
	}
	return &Boundary{
		cfg:   cfg,
		inbox: make(chan *xembed.Envelope, cfg.BufferSize),
		done:  make(chan struct{}),
	}
}

// Open stores the inbound handler and, when AutoLoad is set, schedules the
// load control envelope.
func (b *Boundary) Open(_ context.Context, src string, handler func(*xembed.Envelope)) error {
	if b.closed.Load() {
		return errors.New("memory boundary is closed")
	}
	if b.opened.Swap(true) {
		return errors.New("memory boundary already open")
	}

	b.mu.Lock()
	b.src = src
	b.handler = handler
	b.mu.Unlock()

	go b.dispatch()

	if b.cfg.AutoLoad {
		load := &xembed.Envelope{EventName: xembed.ControlFrameLoaded}
		if b.cfg.LoadDelay > 0 {
			time.AfterFunc(b.cfg.LoadDelay, func() { b.EmitFromRemote(load) })
		} else {
			b.EmitFromRemote(load)
		}
	}
	return nil
}

// Transmit records the outbound envelope and runs the responder, delivering
// any scripted reply through the inbound queue.
func (b *Boundary) Transmit(_ context.Context, env *xembed.Envelope) error {
	if b.closed.Load() {
		return errors.New("memory boundary is closed")
	}
	b.mu.Lock()
	b.sent = append(b.sent, env)
	b.mu.Unlock()

	if b.cfg.Responder != nil {
		if reply := b.cfg.Responder(env); reply != nil {
			b.EmitFromRemote(reply)
		}
	}
	return nil
}

// EmitFromRemote enqueues an envelope as if the embedded content sent it.
// Tests use it to inject notifications and control envelopes.
func (b *Boundary) EmitFromRemote(env *xembed.Envelope) {
	if b.closed.Load() || env == nil {
		return
	}
	select {
	case b.inbox <- env:
	case <-b.done:
	}
}

func (b *Boundary) dispatch() {
	for {
		select {
		case <-b.done:
			return
		case env := <-b.inbox:
			b.mu.Lock()
			h := b.handler
			b.mu.Unlock()
			if h != nil {
				h(env)
			}
		}
	}
}

// Close stops delivery. Idempotent.
func (b *Boundary) Close(_ context.Context) error {
	if b.closed.Swap(true) {
		return nil
	}
	close(b.done)
	return nil
}

// SetHeight records the applied frame height (HeightSetter).
func (b *Boundary) SetHeight(height string) {
	b.mu.Lock()
	b.height = height
	b.mu.Unlock()
}

// Height returns the last applied height.
func (b *Boundary) Height() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.height
}

// Src returns the frame URL assigned at Open.
func (b *Boundary) Src() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.src
}

// Sent returns the transmitted envelopes in order.
func (b *Boundary) Sent() []*xembed.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*xembed.Envelope, len(b.sent))
	copy(out, b.sent)
	return out
}
