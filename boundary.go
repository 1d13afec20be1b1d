package xembed

import (
	"context"
	"errors"
	"sync"
)

// Boundary is the Strategy interface for the isolated surface hosting the
// remote content. One boundary carries exactly one experience; the frame
// controller owns it for the experience's lifetime.
type Boundary interface {
	// Open points the boundary at the built frame URL and starts delivering
	// inbound envelopes (responses, notifications and control envelopes such
	// as the load signal) to the handler. The handler is invoked from the
	// boundary's delivery context; the frame controller serializes it.
	Open(ctx context.Context, src string, handler func(*Envelope)) error
	// Transmit forwards one outbound envelope across the boundary.
	Transmit(ctx context.Context, env *Envelope) error
	// Close detaches the boundary. No envelopes are delivered afterwards.
	Close(ctx context.Context) error
}

// HeightSetter is implemented by boundaries whose rendering surface has a
// controllable height. Auto-resize uses it when present.
type HeightSetter interface {
	SetHeight(height string)
}

// BoundaryFactory constructs boundaries from a config blob. The factory is
// invoked once per experience: boundaries are never shared.
type BoundaryFactory func(cfg map[string]any) (Boundary, error)

var (
	boundaryRegistryMu sync.RWMutex
	boundaryRegistry   = map[string]BoundaryFactory{}
)

// RegisterBoundary registers a boundary adapter.
func RegisterBoundary(name string, factory BoundaryFactory) error {
	if name == "" {
		return errors.New("boundary name must not be empty")
	}
	if factory == nil {
		return errors.New("boundary factory must not be nil")
	}
	boundaryRegistryMu.Lock()
	boundaryRegistry[name] = factory
	boundaryRegistryMu.Unlock()
	return nil
}

// NewBoundary constructs a boundary by name with config.
func NewBoundary(name string, cfg map[string]any) (Boundary, error) {
	boundaryRegistryMu.RLock()
	f, ok := boundaryRegistry[name]
	boundaryRegistryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownBoundary{name: name}
	}
	return f(cfg)
}
