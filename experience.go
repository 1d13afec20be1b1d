package xembed

import (
	"context"
	"sync/atomic"
)

// Experience is one embedded content instance with a unique identity on the
// page. The typed facades (dashboard, visual) embed it for their call
// surface.
type Experience struct {
	identity   Identity
	identifier string
	codec      Codec
	mgr        *EventManager
	frame      *FrameController
	reg        *Registration
	emit       func(ChangeEvent)
	page       *Page
	closed     atomic.Bool
}

// Identity returns the routing identity stamped on every envelope.
func (e *Experience) Identity() Identity { return e.identity }

// Identifier returns the page-unique identifier assigned by the registry.
func (e *Experience) Identifier() string { return e.identifier }

// Frame returns the frame controller owning the embed boundary.
func (e *Experience) Frame() *FrameController { return e.frame }

// Send issues one outbound request and returns its pending call handle.
func (e *Experience) Send(ctx context.Context, eventName string, payload any) (*Call, error) {
	if e.closed.Load() {
		return nil, ErrExperienceClosed
	}
	return e.mgr.Send(ctx, e.identity, eventName, payload)
}

// call sends a request and waits for the correlated response.
func (e *Experience) call(ctx context.Context, eventName string, payload any) (*Envelope, error) {
	c, err := e.Send(ctx, eventName, payload)
	if err != nil {
		return nil, err
	}
	return c.Reply(ctx)
}

// Close disposes the experience: no further envelopes are routed to it and
// the boundary is detached. Idempotent.
func (e *Experience) Close(ctx context.Context) error {
	if e.closed.Swap(true) {
		return nil
	}
	_ = e.reg.Close()
	err := e.frame.Close(ctx)
	e.page.untrack(e)
	return err
}
