package xembed

import (
	"context"
	"sync"

	"github.com/trickstertwo/xlog"
)

// FrameState tracks the load state of one embed boundary.
type FrameState string

const (
	FrameStateNotLoaded FrameState = "not-loaded"
	FrameStateLoaded    FrameState = "loaded"
	FrameStateClosed    FrameState = "closed"
)

// FrameController owns exactly one embed boundary: it assigns the built URL,
// watches for the load signal, forwards protocol envelopes both ways, and
// applies frame-local features (auto-resize) ahead of generic listeners.
type FrameController struct {
	boundary Boundary
	identity Identity
	mgr      *EventManager
	logger   *xlog.Logger
	emit     func(ChangeEvent)

	rejectWhileLoading bool

	mu     sync.Mutex
	state  FrameState
	src    string
	width  string
	height string
	queue  []*Envelope
}

func newFrameController(boundary Boundary, identity Identity, mgr *EventManager, logger *xlog.Logger, emit func(ChangeEvent), opts FrameOptions) *FrameController {
	if emit == nil {
		emit = func(ChangeEvent) {}
	}
	if logger == nil {
		logger = xlog.Default()
	}
	return &FrameController{
		boundary:           boundary,
		identity:           identity,
		mgr:                mgr,
		logger:             logger,
		emit:               emit,
		rejectWhileLoading: opts.RejectWhileLoading,
		state:              FrameStateNotLoaded,
		width:              opts.Width,
		height:             opts.Height,
	}
}

// Open assigns the frame source URL and starts consuming inbound envelopes.
func (f *FrameController) Open(ctx context.Context, src string) error {
	f.mu.Lock()
	f.src = src
	f.mu.Unlock()
	return f.boundary.Open(ctx, src, f.handleInbound)
}

// Transmit forwards one outbound envelope across the boundary. Before the
// load signal arrives, envelopes are queued in order (default) or rejected
// with ErrFrameNotReady when RejectWhileLoading is set.
func (f *FrameController) Transmit(ctx context.Context, env *Envelope) error {
	f.mu.Lock()
	switch f.state {
	case FrameStateClosed:
		f.mu.Unlock()
		return ErrFrameClosed
	case FrameStateNotLoaded:
		if f.rejectWhileLoading {
			f.mu.Unlock()
			return ErrFrameNotReady
		}
		f.queue = append(f.queue, env)
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()
	return f.boundary.Transmit(ctx, env)
}

// handleInbound consumes every envelope the boundary delivers. Control
// envelopes mark frame lifecycle and never reach the message channel.
func (f *FrameController) handleInbound(env *Envelope) {
	if env == nil {
		return
	}
	f.mu.Lock()
	closed := f.state == FrameStateClosed
	f.mu.Unlock()
	if closed {
		return
	}

	switch env.EventName {
	case ControlFrameLoaded:
		f.markLoaded()
	case ControlFrameError:
		f.emit(newChangeEvent(FrameContentError, "embedded content reported an error", string(env.Message)))
	default:
		if env.EventName == "" || env.EventTarget == nil {
			f.emit(newChangeEvent(UnrecognizedFrameMessage,
				"unrecognized frame message: "+env.EventName, env.EventName))
			return
		}
		f.mgr.DispatchInbound(env)
	}
}

func (f *FrameController) markLoaded() {
	f.mu.Lock()
	if f.state != FrameStateNotLoaded {
		f.mu.Unlock()
		return
	}
	f.state = FrameStateLoaded
	flush := f.queue
	f.queue = nil
	f.mu.Unlock()

	f.emit(newChangeEvent(FrameLoaded, "frame loaded", f.identity))

	for _, env := range flush {
		if err := f.boundary.Transmit(context.Background(), env); err != nil {
			f.logger.With(xlog.Str("event_name", env.EventName)).
				Warn().Err(err).Msg("xembed: queued transmit failed")
		}
	}
}

// setHeight records the reported height and applies it to the boundary when
// its surface supports it.
func (f *FrameController) setHeight(height string) {
	f.mu.Lock()
	f.height = height
	f.mu.Unlock()
	if hs, ok := f.boundary.(HeightSetter); ok {
		hs.SetHeight(height)
	}
}

// State returns the current load state.
func (f *FrameController) State() FrameState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Src returns the frame source URL assigned at Open.
func (f *FrameController) Src() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.src
}

// Height returns the current frame height.
func (f *FrameController) Height() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height
}

// Width returns the advisory frame width.
func (f *FrameController) Width() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width
}

// Close detaches the boundary and drops any queued envelopes. No inbound
// envelopes are processed after Close returns.
func (f *FrameController) Close(ctx context.Context) error {
	f.mu.Lock()
	if f.state == FrameStateClosed {
		f.mu.Unlock()
		return nil
	}
	f.state = FrameStateClosed
	f.queue = nil
	f.mu.Unlock()

	err := f.boundary.Close(ctx)
	f.emit(newChangeEvent(FrameRemoved, "frame removed", f.identity))
	return err
}

// sizeChangedPayload is the SIZE_CHANGED notification payload.
type sizeChangedPayload struct {
	Height string `json:"height"`
}

// autoResizeInterceptor applies SIZE_CHANGED notifications to the frame
// height ("500" becomes "500px"). Installed only when FrameOptions.AutoResize
// is set; without it the notification leaves the frame untouched.
func autoResizeInterceptor(f *FrameController) Interceptor {
	return func(next NotificationHandler) NotificationHandler {
		return func(ctx context.Context, env *Envelope) error {
			if env.EventName == NotificationSizeChanged {
				p, err := Decode[sizeChangedPayload](ctx, env)
				if err == nil && p.Height != "" {
					f.setHeight(p.Height + "px")
				}
			}
			return next(ctx, env)
		}
	}
}
