package xembed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/trickstertwo/xlog"
)

// ChangeHandler receives lifecycle change events for one experience together
// with its frame controller (nil until the frame exists).
type ChangeHandler func(e ChangeEvent, frame *FrameController)

// Page is the per-host-page coordination object. It owns the experience
// registry and the event manager and constructs experiences against them;
// independent pages never share state.
type Page struct {
	contextID   string
	hostOrigin  string
	codec       Codec
	logger      *xlog.Logger
	registry    *ExperienceRegistry
	manager     *EventManager
	newBoundary func() (Boundary, error)

	observersMu sync.RWMutex
	observers   []Observer

	mu          sync.Mutex
	experiences []*Experience
	closed      atomic.Bool
}

// ContextID returns the page context identity stamped on every experience.
func (p *Page) ContextID() string { return p.contextID }

// Manager exposes the page's event manager, mainly for diagnostics.
func (p *Page) Manager() *EventManager { return p.manager }

// AddObserver registers a page-level change event observer (thread-safe).
func (p *Page) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	p.observersMu.Lock()
	p.observers = append(p.observers, obs)
	p.observersMu.Unlock()
}

// RemoveObserver removes an observer.
func (p *Page) RemoveObserver(obs Observer) {
	if obs == nil {
		return
	}
	p.observersMu.Lock()
	defer p.observersMu.Unlock()
	for i, o := range p.observers {
		if o == obs {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

func (p *Page) notify(e ChangeEvent) {
	p.observersMu.RLock()
	obs := make([]Observer, len(p.observers))
	copy(obs, p.observers)
	p.observersMu.RUnlock()
	for _, o := range obs {
		o.OnChange(e)
	}
}

// changeEmitter fans one experience's change events out to the host callback
// and the page observers, synchronously at the emission point.
type changeEmitter struct {
	page     *Page
	onChange ChangeHandler

	mu    sync.Mutex
	frame *FrameController
}

func (ce *changeEmitter) setFrame(f *FrameController) {
	ce.mu.Lock()
	ce.frame = f
	ce.mu.Unlock()
}

func (ce *changeEmitter) emit(e ChangeEvent) {
	ce.page.notify(e)
	if ce.onChange == nil {
		return
	}
	ce.mu.Lock()
	f := ce.frame
	ce.mu.Unlock()
	ce.onChange(e, f)
}

// Dashboard embeds a dashboard experience. Construction failures (malformed
// URL, boundary creation) return synchronously; everything afterwards reports
// through the change event stream only.
func (p *Page) Dashboard(ctx context.Context, opts DashboardOptions) (*DashboardExperience, error) {
	exp, err := p.embed(ctx, ExperienceDashboard, opts.URL, opts.ContentOptions, opts.Frame, opts.OnChange, opts.OnMessage)
	if err != nil {
		return nil, err
	}
	return &DashboardExperience{Experience: exp}, nil
}

// Visual embeds a single-visual experience.
func (p *Page) Visual(ctx context.Context, opts VisualOptions) (*VisualExperience, error) {
	exp, err := p.embed(ctx, ExperienceVisual, opts.URL, opts.ContentOptions, opts.Frame, opts.OnChange, opts.OnMessage)
	if err != nil {
		return nil, err
	}
	return &VisualExperience{Experience: exp}, nil
}

func (p *Page) embed(ctx context.Context, t ExperienceType, rawURL string, copts ContentOptions, fopts FrameOptions, onChange ChangeHandler, onMessage NotificationHandler) (*Experience, error) {
	if p.closed.Load() {
		return nil, ErrPageClosed
	}

	ce := &changeEmitter{page: p, onChange: onChange}
	ce.emit(newChangeEvent(FrameStarted, fmt.Sprintf("creating %s frame", t), nil))

	parsed, err := ParseContentURL(t, rawURL)
	if err != nil {
		ce.emit(newChangeEvent(InvalidURL, err.Error(), rawURL))
		return nil, err
	}

	key := parsed.Key(t, p.contextID)
	identifier, discriminator := p.registry.Identify(key)
	identity := key.Identity(discriminator)

	src, unrecognized := BuildFrameURL(parsed, identity, p.hostOrigin, copts)
	if len(unrecognized) > 0 {
		ce.emit(newChangeEvent(
			UnrecognizedContentOptions,
			"unrecognized content options: "+strings.Join(unrecognized, ", "),
			unrecognized,
		))
	}

	boundary, err := p.newBoundary()
	if err != nil {
		p.registry.Release(identifier)
		ce.emit(newChangeEvent(FrameNotCreated, err.Error(), identity))
		return nil, err
	}

	frame := newFrameController(boundary, identity, p.manager, p.logger, ce.emit, fopts)
	ce.setFrame(frame)

	var ics []Interceptor
	if fopts.AutoResize {
		ics = append(ics, autoResizeInterceptor(frame))
	}
	reg := p.manager.Register(identity, frame, onMessage, ics...)

	if err := frame.Open(ctx, src); err != nil {
		_ = reg.Close()
		_ = boundary.Close(ctx)
		p.registry.Release(identifier)
		ce.emit(newChangeEvent(FrameNotCreated, err.Error(), identity))
		return nil, err
	}
	ce.emit(newChangeEvent(FrameMounted, "frame mounted", identity))

	exp := &Experience{
		identity:   identity,
		identifier: identifier,
		codec:      p.codec,
		mgr:        p.manager,
		frame:      frame,
		reg:        reg,
		emit:       ce.emit,
		page:       p,
	}
	p.mu.Lock()
	p.experiences = append(p.experiences, exp)
	p.mu.Unlock()
	return exp, nil
}

func (p *Page) untrack(exp *Experience) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.experiences {
		if e == exp {
			p.experiences = append(p.experiences[:i], p.experiences[i+1:]...)
			break
		}
	}
}

// Close disposes every live experience and abandons outstanding calls.
// Idempotent.
func (p *Page) Close(ctx context.Context) error {
	if p.closed.Swap(true) {
		return nil
	}

	p.mu.Lock()
	exps := make([]*Experience, len(p.experiences))
	copy(exps, p.experiences)
	p.mu.Unlock()

	var closeErr error
	for _, e := range exps {
		if err := e.Close(ctx); err != nil {
			p.logger.With(xlog.Str("experience", e.identifier)).
				Warn().Err(err).Msg("xembed: experience close failed")
			closeErr = err
		}
	}
	p.manager.Close()
	return closeErr
}
