package xembed

import (
	"context"
	"sync"
)

// fakeBoundary is an in-package loopback used by the core tests; the
// adapter/memory package ships the real one.
type fakeBoundary struct {
	mu      sync.Mutex
	handler func(*Envelope)
	sent    []*Envelope
	height  string
	src     string
	closed  bool
	openErr error
	txErr   error
	// respond scripts the remote: replies are delivered synchronously.
	respond func(*Envelope) *Envelope
	// autoLoad emits the load control envelope during Open.
	autoLoad bool
}

var (
	_ Boundary     = (*fakeBoundary)(nil)
	_ HeightSetter = (*fakeBoundary)(nil)
)

func (fb *fakeBoundary) Open(_ context.Context, src string, handler func(*Envelope)) error {
	if fb.openErr != nil {
		return fb.openErr
	}
	fb.mu.Lock()
	fb.src = src
	fb.handler = handler
	fb.mu.Unlock()
	if fb.autoLoad {
		fb.load()
	}
	return nil
}

func (fb *fakeBoundary) Transmit(_ context.Context, env *Envelope) error {
	if fb.txErr != nil {
		return fb.txErr
	}
	fb.mu.Lock()
	fb.sent = append(fb.sent, env)
	respond := fb.respond
	fb.mu.Unlock()
	if respond != nil {
		if reply := respond(env); reply != nil {
			fb.emit(reply)
		}
	}
	return nil
}

func (fb *fakeBoundary) Close(context.Context) error {
	fb.mu.Lock()
	fb.closed = true
	fb.mu.Unlock()
	return nil
}

func (fb *fakeBoundary) SetHeight(h string) {
	fb.mu.Lock()
	fb.height = h
	fb.mu.Unlock()
}

func (fb *fakeBoundary) Height() string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.height
}

func (fb *fakeBoundary) Sent() []*Envelope {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]*Envelope, len(fb.sent))
	copy(out, fb.sent)
	return out
}

// emit delivers an envelope as if the remote content sent it.
func (fb *fakeBoundary) emit(env *Envelope) {
	fb.mu.Lock()
	h := fb.handler
	fb.mu.Unlock()
	if h != nil {
		h(env)
	}
}

func (fb *fakeBoundary) load() {
	fb.emit(&Envelope{EventName: ControlFrameLoaded})
}

func (fb *fakeBoundary) Closed() bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.closed
}

// boundaryFarm hands a fresh fakeBoundary to each experience.
type boundaryFarm struct {
	mu         sync.Mutex
	boundaries []*fakeBoundary
	respond    func(*Envelope) *Envelope
	autoLoad   bool
	openErr    error
}

func (f *boundaryFarm) factory() (Boundary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb := &fakeBoundary{respond: f.respond, autoLoad: f.autoLoad, openErr: f.openErr}
	f.boundaries = append(f.boundaries, fb)
	return fb, nil
}

func (f *boundaryFarm) setOpenErr(err error) {
	f.mu.Lock()
	f.openErr = err
	f.mu.Unlock()
}

func (f *boundaryFarm) boundary(i int) *fakeBoundary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boundaries[i]
}

// recordingObserver captures change events for assertions.
type recordingObserver struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (r *recordingObserver) OnChange(e ChangeEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingObserver) named(name ChangeEventName) []ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ChangeEvent
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingObserver) names() []ChangeEventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChangeEventName, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func newTestPage(farm *boundaryFarm, opts ...func(*PageBuilder)) (*Page, *recordingObserver) {
	rec := &recordingObserver{}
	pb := NewPageBuilder().
		WithBoundaryFactory(farm.factory).
		WithContextID("ctx-test").
		WithHostOrigin("https://host.example.com").
		WithReplyTimeout(0).
		WithObserver(rec)
	for _, o := range opts {
		o(pb)
	}
	page, err := pb.Build()
	if err != nil {
		panic(err)
	}
	return page, rec
}
