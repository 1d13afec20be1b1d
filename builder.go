package xembed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// PageBuilder constructs Page instances (Builder pattern). Registries and the
// event manager are owned by the built page, never by package-level state, so
// independent pages cannot leak into each other.
type PageBuilder struct {
	contextID  string
	hostOrigin string

	boundaryName    string
	boundaryCfg     map[string]any
	boundaryFactory func() (Boundary, error)

	codecName string
	codecInst Codec

	logger       *xlog.Logger
	clock        xclock.Clock
	replyTimeout time.Duration
	observers    []Observer
}

// NewPageBuilder returns a new builder with sensible defaults.
func NewPageBuilder() *PageBuilder {
	return &PageBuilder{
		codecName:    "json",
		hostOrigin:   "http://localhost",
		replyTimeout: 30 * time.Second, // bounds the pending-request table
	}
}

// WithContextID fixes the page context identity (default: random uuid).
func (pb *PageBuilder) WithContextID(id string) *PageBuilder {
	if id != "" {
		pb.contextID = id
	}
	return pb
}

// WithHostOrigin sets the host origin appended to every frame URL.
func (pb *PageBuilder) WithHostOrigin(origin string) *PageBuilder {
	if origin != "" {
		pb.hostOrigin = origin
	}
	return pb
}

// WithBoundary selects a registered boundary adapter by name. A fresh
// boundary is constructed from cfg for every experience.
func (pb *PageBuilder) WithBoundary(name string, cfg map[string]any) *PageBuilder {
	pb.boundaryName = name
	pb.boundaryCfg = cfg
	return pb
}

// WithBoundaryFactory accepts a per-experience boundary constructor
// (e.g. from an adapter's Use helper).
func (pb *PageBuilder) WithBoundaryFactory(f func() (Boundary, error)) *PageBuilder {
	pb.boundaryFactory = f
	return pb
}

// WithCodec selects a codec by name (default: "json").
func (pb *PageBuilder) WithCodec(name string) *PageBuilder {
	pb.codecName = name
	return pb
}

// WithCodecInstance accepts a ready Codec instance.
func (pb *PageBuilder) WithCodecInstance(c Codec) *PageBuilder {
	pb.codecInst = c
	return pb
}

func (pb *PageBuilder) WithLogger(l *xlog.Logger) *PageBuilder {
	pb.logger = l
	return pb
}

func (pb *PageBuilder) WithClock(c xclock.Clock) *PageBuilder {
	pb.clock = c
	return pb
}

// WithReplyTimeout bounds how long a call stays pending without a response.
// Zero disables the bound: such calls stay pending until their experience or
// page closes.
func (pb *PageBuilder) WithReplyTimeout(d time.Duration) *PageBuilder {
	if d >= 0 {
		pb.replyTimeout = d
	}
	return pb
}

func (pb *PageBuilder) WithObserver(obs ...Observer) *PageBuilder {
	for _, o := range obs {
		if o != nil {
			pb.observers = append(pb.observers, o)
		}
	}
	return pb
}

func (pb *PageBuilder) Build() (*Page, error) {
	var newBoundary func() (Boundary, error)
	switch {
	case pb.boundaryFactory != nil:
		newBoundary = pb.boundaryFactory
	case pb.boundaryName != "":
		name, cfg := pb.boundaryName, pb.boundaryCfg
		newBoundary = func() (Boundary, error) { return NewBoundary(name, cfg) }
	default:
		return nil, ErrNoBoundaryConfigured
	}

	cd := pb.codecInst
	if cd == nil {
		var err error
		cd, err = NewCodec(pb.codecName)
		if err != nil {
			return nil, err
		}
	}

	clk := pb.clock
	if clk == nil {
		clk = xclock.Default()
	}
	lg := pb.logger
	if lg == nil {
		lg = xlog.Default()
	}
	contextID := pb.contextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	p := &Page{
		contextID:   contextID,
		hostOrigin:  pb.hostOrigin,
		codec:       cd,
		logger:      lg,
		registry:    NewExperienceRegistry(),
		manager:     NewEventManager(cd, clk, lg, pb.replyTimeout),
		newBoundary: newBoundary,
	}

	// Logging observer goes first unless the caller supplied their own.
	hasLoggingObserver := false
	for _, o := range pb.observers {
		if _, ok := o.(LoggingObserver); ok {
			hasLoggingObserver = true
			break
		}
	}
	if !hasLoggingObserver && lg != nil {
		p.AddObserver(LoggingObserver{Logger: lg})
	}
	for _, o := range pb.observers {
		p.AddObserver(o)
	}

	return p, nil
}

// New constructs a Page via Builder and returns a close func for convenience.
func New(init func(pb *PageBuilder)) (*Page, func() error, error) {
	pb := NewPageBuilder()
	if init != nil {
		init(pb)
	}
	page, err := pb.Build()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() error { return page.Close(context.Background()) }
	return page, closeFn, nil
}
