package memory

import (
	"fmt"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xembed"
	"github.com/trickstertwo/xlog"
)

// Use builds a Page backed by in-memory boundaries, one fresh boundary per
// experience. Mirrors the adapter Use pattern: explicit construction, no
// environment probing.
//
// Example:
//
//	page := memory.Use(memory.Config{
//	    AutoLoad:  true,
//	    Responder: respond,
//	},
//	    memory.WithLogger(logger),
//	)
func Use(cfg Config, opts ...Option) *xembed.Page {
	pb := xembed.NewPageBuilder().
		WithBoundaryFactory(func() (xembed.Boundary, error) {
			return NewBoundary(cfg), nil
		})

	for _, o := range opts {
		if o != nil {
			o(pb)
		}
	}

	page, err := pb.Build()
	if err != nil {
		panic(fmt.Errorf("memory.Use: %w", err))
	}
	return page
}

// Option configures the xembed.Page when calling Use.
type Option func(*xembed.PageBuilder)

// WithLogger injects a custom xlog logger.
func WithLogger(l *xlog.Logger) Option {
	return func(pb *xembed.PageBuilder) { pb.WithLogger(l) }
}

// WithClock injects a custom xclock clock.
func WithClock(c xclock.Clock) Option {
	return func(pb *xembed.PageBuilder) { pb.WithClock(c) }
}

// WithCodec selects a codec by name (default: "json").
func WithCodec(name string) Option {
	return func(pb *xembed.PageBuilder) { pb.WithCodec(name) }
}

// WithContextID fixes the page context identity.
func WithContextID(id string) Option {
	return func(pb *xembed.PageBuilder) { pb.WithContextID(id) }
}

// WithHostOrigin sets the host origin marker for frame URLs.
func WithHostOrigin(origin string) Option {
	return func(pb *xembed.PageBuilder) { pb.WithHostOrigin(origin) }
}

// WithReplyTimeout bounds pending calls (default: 30s, 0 disables).
func WithReplyTimeout(d time.Duration) Option {
	return func(pb *xembed.PageBuilder) { pb.WithReplyTimeout(d) }
}

// WithObserver attaches observers for change events.
func WithObserver(obs ...xembed.Observer) Option {
	return func(pb *xembed.PageBuilder) { pb.WithObserver(obs...) }
}
