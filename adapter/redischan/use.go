package redischan

import (
	"fmt"
	"time"

	"github.com/trickstertwo/xembed"
	"github.com/trickstertwo/xlog"
)

// Use builds a Page backed by Redis pub/sub boundaries, one channel pair per
// experience.
func Use(cfg Config, opts ...Option) *xembed.Page {
	pb := xembed.NewPageBuilder().
		WithBoundary(BoundaryName, cfg.toMap())

	for _, o := range opts {
		if o != nil {
			o(pb)
		}
	}

	page, err := pb.Build()
	if err != nil {
		panic(fmt.Errorf("redischan.Use: %w", err))
	}
	return page
}

// Option configures the xembed.Page when calling Use.
type Option func(*xembed.PageBuilder)

// WithLogger injects a custom xlog logger.
func WithLogger(l *xlog.Logger) Option {
	return func(pb *xembed.PageBuilder) { pb.WithLogger(l) }
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
