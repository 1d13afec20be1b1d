package xembed

import (
	"context"
	"fmt"
)

// NotificationHandler consumes one unsolicited inbound envelope.
type NotificationHandler func(ctx context.Context, env *Envelope) error

// Interceptor composes processing concerns around a NotificationHandler.
// Frame-local features (auto-resize being the canonical one) are installed
// as interceptors at construction so the dispatch logic stays in one place.
type Interceptor func(next NotificationHandler) NotificationHandler

// RecoveryInterceptor prevents panics in notification handlers from crashing
// the host and converts them into errors.
func RecoveryInterceptor() Interceptor {
	return func(next NotificationHandler) NotificationHandler {
		return func(ctx context.Context, env *Envelope) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()
			return next(ctx, env)
		}
	}
}

// Chain composes interceptors around a handler in order.
func Chain(h NotificationHandler, ics ...Interceptor) NotificationHandler {
	if len(ics) == 0 {
		return h
	}
	wrapped := h
	// Apply in reverse so that first interceptor wraps last.
	for i := len(ics) - 1; i >= 0; i-- {
		if ics[i] == nil {
			continue
		}
		wrapped = ics[i](wrapped)
	}
	return wrapped
}
