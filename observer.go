package xembed

import (
	"fmt"

	"github.com/trickstertwo/xlog"
)

// Observer receives page-level change events. Delivery is synchronous at the
// emission point, so implementations must be fast and must not block.
type Observer interface {
	OnChange(e ChangeEvent)
}

// ObserverFunc is an Adapter that lets a plain function satisfy Observer.
type ObserverFunc func(e ChangeEvent)

func (f ObserverFunc) OnChange(e ChangeEvent) { f(e) }

// LoggingObserver is an Adapter that emits change events via xlog.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnChange(e ChangeEvent) {
	if o.Logger == nil {
		return
	}
	ev := o.Logger.With(
		xlog.Str("event", string(e.Name)),
		xlog.Str("level", string(e.Level)),
	)
	if e.Data != nil {
		ev = ev.With(xlog.Str("data", fmt.Sprint(e.Data)))
	}
	switch e.Level {
	case LevelError:
		ev.Error().Msg(e.Message)
	case LevelWarn:
		ev.Warn().Msg(e.Message)
	default:
		ev.Debug().Msg(e.Message)
	}
}
