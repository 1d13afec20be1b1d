package xembed

// ChangeEventLevel is the severity of a host-facing change event.
type ChangeEventLevel string

const (
	LevelInfo  ChangeEventLevel = "INFO"
	LevelWarn  ChangeEventLevel = "WARN"
	LevelError ChangeEventLevel = "ERROR"
)

// ChangeEventName enumerates the lifecycle/diagnostic points reported to the
// host, distinct from the wire protocol between host and frame.
type ChangeEventName string

const (
	FrameStarted                ChangeEventName = "FRAME_STARTED"
	FrameMounted                ChangeEventName = "FRAME_MOUNTED"
	FrameLoaded                 ChangeEventName = "FRAME_LOADED"
	FrameRemoved                ChangeEventName = "FRAME_REMOVED"
	FrameNotCreated             ChangeEventName = "FRAME_NOT_CREATED"
	InvalidURL                  ChangeEventName = "INVALID_URL"
	UnrecognizedContentOptions  ChangeEventName = "UNRECOGNIZED_CONTENT_OPTIONS"
	UnrecognizedFrameMessage    ChangeEventName = "UNRECOGNIZED_FRAME_MESSAGE"
	FrameContentError           ChangeEventName = "FRAME_CONTENT_ERROR"
)

// Level maps a change event name to its severity.
func (n ChangeEventName) Level() ChangeEventLevel {
	switch n {
	case FrameNotCreated, InvalidURL, FrameContentError:
		return LevelError
	case UnrecognizedContentOptions, UnrecognizedFrameMessage:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// ChangeEvent is a host-observable lifecycle record. It is delivered
// synchronously to the experience's OnChange callback and to page observers,
// and is never persisted.
type ChangeEvent struct {
	Name    ChangeEventName
	Level   ChangeEventLevel
	Message string
	// Data carries structured context, e.g. the experience identity or the
	// list of unrecognized option keys.
	Data any
}

func newChangeEvent(name ChangeEventName, message string, data any) ChangeEvent {
	return ChangeEvent{Name: name, Level: name.Level(), Message: message, Data: data}
}
