package xembed

import (
	"time"
)

// Envelope is the unit exchanged over the host/frame boundary. The Message
// payload is encoded via Codec; boundaries serialize the rest of the fields
// however their wire demands.
type Envelope struct {
	// EventName tags the operation or notification kind.
	EventName string `json:"eventName"`
	// EventTarget routes the envelope to one registered experience.
	// Control envelopes (load, error) may omit it.
	EventTarget *Identity `json:"eventTarget,omitempty"`
	// RequestID correlates a response with exactly one outstanding request.
	// Empty on notifications.
	RequestID string `json:"requestId,omitempty"`
	// Message is the encoded payload; shape depends on EventName.
	Message []byte `json:"message,omitempty"`
	// SentAt is the production timestamp (from injected clock).
	SentAt time.Time `json:"sentAt,omitempty"`
}

// IsResponse reports whether the envelope claims to answer a request.
func (e *Envelope) IsResponse() bool { return e.RequestID != "" }

// Request event names understood by the remote content.
const (
	RequestGetParameters    = "getParameters"
	RequestSetParameters    = "setParameters"
	RequestGetActions       = "getActions"
	RequestAddActions       = "addActions"
	RequestSetActions       = "setActions"
	RequestRemoveActions    = "removeActions"
	RequestGetSheets        = "getSheets"
	RequestSetSelectedSheet = "setSelectedSheet"
	RequestNavigate         = "navigateToDashboard"
	RequestUndo             = "undo"
	RequestRedo             = "redo"
	RequestReset            = "reset"
	RequestPrint            = "print"
)

// Notification event names emitted by the remote content unsolicited.
const (
	NotificationSizeChanged = "SIZE_CHANGED"
	NotificationModalOpened = "MODAL_OPENED"
	NotificationError       = "ERROR"
)

// Control event names marking frame lifecycle on the wire. They are consumed
// by the frame controller and never reach the message channel.
const (
	ControlFrameLoaded = "load"
	ControlFrameError  = "error"
)
