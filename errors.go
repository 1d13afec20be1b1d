package xembed

import (
	"errors"
	"fmt"
)

// InvalidURLError reports a content URL that does not match the path grammar
// of the experience type being constructed. It is fatal: no experience is
// registered and no boundary is created.
type InvalidURLError struct {
	ExperienceType ExperienceType
	URL            string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid %s experience URL: %q", e.ExperienceType, e.URL)
}

// ErrUnknownBoundary is returned when a boundary name has no registered factory.
type ErrUnknownBoundary struct{ name string }

func (e ErrUnknownBoundary) Error() string { return fmt.Sprintf("unknown boundary: %s", e.name) }

var (
	// ErrFrameNotReady is returned by a frame controller configured to reject
	// sends before its load signal arrives.
	ErrFrameNotReady = errors.New("xembed: frame not loaded")

	// ErrFrameClosed is returned when transmitting through a torn-down frame.
	ErrFrameClosed = errors.New("xembed: frame closed")

	// ErrPageClosed is returned when constructing experiences on a closed page.
	ErrPageClosed = errors.New("xembed: page closed")

	// ErrExperienceClosed is returned from calls on a disposed experience.
	ErrExperienceClosed = errors.New("xembed: experience closed")

	// ErrReplyTimeout completes a pending call whose reply deadline elapsed.
	ErrReplyTimeout = errors.New("xembed: no response before reply timeout")

	// ErrCallClosed completes pending calls abandoned by channel teardown.
	ErrCallClosed = errors.New("xembed: call abandoned")

	// ErrNotRegistered is returned when sending for an unregistered identity.
	ErrNotRegistered = errors.New("xembed: experience not registered")

	// ErrNoBoundaryConfigured is returned by the page builder when neither a
	// boundary name nor a boundary factory was supplied.
	ErrNoBoundaryConfigured = errors.New("xembed: no boundary configured")
)
