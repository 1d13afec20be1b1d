package xembed

import (
	"context"
)

// EmbeddedExperience is the call surface shared by both typed facades.
type EmbeddedExperience interface {
	Identity() Identity
	Identifier() string
	Frame() *FrameController
	Send(ctx context.Context, eventName string, payload any) (*Call, error)
	Close(ctx context.Context) error

	GetParameters(ctx context.Context) ([]Parameter, error)
	SetParameters(ctx context.Context, params []Parameter) error
	GetActions(ctx context.Context) ([]Action, error)
	AddActions(ctx context.Context, actions ...Action) error
	SetActions(ctx context.Context, actions ...Action) error
	RemoveActions(ctx context.Context, actions ...Action) error
	Reset(ctx context.Context) error
}

var (
	_ EmbeddedExperience = (*DashboardExperience)(nil)
	_ EmbeddedExperience = (*VisualExperience)(nil)
	_ transmitter        = (*FrameController)(nil)
)
