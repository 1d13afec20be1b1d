package xembed

import (
	"fmt"
	"strings"
)

// ExperienceType enumerates the kinds of embeddable content.
type ExperienceType string

const (
	ExperienceDashboard ExperienceType = "dashboard"
	ExperienceVisual    ExperienceType = "visual"
)

// Identity is the full routing identity of one embedded experience.
// The tuple (type, content ids, context id, discriminator) is unique for
// the lifetime of the page.
type Identity struct {
	ExperienceType ExperienceType `json:"experienceType"`
	DashboardID    string         `json:"dashboardId,omitempty"`
	SheetID        string         `json:"sheetId,omitempty"`
	VisualID       string         `json:"visualId,omitempty"`
	ContextID      string         `json:"contextId"`
	Discriminator  int            `json:"discriminator"`
}

// Key returns the identity minus its discriminator, the unit the
// ExperienceRegistry disambiguates on.
func (id Identity) Key() Key {
	return Key{
		ExperienceType: id.ExperienceType,
		DashboardID:    id.DashboardID,
		SheetID:        id.SheetID,
		VisualID:       id.VisualID,
		ContextID:      id.ContextID,
	}
}

func (id Identity) String() string {
	return fmt.Sprintf("%s#%d", id.Key().Identifier(), id.Discriminator)
}

// Key identifies the signature shared by experiences that embed the same
// content in the same page context.
type Key struct {
	ExperienceType ExperienceType
	DashboardID    string
	SheetID        string
	VisualID       string
	ContextID      string
}

// Identifier derives the deterministic base identifier for the key.
func (k Key) Identifier() string {
	parts := []string{string(k.ExperienceType), k.DashboardID}
	if k.SheetID != "" {
		parts = append(parts, k.SheetID)
	}
	if k.VisualID != "" {
		parts = append(parts, k.VisualID)
	}
	parts = append(parts, k.ContextID)
	return strings.Join(parts, ":")
}

// Identity materializes the key with an assigned discriminator.
func (k Key) Identity(discriminator int) Identity {
	return Identity{
		ExperienceType: k.ExperienceType,
		DashboardID:    k.DashboardID,
		SheetID:        k.SheetID,
		VisualID:       k.VisualID,
		ContextID:      k.ContextID,
		Discriminator:  discriminator,
	}
}

// Parameter is one named parameter with its values, as exchanged with the
// remote content.
type Parameter struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Action describes one custom action attached to a dashboard or visual.
type Action struct {
	CustomActionID string `json:"customActionId"`
	Name           string `json:"name"`
	Trigger        string `json:"trigger,omitempty"`
	Status         string `json:"status,omitempty"`
}

// ContentOptions is the host-supplied option bag for an experience. Keys are
// the public option names; values are matched against the per-type option
// table when the frame URL is built. Unrecognized keys are forwarded verbatim
// and reported through a WARN change event.
type ContentOptions map[string]any

// Public option keys recognized by the per-type option tables.
const (
	OptionLocale               = "locale"
	OptionSingleSheet          = "singleSheet"
	OptionUndoRedoDisabled     = "undoRedoDisabled"
	OptionResetDisabled        = "resetDisabled"
	OptionPrintEnabled         = "printEnabled"
	OptionFooterPaddingEnabled = "footerPaddingEnabled"
	OptionFitToIframeWidth     = "fitToIframeWidth"
	OptionParameters           = "parameters"
)

// FrameOptions controls the frame controller owning one embed boundary.
type FrameOptions struct {
	// Width and Height are advisory initial dimensions, recorded on the frame.
	Width  string
	Height string
	// AutoResize applies SIZE_CHANGED notifications to the boundary height.
	AutoResize bool
	// RejectWhileLoading rejects sends before the frame loads with
	// ErrFrameNotReady instead of queueing them (default: queue).
	RejectWhileLoading bool
}
