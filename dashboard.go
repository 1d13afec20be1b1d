package xembed

import (
	"context"
)

// DashboardOptions configures one embedded dashboard.
type DashboardOptions struct {
	// URL is the content URL matching the dashboard path grammar.
	URL string
	// ContentOptions are serialized into the frame URL per the dashboard
	// option table.
	ContentOptions ContentOptions
	// Frame configures the frame controller.
	Frame FrameOptions
	// OnChange receives lifecycle change events synchronously.
	OnChange ChangeHandler
	// OnMessage receives unsolicited notifications not consumed by
	// frame-local interceptors.
	OnMessage NotificationHandler
}

// VisualOptions configures one embedded single visual.
type VisualOptions struct {
	URL            string
	ContentOptions ContentOptions
	Frame          FrameOptions
	OnChange       ChangeHandler
	OnMessage      NotificationHandler
}

// Sheet describes one sheet of an embedded dashboard.
type Sheet struct {
	SheetID string `json:"sheetId"`
	Name    string `json:"name"`
}

// Wire payload shapes shared by the facades.
type actionsPayload struct {
	Actions []Action `json:"actions"`
}

type sheetsPayload struct {
	Sheets []Sheet `json:"sheets"`
}

type selectSheetPayload struct {
	SheetID string `json:"sheetId"`
}

type navigatePayload struct {
	DashboardID string `json:"dashboardId"`
}

// DashboardExperience is the typed request surface of an embedded dashboard.
// Every operation builds one request envelope, sends it through the message
// channel and unwraps the correlated response; an absent response payload
// degrades to the type-appropriate empty value, never an error.
type DashboardExperience struct {
	*Experience
}

// GetParameters fetches the current parameter values.
func (d *DashboardExperience) GetParameters(ctx context.Context) ([]Parameter, error) {
	env, err := d.call(ctx, RequestGetParameters, nil)
	if err != nil {
		return nil, err
	}
	if env == nil || len(env.Message) == 0 {
		return []Parameter{}, nil
	}
	values, err := DecodeCodec[map[string][]string](d.codec, env)
	if err != nil {
		return nil, err
	}
	return ParametersFromValues(values), nil
}

// SetParameters pushes parameter values to the dashboard.
func (d *DashboardExperience) SetParameters(ctx context.Context, params []Parameter) error {
	_, err := d.call(ctx, RequestSetParameters, ValuesFromParameters(params))
	return err
}

// GetActions lists the dashboard's custom actions.
func (d *DashboardExperience) GetActions(ctx context.Context) ([]Action, error) {
	env, err := d.call(ctx, RequestGetActions, nil)
	if err != nil {
		return nil, err
	}
	return decodeActions(d.codec, env)
}

// AddActions appends custom actions.
func (d *DashboardExperience) AddActions(ctx context.Context, actions ...Action) error {
	_, err := d.call(ctx, RequestAddActions, actionsPayload{Actions: actions})
	return err
}

// SetActions replaces the custom action set.
func (d *DashboardExperience) SetActions(ctx context.Context, actions ...Action) error {
	_, err := d.call(ctx, RequestSetActions, actionsPayload{Actions: actions})
	return err
}

// RemoveActions removes the given custom actions.
func (d *DashboardExperience) RemoveActions(ctx context.Context, actions ...Action) error {
	_, err := d.call(ctx, RequestRemoveActions, actionsPayload{Actions: actions})
	return err
}

// GetSheets lists the dashboard's sheets.
func (d *DashboardExperience) GetSheets(ctx context.Context) ([]Sheet, error) {
	env, err := d.call(ctx, RequestGetSheets, nil)
	if err != nil {
		return nil, err
	}
	if env == nil || len(env.Message) == 0 {
		return []Sheet{}, nil
	}
	p, err := DecodeCodec[sheetsPayload](d.codec, env)
	if err != nil {
		return nil, err
	}
	if p.Sheets == nil {
		return []Sheet{}, nil
	}
	return p.Sheets, nil
}

// SetSelectedSheet switches the visible sheet.
func (d *DashboardExperience) SetSelectedSheet(ctx context.Context, sheetID string) error {
	_, err := d.call(ctx, RequestSetSelectedSheet, selectSheetPayload{SheetID: sheetID})
	return err
}

// NavigateToDashboard points the frame at another dashboard.
func (d *DashboardExperience) NavigateToDashboard(ctx context.Context, dashboardID string) error {
	_, err := d.call(ctx, RequestNavigate, navigatePayload{DashboardID: dashboardID})
	return err
}

// Undo reverts the last interaction.
func (d *DashboardExperience) Undo(ctx context.Context) error {
	_, err := d.call(ctx, RequestUndo, nil)
	return err
}

// Redo reapplies the last undone interaction.
func (d *DashboardExperience) Redo(ctx context.Context) error {
	_, err := d.call(ctx, RequestRedo, nil)
	return err
}

// Reset restores the dashboard to its initial state.
func (d *DashboardExperience) Reset(ctx context.Context) error {
	_, err := d.call(ctx, RequestReset, nil)
	return err
}

// Print asks the remote content to open its print dialog.
func (d *DashboardExperience) Print(ctx context.Context) error {
	_, err := d.call(ctx, RequestPrint, nil)
	return err
}

func decodeActions(c Codec, env *Envelope) ([]Action, error) {
	if env == nil || len(env.Message) == 0 {
		return []Action{}, nil
	}
	p, err := DecodeCodec[actionsPayload](c, env)
	if err != nil {
		return nil, err
	}
	if p.Actions == nil {
		return []Action{}, nil
	}
	return p.Actions, nil
}
