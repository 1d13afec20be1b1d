package xembed

import (
	"context"
)

// VisualExperience is the typed request surface of one embedded visual.
type VisualExperience struct {
	*Experience
}

// GetParameters fetches the current parameter values.
func (v *VisualExperience) GetParameters(ctx context.Context) ([]Parameter, error) {
	env, err := v.call(ctx, RequestGetParameters, nil)
	if err != nil {
		return nil, err
	}
	if env == nil || len(env.Message) == 0 {
		return []Parameter{}, nil
	}
	values, err := DecodeCodec[map[string][]string](v.codec, env)
	if err != nil {
		return nil, err
	}
	return ParametersFromValues(values), nil
}

// SetParameters pushes parameter values to the visual.
func (v *VisualExperience) SetParameters(ctx context.Context, params []Parameter) error {
	_, err := v.call(ctx, RequestSetParameters, ValuesFromParameters(params))
	return err
}

// GetActions lists the visual's custom actions.
func (v *VisualExperience) GetActions(ctx context.Context) ([]Action, error) {
	env, err := v.call(ctx, RequestGetActions, nil)
	if err != nil {
		return nil, err
	}
	return decodeActions(v.codec, env)
}

// AddActions appends custom actions.
func (v *VisualExperience) AddActions(ctx context.Context, actions ...Action) error {
	_, err := v.call(ctx, RequestAddActions, actionsPayload{Actions: actions})
	return err
}

// SetActions replaces the custom action set.
func (v *VisualExperience) SetActions(ctx context.Context, actions ...Action) error {
	_, err := v.call(ctx, RequestSetActions, actionsPayload{Actions: actions})
	return err
}

// RemoveActions removes the given custom actions.
func (v *VisualExperience) RemoveActions(ctx context.Context, actions ...Action) error {
	_, err := v.call(ctx, RequestRemoveActions, actionsPayload{Actions: actions})
	return err
}

// Reset restores the visual to its initial state.
func (v *VisualExperience) Reset(ctx context.Context) error {
	_, err := v.call(ctx, RequestReset, nil)
	return err
}
