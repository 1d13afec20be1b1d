package xembed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRemote answers facade requests the way the embedded content would.
func scriptedRemote(t *testing.T) func(*Envelope) *Envelope {
	t.Helper()
	codec := JSONCodec{}
	store := map[string][]string{}
	actions := []Action{}

	return func(env *Envelope) *Envelope {
		reply := &Envelope{
			EventName:   env.EventName,
			EventTarget: env.EventTarget,
			RequestID:   env.RequestID,
		}
		switch env.EventName {
		case RequestGetParameters:
			reply.Message, _ = codec.Marshal(store)
		case RequestSetParameters:
			var values map[string][]string
			require.NoError(t, codec.Unmarshal(env.Message, &values))
			for k, v := range values {
				store[k] = v
			}
		case RequestGetActions:
			if len(actions) == 0 {
				return reply // no payload at all
			}
			reply.Message, _ = codec.Marshal(actionsPayload{Actions: actions})
		case RequestAddActions:
			var p actionsPayload
			require.NoError(t, codec.Unmarshal(env.Message, &p))
			actions = append(actions, p.Actions...)
		case RequestRemoveActions:
			actions = nil
		case RequestGetSheets:
			reply.Message, _ = codec.Marshal(sheetsPayload{Sheets: []Sheet{
				{SheetID: "sheet-1", Name: "Overview"},
			}})
		}
		return reply
	}
}

func newScriptedDashboard(t *testing.T) (*DashboardExperience, *boundaryFarm) {
	t.Helper()
	farm := &boundaryFarm{autoLoad: true, respond: scriptedRemote(t)}
	page, _ := newTestPage(farm)
	t.Cleanup(func() { _ = page.Close(context.Background()) })

	dash, err := page.Dashboard(context.Background(), DashboardOptions{URL: dashURL})
	require.NoError(t, err)
	return dash, farm
}

func TestDashboard_ParametersRoundTrip(t *testing.T) {
	dash, _ := newScriptedDashboard(t)
	ctx := context.Background()

	in := []Parameter{
		{Name: "State", Values: []string{"CT"}},
		{Name: "City", Values: []string{"Hartford", "Stamford"}},
	}
	require.NoError(t, dash.SetParameters(ctx, in))

	out, err := dash.GetParameters(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, in, out)
}

func TestDashboard_GetParameters_EmptyStore(t *testing.T) {
	dash, _ := newScriptedDashboard(t)

	params, err := dash.GetParameters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestDashboard_GetActions_NoPayloadIsEmptyCollection(t *testing.T) {
	dash, farm := newScriptedDashboard(t)

	actions, err := dash.GetActions(context.Background())
	require.NoError(t, err, "absent payload degrades to empty, never an error")
	assert.Equal(t, []Action{}, actions)

	sent := farm.boundary(0).Sent()
	require.Len(t, sent, 1, "exactly one outbound envelope per request")
	assert.Equal(t, RequestGetActions, sent[0].EventName)
	assert.NotEmpty(t, sent[0].RequestID)
}

func TestDashboard_ActionLifecycle(t *testing.T) {
	dash, _ := newScriptedDashboard(t)
	ctx := context.Background()

	add := Action{CustomActionID: "a-1", Name: "Drill down", Trigger: "DATA_POINT_CLICK"}
	require.NoError(t, dash.AddActions(ctx, add))

	actions, err := dash.GetActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, add, actions[0])

	require.NoError(t, dash.RemoveActions(ctx, add))
	actions, err = dash.GetActions(ctx)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestDashboard_GetSheets(t *testing.T) {
	dash, _ := newScriptedDashboard(t)

	sheets, err := dash.GetSheets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Sheet{{SheetID: "sheet-1", Name: "Overview"}}, sheets)
}

func TestDashboard_ControlRequests(t *testing.T) {
	dash, farm := newScriptedDashboard(t)
	ctx := context.Background()

	require.NoError(t, dash.Undo(ctx))
	require.NoError(t, dash.Redo(ctx))
	require.NoError(t, dash.Reset(ctx))
	require.NoError(t, dash.Print(ctx))
	require.NoError(t, dash.SetSelectedSheet(ctx, "sheet-2"))
	require.NoError(t, dash.NavigateToDashboard(ctx, "dash-2"))

	names := []string{}
	for _, env := range farm.boundary(0).Sent() {
		names = append(names, env.EventName)
	}
	assert.Equal(t, []string{
		RequestUndo, RequestRedo, RequestReset, RequestPrint,
		RequestSetSelectedSheet, RequestNavigate,
	}, names)
}

func TestDashboard_CallsFailAfterClose(t *testing.T) {
	dash, _ := newScriptedDashboard(t)
	ctx := context.Background()

	require.NoError(t, dash.Close(ctx))
	_, err := dash.GetParameters(ctx)
	assert.ErrorIs(t, err, ErrExperienceClosed)
}

func TestVisual_Facade(t *testing.T) {
	farm := &boundaryFarm{autoLoad: true, respond: scriptedRemote(t)}
	page, _ := newTestPage(farm)
	defer page.Close(context.Background())

	vis, err := page.Visual(context.Background(), VisualOptions{URL: visualURL})
	require.NoError(t, err)
	assert.Equal(t, ExperienceVisual, vis.Identity().ExperienceType)
	assert.Equal(t, "sheet-1", vis.Identity().SheetID)
	assert.Equal(t, "vis-1", vis.Identity().VisualID)

	params, err := vis.GetParameters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, params, "fresh remote has no parameters")

	require.NoError(t, vis.SetParameters(context.Background(), []Parameter{
		{Name: "Region", Values: []string{"EMEA"}},
	}))
	out, err := vis.GetParameters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Parameter{{Name: "Region", Values: []string{"EMEA"}}}, out)
}
