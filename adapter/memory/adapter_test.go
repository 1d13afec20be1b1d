package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xembed"
)

const dashURL = "https://content.example.com/embed/guid-1/dashboards/dash-1"

func TestUse_EndToEndParameterRoundTrip(t *testing.T) {
	store := map[string][]string{}
	respond := func(env *xembed.Envelope) *xembed.Envelope {
		reply := &xembed.Envelope{
			EventName:   env.EventName,
			EventTarget: env.EventTarget,
			RequestID:   env.RequestID,
		}
		switch env.EventName {
		case xembed.RequestSetParameters:
			var values map[string][]string
			require.NoError(t, json.Unmarshal(env.Message, &values))
			for k, v := range values {
				store[k] = v
			}
		case xembed.RequestGetParameters:
			reply.Message, _ = json.Marshal(store)
		}
		return reply
	}

	page := Use(
		Config{AutoLoad: true, Responder: respond},
		WithContextID("ctx-mem"),
		WithHostOrigin("https://host.example.com"),
		WithReplyTimeout(2*time.Second),
	)
	defer page.Close(context.Background())

	ctx := context.Background()
	dash, err := page.Dashboard(ctx, xembed.DashboardOptions{URL: dashURL})
	require.NoError(t, err)

	want := []xembed.Parameter{{Name: "State", Values: []string{"CT", "NY"}}}
	require.NoError(t, dash.SetParameters(ctx, want))

	got, err := dash.GetParameters(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUse_SilentRemoteHitsReplyTimeout(t *testing.T) {
	page := Use(
		Config{AutoLoad: true, Responder: func(*xembed.Envelope) *xembed.Envelope { return nil }},
		WithContextID("ctx-mem"),
		WithHostOrigin("https://host.example.com"),
		WithReplyTimeout(30*time.Millisecond),
	)
	defer page.Close(context.Background())

	ctx := context.Background()
	dash, err := page.Dashboard(ctx, xembed.DashboardOptions{URL: dashURL})
	require.NoError(t, err)

	_, err = dash.GetParameters(ctx)
	assert.ErrorIs(t, err, xembed.ErrReplyTimeout)
	assert.Equal(t, 0, page.Manager().Pending(), "timed-out call must not linger")
}

func TestBoundary_RecordsTraffic(t *testing.T) {
	b := NewBoundary(Config{AutoLoad: false})
	defer b.Close(context.Background())

	received := make(chan *xembed.Envelope, 4)
	require.NoError(t, b.Open(context.Background(), "https://frame.example.com/embed", func(env *xembed.Envelope) {
		received <- env
	}))
	assert.Equal(t, "https://frame.example.com/embed", b.Src())

	first := &xembed.Envelope{EventName: "one"}
	second := &xembed.Envelope{EventName: "two"}
	require.NoError(t, b.Transmit(context.Background(), first))
	require.NoError(t, b.Transmit(context.Background(), second))
	assert.Equal(t, []*xembed.Envelope{first, second}, b.Sent())

	b.EmitFromRemote(&xembed.Envelope{EventName: "fromRemote"})
	select {
	case env := <-received:
		assert.Equal(t, "fromRemote", env.EventName)
	case <-time.After(time.Second):
		t.Fatal("inbound envelope was never dispatched")
	}

	b.SetHeight("612px")
	assert.Equal(t, "612px", b.Height())
}

func TestBoundary_LoadDelay(t *testing.T) {
	b := NewBoundary(Config{AutoLoad: true, LoadDelay: 20 * time.Millisecond})
	defer b.Close(context.Background())

	loaded := make(chan struct{}, 1)
	require.NoError(t, b.Open(context.Background(), "src", func(env *xembed.Envelope) {
		if env.EventName == xembed.ControlFrameLoaded {
			loaded <- struct{}{}
		}
	}))

	select {
	case <-loaded:
		t.Fatal("load signal arrived before the configured delay")
	case <-time.After(5 * time.Millisecond):
	}
	select {
	case <-loaded:
	case <-time.After(time.Second):
		t.Fatal("delayed load signal never arrived")
	}
}

func TestBoundary_ClosedRejectsTraffic(t *testing.T) {
	b := NewBoundary(Defaults())
	require.NoError(t, b.Open(context.Background(), "src", func(*xembed.Envelope) {}))
	require.NoError(t, b.Close(context.Background()))
	require.NoError(t, b.Close(context.Background()), "close is idempotent")

	assert.Error(t, b.Transmit(context.Background(), &xembed.Envelope{EventName: "x"}))
	assert.Error(t, b.Open(context.Background(), "src", func(*xembed.Envelope) {}))
}

func TestConfigFromMap(t *testing.T) {
	cfg := ConfigFromMap(map[string]any{
		"auto_load":   false,
		"load_delay":  "150ms",
		"buffer_size": 8,
	})
	assert.False(t, cfg.AutoLoad)
	assert.Equal(t, 150*time.Millisecond, cfg.LoadDelay)
	assert.Equal(t, 8, cfg.BufferSize)

	def := ConfigFromMap(nil)
	assert.True(t, def.AutoLoad)
	assert.Equal(t, 64, def.BufferSize)
}
