package xembed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	mu   sync.Mutex
	sent []*Envelope
	err  error
}

func (f *fakeTx) Transmit(_ context.Context, env *Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.sent = append(f.sent, env)
	f.mu.Unlock()
	return nil
}

func testIdentity(discriminator int) Identity {
	return Identity{
		ExperienceType: ExperienceDashboard,
		DashboardID:    "dash-1",
		ContextID:      "ctx-1",
		Discriminator:  discriminator,
	}
}

func TestEventManager_CorrelatesByRequestID(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	tx := &fakeTx{}
	id := testIdentity(0)
	m.Register(id, tx, nil)

	ctx := context.Background()
	first, err := m.Send(ctx, id, RequestGetParameters, nil)
	require.NoError(t, err)
	second, err := m.Send(ctx, id, RequestGetParameters, nil)
	require.NoError(t, err)
	require.NotEqual(t, first.RequestID, second.RequestID)

	// Answer out of order: two concurrent same-named requests must never
	// cross-resolve.
	m.DispatchInbound(&Envelope{
		EventName:   RequestGetParameters,
		EventTarget: &id,
		RequestID:   second.RequestID,
		Message:     []byte(`{"second":true}`),
	})
	m.DispatchInbound(&Envelope{
		EventName:   RequestGetParameters,
		EventTarget: &id,
		RequestID:   first.RequestID,
		Message:     []byte(`{"first":true}`),
	})

	env1, err := first.Reply(ctx)
	require.NoError(t, err)
	env2, err := second.Reply(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"first":true}`, string(env1.Message))
	assert.JSONEq(t, `{"second":true}`, string(env2.Message))
	assert.Equal(t, 0, m.Pending())
}

func TestEventManager_FallbackMatchesOldestPending(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	tx := &fakeTx{}
	id := testIdentity(0)
	m.Register(id, tx, nil)

	ctx := context.Background()
	oldest, err := m.Send(ctx, id, RequestGetActions, nil)
	require.NoError(t, err)
	newest, err := m.Send(ctx, id, RequestGetActions, nil)
	require.NoError(t, err)

	// A response with no echoed request id resolves the oldest pending
	// entry for (identity, eventName).
	m.DispatchInbound(&Envelope{
		EventName:   RequestGetActions,
		EventTarget: &id,
		Message:     []byte(`{"n":1}`),
	})

	env, err := oldest.Reply(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(env.Message))

	select {
	case <-newest.Done():
		t.Fatal("newest call must still be pending")
	default:
	}
	assert.Equal(t, 1, m.Pending())
}

func TestEventManager_StaleResponseIgnored(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	id := testIdentity(0)
	m.Register(id, &fakeTx{}, nil)

	// A stale or duplicate response must never crash the host.
	m.DispatchInbound(&Envelope{
		EventName:   RequestGetParameters,
		EventTarget: &id,
		RequestID:   "no-such-request",
	})
	assert.Equal(t, 0, m.Pending())
}

func TestEventManager_NotificationRouting(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	id0 := testIdentity(0)
	id1 := testIdentity(1)

	var mu sync.Mutex
	got := map[int]int{}
	record := func(d int) NotificationHandler {
		return func(_ context.Context, _ *Envelope) error {
			mu.Lock()
			got[d]++
			mu.Unlock()
			return nil
		}
	}
	m.Register(id0, &fakeTx{}, record(0))
	m.Register(id1, &fakeTx{}, record(1))

	// Same key, different discriminators: independently addressable.
	m.DispatchInbound(&Envelope{EventName: NotificationModalOpened, EventTarget: &id0})
	m.DispatchInbound(&Envelope{EventName: NotificationModalOpened, EventTarget: &id0})
	m.DispatchInbound(&Envelope{EventName: NotificationModalOpened, EventTarget: &id1})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, got[0])
	assert.Equal(t, 1, got[1])
}

func TestEventManager_UnregisteredTargetDropped(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	id := testIdentity(0)

	// Never registered: dropped without error.
	m.DispatchInbound(&Envelope{EventName: NotificationSizeChanged, EventTarget: &id})

	// Missing target: dropped without error.
	m.DispatchInbound(&Envelope{EventName: NotificationSizeChanged})
}

func TestEventManager_SendToUnregistered(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	_, err := m.Send(context.Background(), testIdentity(0), RequestUndo, nil)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestEventManager_TransmitFailureRemovesPending(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	id := testIdentity(0)
	m.Register(id, &fakeTx{err: errors.New("boom")}, nil)

	_, err := m.Send(context.Background(), id, RequestUndo, nil)
	require.Error(t, err)
	assert.Equal(t, 0, m.Pending())
}

func TestEventManager_ReplyTimeout(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 20*time.Millisecond)
	id := testIdentity(0)
	m.Register(id, &fakeTx{}, nil)

	call, err := m.Send(context.Background(), id, RequestGetSheets, nil)
	require.NoError(t, err)

	_, err = call.Reply(context.Background())
	assert.ErrorIs(t, err, ErrReplyTimeout)
	assert.Equal(t, 0, m.Pending(), "expired entries must leave the table")
}

func TestEventManager_UnregisterAbandonsCalls(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	id := testIdentity(0)
	reg := m.Register(id, &fakeTx{}, nil)

	call, err := m.Send(context.Background(), id, RequestGetParameters, nil)
	require.NoError(t, err)

	require.NoError(t, reg.Close())
	_, err = call.Reply(context.Background())
	assert.ErrorIs(t, err, ErrCallClosed)

	// After unregistration no envelope is routed.
	m.DispatchInbound(&Envelope{EventName: NotificationSizeChanged, EventTarget: &id})
	assert.Equal(t, 0, m.Pending())
}

func TestEventManager_CloseAbandonsEverything(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	id := testIdentity(0)
	m.Register(id, &fakeTx{}, nil)

	call, err := m.Send(context.Background(), id, RequestGetParameters, nil)
	require.NoError(t, err)

	m.Close()
	_, err = call.Reply(context.Background())
	assert.ErrorIs(t, err, ErrCallClosed)

	_, err = m.Send(context.Background(), id, RequestUndo, nil)
	assert.ErrorIs(t, err, ErrPageClosed)
}

func TestEventManager_InterceptorRunsBeforeListener(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	id := testIdentity(0)

	var order []string
	var mu sync.Mutex
	ic := func(next NotificationHandler) NotificationHandler {
		return func(ctx context.Context, env *Envelope) error {
			mu.Lock()
			order = append(order, "interceptor")
			mu.Unlock()
			return next(ctx, env)
		}
	}
	listener := func(_ context.Context, _ *Envelope) error {
		mu.Lock()
		order = append(order, "listener")
		mu.Unlock()
		return nil
	}
	m.Register(id, &fakeTx{}, listener, ic)

	m.DispatchInbound(&Envelope{EventName: NotificationSizeChanged, EventTarget: &id})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"interceptor", "listener"}, order)
}

func TestEventManager_PanickingListenerRecovered(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	id := testIdentity(0)
	m.Register(id, &fakeTx{}, func(_ context.Context, _ *Envelope) error {
		panic("listener bug")
	})

	assert.NotPanics(t, func() {
		m.DispatchInbound(&Envelope{EventName: NotificationSizeChanged, EventTarget: &id})
	})
}

func TestEventManager_PanickingInterceptorRecovered(t *testing.T) {
	m := NewEventManager(nil, nil, nil, 0)
	id := testIdentity(0)
	ic := func(NotificationHandler) NotificationHandler {
		return func(_ context.Context, _ *Envelope) error {
			panic("interceptor bug")
		}
	}
	var listenerRan bool
	m.Register(id, &fakeTx{}, func(_ context.Context, _ *Envelope) error {
		listenerRan = true
		return nil
	}, ic)

	assert.NotPanics(t, func() {
		m.DispatchInbound(&Envelope{EventName: NotificationSizeChanged, EventTarget: &id})
	})
	assert.False(t, listenerRan, "the panic aborts the chain before the listener")
}
