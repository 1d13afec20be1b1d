package xembed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// transmitter is the outbound half a registration sends through; the frame
// controller implements it.
type transmitter interface {
	Transmit(ctx context.Context, env *Envelope) error
}

// Call is the pending result handle for one outbound request. Send returns
// immediately; the call completes later when a matching response arrives,
// when the reply timeout elapses, or when the owning registration closes.
type Call struct {
	EventName string
	RequestID string

	done  chan struct{}
	once  sync.Once
	timer *time.Timer

	reply *Envelope
	err   error
}

func newCall(eventName, requestID string) *Call {
	return &Call{EventName: eventName, RequestID: requestID, done: make(chan struct{})}
}

func (c *Call) complete(env *Envelope, err error) {
	c.once.Do(func() {
		if c.timer != nil {
			c.timer.Stop()
		}
		c.reply = env
		c.err = err
		close(c.done)
	})
}

// Done is closed once the call has a result.
func (c *Call) Done() <-chan struct{} { return c.done }

// Reply blocks until the call completes or ctx is done.
func (c *Call) Reply(ctx context.Context) (*Envelope, error) {
	select {
	case <-c.done:
		return c.reply, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fifoKey orders pending requests for responses that do not echo a request id.
type fifoKey struct {
	identity  Identity
	eventName string
}

// EventManager is the shared protocol engine all experiences register with.
// It routes inbound envelopes by experience identity, correlates responses
// with outstanding requests, and dispatches unsolicited notifications through
// each registration's interceptor chain.
type EventManager struct {
	codec        Codec
	clock        xclock.Clock
	logger       *xlog.Logger
	replyTimeout time.Duration
	baseCtx      context.Context

	mu            sync.Mutex
	registrations map[Identity]*Registration
	pending       map[string]*Call
	fifo          map[fifoKey][]string
	closed        bool
}

// NewEventManager constructs a manager. replyTimeout bounds how long a call
// stays pending without a response; zero means pending forever.
func NewEventManager(codec Codec, clock xclock.Clock, logger *xlog.Logger, replyTimeout time.Duration) *EventManager {
	if codec == nil {
		codec = JSONCodec{}
	}
	if clock == nil {
		clock = xclock.Default()
	}
	if logger == nil {
		logger = xlog.Default()
	}
	return &EventManager{
		codec:         codec,
		clock:         clock,
		logger:        logger,
		replyTimeout:  replyTimeout,
		baseCtx:       InjectAll(context.Background(), codec, logger, clock),
		registrations: make(map[Identity]*Registration),
		pending:       make(map[string]*Call),
		fifo:          make(map[fifoKey][]string),
	}
}

// Registration is the handle returned by Register; Close routes no further
// envelopes to the experience and abandons its outstanding calls.
type Registration struct {
	identity Identity
	tx       transmitter
	handler  NotificationHandler
	mgr      *EventManager
	once     sync.Once
}

// Identity returns the registered experience identity.
func (r *Registration) Identity() Identity { return r.identity }

// Close unregisters the experience from the manager.
func (r *Registration) Close() error {
	r.once.Do(func() { r.mgr.unregister(r.identity) })
	return nil
}

// Register adds an experience identity to the routing directory. onMessage
// (may be nil) receives notifications after the interceptor chain; recovery
// wraps the whole chain so a panicking interceptor or handler cannot crash
// the host.
func (m *EventManager) Register(identity Identity, tx transmitter, onMessage NotificationHandler, ics ...Interceptor) *Registration {
	if onMessage == nil {
		onMessage = func(context.Context, *Envelope) error { return nil }
	}
	reg := &Registration{
		identity: identity,
		tx:       tx,
		handler:  RecoveryInterceptor()(Chain(onMessage, ics...)),
		mgr:      m,
	}

	m.mu.Lock()
	m.registrations[identity] = reg
	m.mu.Unlock()
	return reg
}

func (m *EventManager) unregister(identity Identity) {
	m.mu.Lock()
	delete(m.registrations, identity)
	abandoned := m.detachPendingLocked(func(k fifoKey) bool { return k.identity == identity })
	m.mu.Unlock()

	for _, c := range abandoned {
		c.complete(nil, ErrCallClosed)
	}
}

// detachPendingLocked removes pending calls whose fifo key matches and
// returns them for completion outside the lock.
func (m *EventManager) detachPendingLocked(match func(fifoKey) bool) []*Call {
	var out []*Call
	for k, ids := range m.fifo {
		if !match(k) {
			continue
		}
		for _, id := range ids {
			if c, ok := m.pending[id]; ok {
				out = append(out, c)
				delete(m.pending, id)
			}
		}
		delete(m.fifo, k)
	}
	return out
}

// Send stamps an outbound request with the experience identity and a fresh
// correlation token, records it in the pending table, and hands it to the
// experience's frame controller. The returned call completes on the matching
// response.
func (m *EventManager) Send(ctx context.Context, identity Identity, eventName string, payload any) (*Call, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrPageClosed
	}
	reg, ok := m.registrations[identity]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotRegistered
	}

	var data []byte
	if payload != nil {
		var err error
		data, err = m.codec.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}

	env := &Envelope{
		EventName:   eventName,
		EventTarget: &identity,
		RequestID:   uuid.NewString(),
		Message:     data,
		SentAt:      m.clock.Now(),
	}
	call := newCall(eventName, env.RequestID)
	key := fifoKey{identity: identity, eventName: eventName}

	m.mu.Lock()
	m.pending[env.RequestID] = call
	m.fifo[key] = append(m.fifo[key], env.RequestID)
	m.mu.Unlock()

	// Arm the timeout before transmitting: a response can only race us once
	// the envelope is on the wire.
	if m.replyTimeout > 0 {
		call.timer = time.AfterFunc(m.replyTimeout, func() {
			m.remove(env.RequestID, key)
			call.complete(nil, ErrReplyTimeout)
		})
	}

	if err := reg.tx.Transmit(ctx, env); err != nil {
		if call.timer != nil {
			call.timer.Stop()
		}
		m.remove(env.RequestID, key)
		return nil, err
	}
	return call, nil
}

// remove drops one pending entry and its fifo slot.
func (m *EventManager) remove(requestID string, key fifoKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, requestID)
	ids := m.fifo[key]
	for i, id := range ids {
		if id == requestID {
			m.fifo[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(m.fifo[key]) == 0 {
		delete(m.fifo, key)
	}
}

// DispatchInbound routes one envelope delivered by a frame controller.
// A response matches its pending call by request id; responses that echo no
// id fall back to the oldest pending (identity, event name) entry. Stale or
// duplicate responses and notifications for unregistered identities are
// logged and dropped, never surfaced as errors.
func (m *EventManager) DispatchInbound(env *Envelope) {
	if env == nil || env.EventName == "" {
		m.logger.Warn().Msg("xembed: dropped malformed envelope")
		return
	}
	if env.EventTarget == nil {
		m.logger.With(xlog.Str("event_name", env.EventName)).
			Warn().Msg("xembed: dropped envelope without event target")
		return
	}

	identity := *env.EventTarget
	m.mu.Lock()
	reg, registered := m.registrations[identity]
	if !registered {
		m.mu.Unlock()
		m.logger.With(
			xlog.Str("event_name", env.EventName),
			xlog.Str("target", identity.String()),
		).Warn().Msg("xembed: envelope for unregistered experience")
		return
	}

	if env.IsResponse() {
		call, ok := m.pending[env.RequestID]
		if ok {
			delete(m.pending, env.RequestID)
			m.dropFIFOLocked(fifoKey{identity: identity, eventName: env.EventName}, env.RequestID)
		}
		m.mu.Unlock()
		if !ok {
			m.logger.With(
				xlog.Str("event_name", env.EventName),
				xlog.Str("request_id", env.RequestID),
			).Warn().Msg("xembed: stale or duplicate response")
			return
		}
		call.complete(env, nil)
		return
	}

	// No request id: correlate against the oldest same-named request, if any.
	key := fifoKey{identity: identity, eventName: env.EventName}
	if ids := m.fifo[key]; len(ids) > 0 {
		requestID := ids[0]
		m.fifo[key] = ids[1:]
		if len(m.fifo[key]) == 0 {
			delete(m.fifo, key)
		}
		call := m.pending[requestID]
		delete(m.pending, requestID)
		m.mu.Unlock()
		if call != nil {
			call.complete(env, nil)
		}
		return
	}
	m.mu.Unlock()

	// Unsolicited notification: interception chain first, host listener last.
	if err := reg.handler(m.baseCtx, env); err != nil {
		m.logger.With(
			xlog.Str("event_name", env.EventName),
			xlog.Str("target", identity.String()),
		).Warn().Err(err).Msg("xembed: notification handler failed")
	}
}

func (m *EventManager) dropFIFOLocked(key fifoKey, requestID string) {
	ids := m.fifo[key]
	for i, id := range ids {
		if id == requestID {
			m.fifo[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(m.fifo[key]) == 0 {
		delete(m.fifo, key)
	}
}

// Pending reports the number of outstanding calls, for tests and diagnostics.
func (m *EventManager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close abandons all outstanding calls and clears the routing directory.
func (m *EventManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.registrations = make(map[Identity]*Registration)
	abandoned := m.detachPendingLocked(func(fifoKey) bool { return true })
	m.mu.Unlock()

	for _, c := range abandoned {
		c.complete(nil, ErrCallClosed)
	}
}
