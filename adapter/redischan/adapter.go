package redischan

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trickstertwo/xembed"
)

const BoundaryName = "redis-channel"

func init() {
	if err := xembed.RegisterBoundary(BoundaryName, func(cfg map[string]any) (xembed.Boundary, error) {
		return NewBoundary(ConfigFromMap(cfg))
	}); err != nil {
		panic(fmt.Errorf("xembed/redischan: failed to register boundary: %w", err))
	}
}

// boundary carries envelopes over a Redis pub/sub channel pair to a remote
// render process. Each frame URL derives a stable channel key, so the render
// service launched with the same URL computes the same pair:
//
//	{prefix}:{key}:in   host -> frame
//	{prefix}:{key}:out  frame -> host
type boundary struct {
	cfg    Config
	client *redis.Client

	mu     sync.Mutex
	inCh   string
	pubsub *redis.PubSub
	cancel context.CancelFunc

	closeOnce sync.Once
	closed    atomic.Bool
}

var _ xembed.Boundary = (*boundary)(nil)

// NewBoundary connects to Redis and returns a boundary ready to Open.
func NewBoundary(cfg Config) (xembed.Boundary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := &redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion:    tls.VersionTLS12,
			ServerName:    cfg.TLSServerName,
			Renegotiation: tls.RenegotiateNever,
		}
	}

	client := redis.NewClient(opts)
	if err := ping(client); err != nil {
		return nil, err
	}
	return &boundary{cfg: cfg, client: client}, nil
}

func ping(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redischan: ping failed: %w", err)
	}
	return nil
}

func (b *boundary) Open(ctx context.Context, src string, handler func(*xembed.Envelope)) error {
	if b.closed.Load() {
		return errors.New("redischan boundary is closed")
	}

	key := channelKey(src)
	inCh := fmt.Sprintf("%s:%s:in", b.cfg.ChannelPrefix, key)
	outCh := fmt.Sprintf("%s:%s:out", b.cfg.ChannelPrefix, key)

	loopCtx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(loopCtx, outCh)
	// Force the subscription before envelopes can race past us.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return fmt.Errorf("redischan: subscribe %s: %w", outCh, err)
	}

	b.mu.Lock()
	b.inCh = inCh
	b.pubsub = pubsub
	b.cancel = cancel
	b.mu.Unlock()

	go b.readLoop(pubsub, handler)
	return nil
}

func (b *boundary) readLoop(pubsub *redis.PubSub, handler func(*xembed.Envelope)) {
	ch := pubsub.Channel()
	for msg := range ch {
		if b.closed.Load() {
			return
		}
		var env xembed.Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			continue // malformed frame message; drop
		}
		handler(&env)
	}
}

func (b *boundary) Transmit(ctx context.Context, env *xembed.Envelope) error {
	if b.closed.Load() {
		return errors.New("redischan boundary is closed")
	}
	b.mu.Lock()
	inCh := b.inCh
	b.mu.Unlock()
	if inCh == "" {
		return errors.New("redischan boundary not open")
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, inCh, data).Err()
}

func (b *boundary) Close(_ context.Context) error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.mu.Lock()
		pubsub, cancel := b.pubsub, b.cancel
		b.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if pubsub != nil {
			if err := pubsub.Close(); err != nil {
				closeErr = err
			}
		}
		if err := b.client.Close(); err != nil {
			closeErr = err
		}
	})
	return closeErr
}

// channelKey derives the stable per-frame key from the frame URL.
func channelKey(src string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(src))
	return fmt.Sprintf("%016x", h.Sum64())
}
