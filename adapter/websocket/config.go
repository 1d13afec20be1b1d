package websocket

import (
	"fmt"
	"time"
)

// Config for the websocket boundary.
type Config struct {
	// HandshakeTimeout bounds the dial handshake.
	HandshakeTimeout time.Duration
	// WriteTimeout bounds each Transmit.
	WriteTimeout time.Duration
	// ReadLimit caps inbound frame size in bytes.
	ReadLimit int64
}

// Defaults returns a Config with production-safe defaults.
func Defaults() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadLimit:        1 << 20, // 1 MiB
	}
}

// Validate checks Config for production readiness.
func (c Config) Validate() error {
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("config: handshake_timeout must be > 0, got %v", c.HandshakeTimeout)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("config: write_timeout must be > 0, got %v", c.WriteTimeout)
	}
	if c.ReadLimit < 1 {
		return fmt.Errorf("config: read_limit must be >= 1, got %d", c.ReadLimit)
	}
	return nil
}

// toMap converts Config to the generic map expected by the boundary factory.
func (c Config) toMap() map[string]any {
	return map[string]any{
		"handshake_timeout": c.HandshakeTimeout,
		"write_timeout":     c.WriteTimeout,
		"read_limit":        c.ReadLimit,
	}
}

// ConfigFromMap safely converts a generic map to Config with defaults.
func ConfigFromMap(m map[string]any) Config {
	c := Defaults()

	getDur := func(k string, d time.Duration) time.Duration {
		switch v := m[k].(type) {
		case time.Duration:
			return v
		case string:
			if p, err := time.ParseDuration(v); err == nil {
				return p
			}
		}
		return d
	}

	c.HandshakeTimeout = getDur("handshake_timeout", c.HandshakeTimeout)
	c.WriteTimeout = getDur("write_timeout", c.WriteTimeout)
	switch v := m["read_limit"].(type) {
	case int:
		if v > 0 {
			c.ReadLimit = int64(v)
		}
	case int64:
		if v > 0 {
			c.ReadLimit = v
		}
	}
	return c
}
