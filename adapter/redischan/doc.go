// Package redischan provides a Redis pub/sub boundary adapter for xembed,
// for frames rendered by an out-of-process service (e.g. a headless render
// farm) rather than an in-page surface.
//
// Boundary name: "redis-channel"
//
// Each frame URL derives a stable channel key; the host publishes envelopes
// on "{prefix}:{key}:in" and consumes "{prefix}:{key}:out". The render
// service computes the same key from the URL it was launched with and emits
// the "load" control envelope once ready.
//
// Minimal config keys:
//   - addr: "host:port" (default "127.0.0.1:6379")
//   - channel_prefix: channel namespace (default "xembed")
//   - username, password, db, tls, tls_server_name: connection settings
//
// Example builder usage:
//
//	page, _ := xembed.NewPageBuilder().
//	    WithBoundary(redischan.BoundaryName, map[string]any{
//	        "addr":           "localhost:6379",
//	        "channel_prefix": "analytics-embed",
//	    }).
//	    Build()
package redischan
