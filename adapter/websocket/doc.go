// Package websocket provides a websocket boundary adapter for xembed.
//
// Boundary name: "websocket"
//
// The adapter dials the built frame URL (http/https rewritten to ws/wss) and
// exchanges envelopes as JSON text frames; payload bytes travel base64-encoded
// inside the JSON. The remote endpoint is expected to emit the "load" control
// envelope once its content is ready.
//
// Minimal config keys:
//   - handshake_timeout: dial handshake bound (default "10s")
//   - write_timeout: per-transmit bound (default "10s")
//   - read_limit: max inbound frame bytes (default 1 MiB)
//
// Example builder usage:
//
//	page, _ := xembed.NewPageBuilder().
//	    WithBoundary(websocket.BoundaryName, map[string]any{
//	        "handshake_timeout": "5s",
//	        "write_timeout":     "5s",
//	    }).
//	    Build()
package websocket
