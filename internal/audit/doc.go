// Package audit delivers authentication and authorization events to sinks
// off the request path.
//
// # Components
//
//   - [Sink]: event consumers (channel, JSON lines, zerolog, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when full.
//   - [Event]: one outcome with id, type, user, request id, IP and metadata.
//
// The package does not decide which events to emit; the engine does.
package audit
