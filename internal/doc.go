// Package internal holds helpers private to guardian: opaque session token
// generation and the hashing used for storage and throttle keys.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestration for resolve and attempt
//   - rate: Redis fixed-window counters for credential attempts
//   - cache: namespaced, flushable Redis cache for repositories
//   - repository: user, role, payment and punishment persistence contracts
//   - postgres: pgx-backed repository stores
//   - httpx: RFC 7807 problem responses
//   - validation: shared validator instance
//   - app: HTTP application wiring
//
// # What this package must NOT do
//
//   - Export types that appear in the public guardian API.
//   - Store or log plaintext session tokens.
package internal
