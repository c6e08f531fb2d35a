// Package session provides the Redis-backed token store that binds opaque
// session tokens to user ids.
//
// # Storage layout
//
// Each token is stored under the hex SHA-256 digest of its value, so a Redis
// dump never reveals a usable token. The value is a fixed 25-byte record
// (version, user id, created-at, expires-at). A per-user set indexes the
// digests so every session of one user can be revoked at once.
//
// # Architecture boundaries
//
// This package owns the [Store] and the [Record] encoding. It does NOT parse
// bearers, look up users, or evaluate permissions.
//
// # What this package must NOT do
//
//   - Import guardian, jwt, or permission.
//   - Write plaintext tokens to Redis.
//   - Invalidate earlier tokens when a new one is created.
package session
