// Package middleware adapts guardian.Engine to net/http.
//
// # Middleware
//
//   - [Guard] attaches a request-scoped guardian.RequestGuard and never rejects.
//   - [RequireAuth] rejects anonymous requests with 401.
//   - [RequirePermission] rejects with 401 when anonymous and 403 when the
//     capability is missing.
//   - [AdminOnly] rejects non-administrators with 401.
//
// The Require* middleware reuse the guard placed by [Guard] and create one
// on demand when it is missing, so resolution still happens at most once.
//
// # What this package must NOT do
//
//   - Parse bearers or touch Redis; every decision goes through the Engine.
//   - Reject in [Guard]; anonymous requests reach handlers that allow them.
package middleware
