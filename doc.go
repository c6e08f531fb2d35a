// Package guardian resolves HTTP requests into principals by verifying a
// signed bearer that carries a user id and an opaque session token, then
// gates capabilities with a role-aggregated permission bitmask.
//
// [Engine] methods are safe to call from multiple goroutines after
// [Builder.Build]. A [RequestGuard] belongs to one request.
//
// # Architecture boundaries
//
// guardian is the public surface: [Engine], [Builder], [Config], [User],
// [Role], [Principal] and the collaborator interfaces [UserLookup] and
// [TokenStore]. Flow orchestration, attempt throttling and audit dispatch
// live under internal/. Bearer signing lives in jwt, the Redis token store
// in session, hashing in password and the bitmask in permission.
//
// # What this package must NOT do
//
//   - Return an error from [Engine.Resolve]; failures become [Anonymous].
//   - Store effective permissions; they are recomputed from roles.
//   - Let the bearer header choose its own algorithm.
//
// # Performance contract
//
// Resolve costs one signature check, one user lookup and one Redis GET (plus
// one EXPIRE with sliding sessions). Attempt adds a password hash comparison
// and one MULTI/EXEC.
package guardian
