// Package jwt signs and verifies the session bearer: a compact signed token
// whose payload carries the user id and the opaque session token.
//
// # Architecture boundaries
//
// A [Manager] accepts exactly one configured algorithm. It knows nothing about
// users or the token store; checking the opaque token is the engine's job.
//
// # What this package must NOT do
//
//   - Import guardian, session, or permission.
//   - Accept an algorithm chosen by the token header.
//   - Surface library errors that are not wrapped in its own sentinels.
package jwt
