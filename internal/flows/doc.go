// Package flows contains pure-function orchestrators for the engine's
// authentication operations.
//
// Each flow function (RunResolve, RunAttempt, RunIssue, RunRevoke) accepts a
// typed dependency struct and returns results without side effects beyond
// those dependencies. Flows are generic over the host's user type so they
// never import the root package.
//
// # Architecture boundaries
//
// Flow functions coordinate the bearer codec, user lookup, token store,
// password verifier, attempt throttle, audit and metrics. They do NOT own any
// of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import guardian (to avoid import cycles).
//   - Perform I/O directly; all I/O goes through dependency functions.
package flows
