// Package permission provides the capability bitmask, the name registry, and
// the role aggregation fold used by guardian authorization checks.
//
// # Bit layout
//
// Each capability owns one bit of a 64-bit [Mask]; the top bit is kept clear
// so stored masks fit a signed column. A role carries one mask. The effective
// permissions of a user are the bitwise OR of its role masks ([Effective]),
// never a priority or override order.
//
// # Architecture boundaries
//
// This package is pure in-memory data with no I/O.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import guardian, jwt, or session.
//   - Cache an aggregated mask on behalf of a user.
package permission
