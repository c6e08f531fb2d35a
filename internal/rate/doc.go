// Package rate provides the Redis-backed fixed-window counters that throttle
// credential attempts.
//
// Each failure runs one Lua script that increments the counter and starts the
// window on the first hit, so a counter can never be left without expiry.
// Keys, under the configured prefix:
//   - <prefix>:e: failed attempts per hashed email
//   - <prefix>:i: failed attempts per hashed client IP
//
// Only failed attempts count. A successful attempt clears both counters.
//
// # What this package must NOT do
//
//   - Decide what a failed attempt is; the caller reports failures.
//   - Put raw emails or addresses into Redis keys.
package rate
