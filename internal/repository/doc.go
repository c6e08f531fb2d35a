// Package repository fronts the persistent stores with the read-through
// cache and fires model events on every write.
//
// Cache keys follow "<namespace>.<key>" and live for one hour. Every write
// flushes whole namespaces before it returns, and a failed flush fails the
// write with ErrCacheInvalidation:
//
//   - user created, updated, deleted or restored: users
//   - role created, updated or deleted: roles and users
//   - payment created: payments
//   - punishment created, updated or deleted: punishments
//   - post created, updated or liked: posts
//   - post deleted: posts and comments
//   - comment created, updated or deleted: comments
//   - product created, updated, deleted or restored: products
package repository
