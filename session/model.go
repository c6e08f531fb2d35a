package session

// Record is the server-side half of a session: the owner of an opaque token
// and its validity window. The token itself is never stored.
type Record struct {
	UserID int64

	// Unix seconds.
	CreatedAt int64
	ExpiresAt int64
}

// Expired reports whether the record is past its expiry at now (unix seconds).
// A zero ExpiresAt never expires.
func (r *Record) Expired(now int64) bool {
	return r.ExpiresAt != 0 && now >= r.ExpiresAt
}
