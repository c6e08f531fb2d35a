package session

import (
	"encoding/binary"
	"errors"
)

const (
	recordFormatVersion = 1
	recordSize          = 1 + 8 + 8 + 8
)

var errInvalidRecord = errors.New("invalid session record")

// Encode serialises r into the fixed-size binary form stored in Redis:
// a version byte followed by big-endian user id, created-at and expires-at.
func Encode(r *Record) ([]byte, error) {
	if r == nil || r.UserID <= 0 {
		return nil, errors.New("session record requires a positive user id")
	}

	buf := make([]byte, recordSize)
	buf[0] = recordFormatVersion
	binary.BigEndian.PutUint64(buf[1:9], uint64(r.UserID))
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.CreatedAt))
	binary.BigEndian.PutUint64(buf[17:25], uint64(r.ExpiresAt))
	return buf, nil
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (*Record, error) {
	if len(data) != recordSize {
		return nil, errInvalidRecord
	}
	if data[0] != recordFormatVersion {
		return nil, errors.New("invalid session record version")
	}

	r := &Record{
		UserID:    int64(binary.BigEndian.Uint64(data[1:9])),
		CreatedAt: int64(binary.BigEndian.Uint64(data[9:17])),
		ExpiresAt: int64(binary.BigEndian.Uint64(data[17:25])),
	}
	if r.UserID <= 0 {
		return nil, errInvalidRecord
	}
	return r, nil
}

func encodeUserID(userID int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(userID))
	return b[:]
}
