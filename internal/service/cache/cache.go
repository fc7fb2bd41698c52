package cache

import "time"

// BytesCache is the response-cache API handlers use: already-encoded
// payloads stored under a key with a TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
