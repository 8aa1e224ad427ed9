package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL. The HTTP
// layer uses it to keep encoded bar-history responses hot.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
