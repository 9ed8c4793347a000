package transfer

import (
	"context"
	"time"
)

// ObjectStore is the slice of the storage provider this package needs. The
// aws package implements it against S3, tests swap in a fake. Grant expiry is
// enforced by the provider itself through the presign TTL.
type ObjectStore interface {
	// PresignPut returns a URL allowing exactly one object upload
	PresignPut(ctx context.Context, key, mimeType string, size int64, ttl time.Duration) (string, error)
	// PresignGet returns a URL serving the object as an attachment under
	// the given filename
	PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
	// Stat reports whether an object exists at the key
	Stat(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
}
