package port

import (
	"context"
	"time"
)

// PresignedUpload is a time-limited URL a browser can PUT a file to.
type PresignedUpload struct {
	URL       string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
}

// ObjectStorage is the external store that holds document bytes.
type ObjectStorage interface {
	PresignPut(ctx context.Context, key, contentType string, size int64) (PresignedUpload, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
